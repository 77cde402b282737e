package ipfs

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidate(t *testing.T) {
	c := NewClient("https://gateway.test", "token")

	assert.NoError(t, c.Validate("a.png", 1024, "image/png"))
	assert.NoError(t, c.Validate("a.jpg", MaxFileSize, "image/jpeg"))

	assert.Error(t, c.Validate("a.png", 0, "image/png"))
	assert.Error(t, c.Validate("a.png", MaxFileSize+1, "image/png"))
	assert.Error(t, c.Validate("a.pdf", 1024, "application/pdf"))
	assert.Error(t, c.Validate("a.svg", 1024, "image/svg+xml"))
}

func TestUpload(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/pinning/pinFileToIPFS", r.URL.Path)
		assert.Equal(t, "Bearer token", r.Header.Get("Authorization"))

		file, header, err := r.FormFile("file")
		require.NoError(t, err)
		defer file.Close()
		assert.Equal(t, "art.png", header.Filename)

		w.Write([]byte(`{"IpfsHash": "QmTestHash"}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "token")
	res, err := c.Upload(context.Background(), strings.NewReader("fake image bytes"), "art.png")
	require.NoError(t, err)

	assert.True(t, res.Success)
	assert.Equal(t, "https://gateway.pinata.cloud/ipfs/QmTestHash", res.URL)
}

func TestUploadGatewayError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "rate limited", http.StatusTooManyRequests)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "token")
	res, err := c.Upload(context.Background(), strings.NewReader("x"), "a.png")
	require.NoError(t, err, "gateway failures come back in-band")

	assert.False(t, res.Success)
	assert.Contains(t, res.Error, "429")
}

func TestUploadMissingHash(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "token")
	res, err := c.Upload(context.Background(), strings.NewReader("x"), "a.png")
	require.NoError(t, err)

	assert.False(t, res.Success)
	assert.NotEmpty(t, res.Error)
}

package ipfs

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"time"
)

// MaxFileSize is the largest accepted image upload (10 MiB).
const MaxFileSize = 10 << 20

// allowedContentTypes are the image types accepted for NFT assets.
var allowedContentTypes = map[string]struct{}{
	"image/jpeg": {},
	"image/png":  {},
	"image/gif":  {},
	"image/webp": {},
}

// UploadResult is the normalized outcome of an asset upload.
type UploadResult struct {
	Success bool   `json:"success"`
	URL     string `json:"url,omitempty"`
	Error   string `json:"error,omitempty"`
}

// Client uploads NFT assets to an IPFS pinning gateway.
type Client struct {
	gatewayURL string
	apiToken   string
	httpClient *http.Client
}

// NewClient creates a client for the given pinning gateway.
func NewClient(gatewayURL, apiToken string) *Client {
	return &Client{
		gatewayURL: gatewayURL,
		apiToken:   apiToken,
		httpClient: &http.Client{
			Timeout: 60 * time.Second,
		},
	}
}

// Validate checks an upload against local constraints before any bytes
// leave the process.
func (c *Client) Validate(fileName string, size int64, contentType string) error {
	if size <= 0 {
		return fmt.Errorf("empty file")
	}
	if size > MaxFileSize {
		return fmt.Errorf("file exceeds %d MB limit", MaxFileSize>>20)
	}
	if _, ok := allowedContentTypes[contentType]; !ok {
		return fmt.Errorf("unsupported file type %q: use JPEG, PNG, GIF, or WebP", contentType)
	}
	return nil
}

// Upload streams the file to the pinning gateway and returns the stored
// asset URL. Gateway-reported failures come back in-band on UploadResult.
func (c *Client) Upload(ctx context.Context, file io.Reader, fileName string) (*UploadResult, error) {
	pr, pw := io.Pipe()
	form := multipart.NewWriter(pw)

	go func() {
		part, err := form.CreateFormFile("file", fileName)
		if err != nil {
			pw.CloseWithError(err)
			return
		}
		if _, err := io.Copy(part, file); err != nil {
			pw.CloseWithError(err)
			return
		}
		pw.CloseWithError(form.Close())
	}()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.gatewayURL+"/pinning/pinFileToIPFS", pr)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", form.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+c.apiToken)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("upload request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return &UploadResult{
			Success: false,
			Error:   fmt.Sprintf("upload failed with status %d: %s", resp.StatusCode, string(body)),
		}, nil
	}

	var parsed struct {
		IpfsHash string `json:"IpfsHash"`
	}
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	if parsed.IpfsHash == "" {
		return &UploadResult{Success: false, Error: "gateway returned no content hash"}, nil
	}

	return &UploadResult{
		Success: true,
		URL:     "https://gateway.pinata.cloud/ipfs/" + parsed.IpfsHash,
	}, nil
}

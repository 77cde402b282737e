package assistant

import (
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chainpilot/assistant-backend/internal/types"
)

func TestDeriveSymbol(t *testing.T) {
	tests := []struct {
		name string
		want string
	}{
		{"Dragon Quest Token", "DRQU"},
		{"Sunshine", "SUNS"},
		{"Happy Cat Money Club", "HCMC"},
		{"Token", "TKN"},
		{"", "TKN"},
		{"Ox Coin", "OXN"},
		{"My Awesome Gaming Token", "MAG"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, DeriveSymbol(tt.name), "name %q", tt.name)
	}
}

func TestDeriveSymbolMinLength(t *testing.T) {
	sym := DeriveSymbol("Ab")
	assert.GreaterOrEqual(t, len(sym), 3)
}

func TestDeriveSymbolMultibyteNames(t *testing.T) {
	tests := []struct {
		name string
		want string
	}{
		{"Über Münze", "ÜBMÜ"},
		{"Ölwert", "ÖLWE"},
	}
	for _, tt := range tests {
		got := DeriveSymbol(tt.name)
		assert.Equal(t, tt.want, got, "name %q", tt.name)
		assert.True(t, utf8.ValidString(got), "name %q", tt.name)
	}
}

func TestDefaultSupply(t *testing.T) {
	tests := []struct {
		name string
		want int64
	}{
		{"Dragon Quest Token", 1_000_000_000},
		{"Moon Doge", 1_000_000_000_000},
		{"Community DAO Token", 10_000_000},
		{"PayFlow Network", 100_000_000},
		{"Stable Dollar", 1_000_000},
		{"Plain Old Name", 1_000_000},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, DefaultSupply(tt.name), "name %q", tt.name)
	}
}

func TestApplyTokenDefaults(t *testing.T) {
	a := &types.Action{
		Kind:    types.ActionCreateToken,
		Details: map[string]any{"name": "Dragon Quest Token"},
	}
	ApplyTokenDefaults(a)

	assert.Equal(t, "DRQU", a.DetailString("symbol"))

	supply, ok := a.DetailNumber("totalSupply")
	require.True(t, ok)
	assert.Equal(t, float64(1_000_000_000), supply)

	decimals, ok := a.DetailNumber("decimals")
	require.True(t, ok)
	assert.Equal(t, float64(18), decimals)
}

func TestApplyTokenDefaultsKeepsUserValues(t *testing.T) {
	a := &types.Action{
		Kind: types.ActionCreateToken,
		Details: map[string]any{
			"name":        "Dragon Quest Token",
			"symbol":      "DQT",
			"totalSupply": float64(42),
		},
	}
	ApplyTokenDefaults(a)

	assert.Equal(t, "DQT", a.DetailString("symbol"))
	supply, _ := a.DetailNumber("totalSupply")
	assert.Equal(t, float64(42), supply)
}

func TestApplyTokenDefaultsDeterministic(t *testing.T) {
	build := func() *types.Action {
		a := &types.Action{
			Kind:    types.ActionCreateToken,
			Details: map[string]any{"name": "Meme Rocket"},
		}
		ApplyTokenDefaults(a)
		return a
	}
	first, second := build(), build()
	assert.Equal(t, first.DetailString("symbol"), second.DetailString("symbol"))
	s1, _ := first.DetailNumber("totalSupply")
	s2, _ := second.DetailNumber("totalSupply")
	assert.Equal(t, s1, s2)
}

func TestApplyTokenDefaultsIgnoresOtherKinds(t *testing.T) {
	a := &types.Action{Kind: types.ActionMintNFT, Details: map[string]any{"name": "Art"}}
	ApplyTokenDefaults(a)
	assert.Empty(t, a.DetailString("symbol"))
}

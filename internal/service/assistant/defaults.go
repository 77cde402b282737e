package assistant

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/chainpilot/assistant-backend/internal/types"
)

const (
	// defaultDecimals is the fixed precision for created tokens.
	defaultDecimals = 18
	// fallbackSymbol is used when nothing usable remains of the name.
	fallbackSymbol = "TKN"
	// defaultSupply applies when no keyword category matches.
	defaultSupply int64 = 1_000_000
)

// genericNameWords carry no information for symbol derivation.
var genericNameWords = map[string]struct{}{
	"token":  {},
	"coin":   {},
	"crypto": {},
}

// supplyCategories map name keywords to conventional launch supplies.
// First matching category wins.
var supplyCategories = []struct {
	keywords []string
	supply   int64
}{
	{[]string{"game", "gaming", "play", "quest", "metaverse", "nft"}, 1_000_000_000},
	{[]string{"meme", "doge", "shib", "inu", "pepe", "moon"}, 1_000_000_000_000},
	{[]string{"dao", "governance", "vote", "voting"}, 10_000_000},
	{[]string{"utility", "platform", "protocol", "network", "pay"}, 100_000_000},
	{[]string{"stable", "usd", "dollar", "peg"}, 1_000_000},
}

// ApplyTokenDefaults fills the optional fields of a create_token action so
// that only {name, symbol, totalSupply} remain load-bearing. Pure and
// deterministic: the same name always yields the same defaults.
func ApplyTokenDefaults(a *types.Action) {
	if a == nil || a.Kind != types.ActionCreateToken {
		return
	}

	a.SetDetail("decimals", int64(defaultDecimals))

	name := a.DetailString("name")
	if _, ok := a.DetailNumber("totalSupply"); !ok {
		a.SetDetail("totalSupply", DefaultSupply(name))
	}
	if a.DetailString("symbol") == "" {
		a.SetDetail("symbol", DeriveSymbol(name))
	}
}

// DefaultSupply picks a launch supply from keyword categories in the name.
func DefaultSupply(name string) int64 {
	lower := strings.ToLower(name)
	for _, cat := range supplyCategories {
		for _, kw := range cat.keywords {
			if strings.Contains(lower, kw) {
				return cat.supply
			}
		}
	}
	return defaultSupply
}

// DeriveSymbol derives a 3-4 letter ticker from a token name. Generic
// words are stripped first; one remaining word contributes its leading
// letters, two words contribute two letters each, more words contribute
// initials. Short results are padded with trailing "N".
func DeriveSymbol(name string) string {
	var words []string
	for _, w := range strings.Fields(name) {
		cleaned := keepLetters(w)
		if cleaned == "" {
			continue
		}
		if _, generic := genericNameWords[strings.ToLower(cleaned)]; generic {
			continue
		}
		words = append(words, cleaned)
	}

	var sym string
	switch len(words) {
	case 0:
		return fallbackSymbol
	case 1:
		sym = prefix(words[0], 4)
	case 2:
		sym = prefix(words[0], 2) + prefix(words[1], 2)
	default:
		for _, w := range words {
			sym += prefix(w, 1)
			if utf8.RuneCountInString(sym) == 4 {
				break
			}
		}
	}

	sym = strings.ToUpper(sym)
	for utf8.RuneCountInString(sym) < 3 {
		sym += "N"
	}
	return sym
}

func keepLetters(s string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsLetter(r) {
			return r
		}
		return -1
	}, s)
}

// prefix takes the first n runes, never splitting a multibyte letter.
func prefix(s string, n int) string {
	r := []rune(s)
	if len(r) < n {
		return s
	}
	return string(r[:n])
}

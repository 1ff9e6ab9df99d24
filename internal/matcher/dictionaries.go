package matcher

import (
	"encoding/json"
	"fmt"
	"os"
)

// DefaultTypoCorrections maps known misspellings and variants to their
// canonical spelling. Operators can replace it entirely with
// LoadTypoCorrections; the matching algorithm itself stays data-free.
func DefaultTypoCorrections() map[string]string {
	return map[string]string{
		"ruspburry": "raspberry",
		"rasberry":  "raspberry",
		"orang":     "orange",
		"cocacola":  "coca cola",
		"bred":      "bread",
		"mlik":      "milk",
		"shuger":    "sugar",
		"maheu":     "mahewu",
	}
}

// DefaultBrandLexicon lists brand names commonly used on their own in sale
// messages ("2 mazoe" meaning the Mazoe product in stock).
func DefaultBrandLexicon() []string {
	return []string{
		"hullets",
		"mazoe",
		"olivine",
		"lobels",
		"gold leaf",
		"tanganda",
		"coca cola",
		"fanta",
		"sprite",
		"dairibord",
	}
}

// LoadTypoCorrections reads a JSON object of misspelling -> correction.
// An empty path returns the defaults.
func LoadTypoCorrections(path string) (map[string]string, error) {
	if path == "" {
		return DefaultTypoCorrections(), nil
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read typo dictionary: %w", err)
	}
	corrections := make(map[string]string)
	if err := json.Unmarshal(raw, &corrections); err != nil {
		return nil, fmt.Errorf("parse typo dictionary %s: %w", path, err)
	}
	return corrections, nil
}

// LoadBrandLexicon reads a JSON array of brand names. An empty path returns
// the defaults.
func LoadBrandLexicon(path string) ([]string, error) {
	if path == "" {
		return DefaultBrandLexicon(), nil
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read brand lexicon: %w", err)
	}
	var brands []string
	if err := json.Unmarshal(raw, &brands); err != nil {
		return nil, fmt.Errorf("parse brand lexicon %s: %w", path, err)
	}
	return brands, nil
}

// Package parser turns a free-text sale message into raw cart entries.
// It is side-effect free and deterministic; all catalog knowledge lives in
// the matcher.
package parser

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"tillchat/internal/domain"
)

var (
	ErrEmptyMessage     = errors.New("message contains no sale items")
	ErrMalformedSegment = errors.New("segment has no product name")
)

var (
	// Leading quantity with optional x: "2 bread", "2x bread", "1.5 kg sugar".
	quantityRe = regexp.MustCompile(`^(\d+(?:\.\d+)?)\s*[xX]?\s+`)
	// Quantity glued to the name, e.g. "2bread".
	gluedQuantityRe = regexp.MustCompile(`^(\d+(?:\.\d+)?)[xX]?`)
	// Explicit unit price marker: "@1.25", "@ 1.25".
	priceRe = regexp.MustCompile(`@\s*(\d+(?:\.\d+)?)`)
	// Narration the storekeeper often types before the items themselves.
	narrationRe = regexp.MustCompile(`(?i)^\s*(i\s+sold|customer\s+bought|we\s+sold|sold|bought)\s+`)
	// "and" acts as an item separator only when the next token is a quantity,
	// so "sugar and spice" stays a single product name.
	andSeparatorRe = regexp.MustCompile(`(?i)\s+and\s+(\d)`)
)

// Parse splits a message on commas, newlines and quantity-introducing "and",
// then extracts (quantity, name, optional @price) from each segment. A bare
// product name defaults to quantity 1.
func Parse(message string) ([]domain.RawEntry, error) {
	cleaned := narrationRe.ReplaceAllString(strings.TrimSpace(message), "")
	cleaned = strings.ReplaceAll(cleaned, "\n", ",")
	cleaned = andSeparatorRe.ReplaceAllString(cleaned, ",$1")

	segments := make([]string, 0, 4)
	for _, seg := range strings.Split(cleaned, ",") {
		if trimmed := strings.TrimSpace(seg); trimmed != "" {
			segments = append(segments, trimmed)
		}
	}
	if len(segments) == 0 {
		return nil, ErrEmptyMessage
	}

	entries := make([]domain.RawEntry, 0, len(segments))
	for _, segment := range segments {
		entry, err := parseSegment(segment)
		if err != nil {
			return nil, fmt.Errorf("%w: %q", err, segment)
		}
		entries = append(entries, entry)
	}
	return entries, nil
}

func parseSegment(segment string) (domain.RawEntry, error) {
	rest := segment

	var unitPrice *float64
	if m := priceRe.FindStringSubmatch(rest); m != nil {
		price, err := strconv.ParseFloat(m[1], 64)
		if err != nil || price < 0 {
			return domain.RawEntry{}, ErrMalformedSegment
		}
		unitPrice = &price
		rest = strings.Replace(rest, m[0], "", 1)
	}

	quantity := 1.0
	if m := quantityRe.FindStringSubmatch(rest); m != nil {
		quantity, _ = strconv.ParseFloat(m[1], 64)
		rest = rest[len(m[0]):]
	} else if m := gluedQuantityRe.FindStringSubmatch(rest); m != nil && len(m[0]) < len(rest) {
		quantity, _ = strconv.ParseFloat(m[1], 64)
		rest = rest[len(m[0]):]
	}
	if quantity <= 0 {
		return domain.RawEntry{}, ErrMalformedSegment
	}

	display := strings.TrimSpace(rest)
	if display == "" {
		return domain.RawEntry{}, ErrMalformedSegment
	}

	return domain.RawEntry{
		Quantity:    quantity,
		MatchText:   strings.ToLower(display),
		DisplayText: display,
		UnitPrice:   unitPrice,
	}, nil
}

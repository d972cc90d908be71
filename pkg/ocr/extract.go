package ocr

import (
	"strings"
	"unicode"
)

// Identifier length bounds, inclusive.
const (
	MinIdentifierDigits = 9
	MaxIdentifierDigits = 11
)

// ambiguousOnes are glyphs OCR commonly returns in place of the digit 1.
const ambiguousOnes = "Il|!'"

// ExtractIdentifiers recovers formatted identifiers from recognized text.
//
// Ambiguous one-like glyphs followed by a digit are rewritten to 1, then
// everything except digits and whitespace is dropped. If the remaining
// digits form a single 9-11 digit run the whole text is one identifier.
// Otherwise the text is split into blocks on runs of two or more whitespace
// characters and every block holding 9-11 digits is a candidate. Single
// spaces never split, so "123456789 987654321" yields nothing.
//
// Results are formatted with FormatIdentifier and de-duplicated in order of
// first appearance. An empty slice means nothing plausible was found.
func ExtractIdentifiers(text string) []string {
	filtered := keepDigitsAndSpace(normalizeGlyphs(text))

	var candidates []string
	if all := onlyDigits(filtered); validLength(len(all)) {
		candidates = []string{all}
	} else {
		for _, block := range splitBlocks(filtered) {
			if digits := onlyDigits(block); validLength(len(digits)) {
				candidates = append(candidates, digits)
			}
		}
	}

	out := make([]string, 0, len(candidates))
	seen := make(map[string]struct{}, len(candidates))
	for _, digits := range candidates {
		formatted := FormatIdentifier(digits)
		if _, ok := seen[formatted]; ok {
			continue
		}
		seen[formatted] = struct{}{}
		out = append(out, formatted)
	}
	return out
}

// FormatIdentifier groups a digit string by its length: 9 digits as 3-3-3,
// 10 as 1-3-3-3 and 11 as 2-3-3-3. Any other length is split into groups of
// three from the left with a trailing partial group.
func FormatIdentifier(digits string) string {
	var lead int
	switch len(digits) {
	case 9:
		lead = 3
	case 10:
		lead = 1
	case 11:
		lead = 2
	default:
		return groupFromLeft(digits, 3)
	}
	groups := []string{digits[:lead]}
	for i := lead; i < len(digits); i += 3 {
		groups = append(groups, digits[i:i+3])
	}
	return strings.Join(groups, " ")
}

// NormalizeIdentifier strips everything but ASCII digits.
func NormalizeIdentifier(s string) string {
	return onlyDigits(s)
}

// CleanText returns the digits-and-whitespace form of recognized text with
// whitespace runs collapsed to one space and the ends trimmed.
func CleanText(text string) string {
	return strings.Join(strings.FieldsFunc(keepDigitsAndSpace(normalizeGlyphs(text)), unicode.IsSpace), " ")
}

func validLength(n int) bool {
	return n >= MinIdentifierDigits && n <= MaxIdentifierDigits
}

// normalizeGlyphs rewrites an ambiguous glyph to '1' when the next
// non-whitespace character is a digit. Lookahead reads the original runes.
func normalizeGlyphs(s string) string {
	rs := []rune(s)
	for i, r := range rs {
		if !strings.ContainsRune(ambiguousOnes, r) {
			continue
		}
		j := i + 1
		for j < len(rs) && unicode.IsSpace(rs[j]) {
			j++
		}
		if j < len(rs) && isDigit(rs[j]) {
			rs[i] = '1'
		}
	}
	return string(rs)
}

func keepDigitsAndSpace(s string) string {
	return strings.Map(func(r rune) rune {
		if isDigit(r) || unicode.IsSpace(r) {
			return r
		}
		return -1
	}, s)
}

// splitBlocks splits on runs of two or more whitespace characters. Single
// whitespace characters are dropped without splitting.
func splitBlocks(s string) []string {
	var (
		blocks []string
		cur    strings.Builder
		run    int
	)
	for _, r := range s {
		if unicode.IsSpace(r) {
			run++
			continue
		}
		if run >= 2 && cur.Len() > 0 {
			blocks = append(blocks, cur.String())
			cur.Reset()
		}
		run = 0
		cur.WriteRune(r)
	}
	if cur.Len() > 0 {
		blocks = append(blocks, cur.String())
	}
	return blocks
}

func groupFromLeft(s string, size int) string {
	if len(s) <= size {
		return s
	}
	var parts []string
	for len(s) > size {
		parts = append(parts, s[:size])
		s = s[size:]
	}
	parts = append(parts, s)
	return strings.Join(parts, " ")
}

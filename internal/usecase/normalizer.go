package usecase

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/unicode/norm"
)

// Compiled patterns for name normalization
var (
	leadingArticlePattern = regexp.MustCompile(`^(?:a|an|the)\s+`)

	// 's and s' at the end of a word
	possessivePattern = regexp.MustCompile(`(?:'s|s')(\s|$)`)

	// everything except letters, digits, marks, whitespace and hyphens
	punctuationPattern = regexp.MustCompile(`[^\p{L}\p{N}\p{M}\s-]`)

	hyphenRunPattern  = regexp.MustCompile(`-{2,}`)
	multiSpacePattern = regexp.MustCompile(`\s+`)
)

var apostropheReplacer = strings.NewReplacer("’", "'", "‘", "'", "ʼ", "'", "`", "'")

// Normalize canonicalizes a free-text ingredient or recipe name into its merge key.
//
// Steps, in order: lowercase, strip one leading article, drop possessive markers,
// strip punctuation except internal hyphens, collapse whitespace, trim. The steps are
// repeated until the key is stable so Normalize(Normalize(s)) == Normalize(s); this
// only matters for inputs like "...the salt" where punctuation hid an article.
//
// No synonym resolution happens here.
func Normalize(raw string) string {
	key := normalizePass(raw)
	for {
		// after the first pass only article stripping can change the key, and it only shortens it
		next := normalizePass(key)
		if next == key {
			return key
		}
		key = next
	}
}

func normalizePass(raw string) string {
	if raw == "" {
		return ""
	}

	// Step 0: unify compatibility forms and apostrophe variants
	s := norm.NFKC.String(raw)
	s = apostropheReplacer.Replace(s)
	s = strings.TrimSpace(s)

	// Step 1: lowercase (a Caser is not goroutine-safe, so build one per call)
	s = cases.Lower(language.Und).String(s)

	// Step 2: leading article
	s = leadingArticlePattern.ReplaceAllString(s, "")

	// Step 3: possessives
	s = possessivePattern.ReplaceAllString(s, "$1")

	// Step 4: punctuation, keeping hyphens between letters or digits
	s = punctuationPattern.ReplaceAllString(s, "")
	s = keepInternalHyphens(s)

	// Step 5 and 6: whitespace
	s = multiSpacePattern.ReplaceAllString(s, " ")
	return strings.TrimSpace(s)
}

// keepInternalHyphens drops every hyphen that is not flanked by a letter or digit on both sides
func keepInternalHyphens(s string) string {
	if !strings.Contains(s, "-") {
		return s
	}
	s = hyphenRunPattern.ReplaceAllString(s, "-")
	runes := []rune(s)

	var b strings.Builder
	b.Grow(len(s))
	for i, r := range runes {
		if r == '-' {
			if i == 0 || i == len(runes)-1 || !isWordRune(runes[i-1]) || !isWordRune(runes[i+1]) {
				continue
			}
		}
		b.WriteRune(r)
	}
	return b.String()
}

func isWordRune(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsDigit(r)
}

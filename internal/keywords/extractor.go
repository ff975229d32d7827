package keywords

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/danielolaszy/triage/pkg/models"
)

var (
	acronymPlural = regexp.MustCompile(`\b([A-Z]{2,})s\b`)
	lowerUpper    = regexp.MustCompile(`([a-z0-9])([A-Z])`)
	acronymWord   = regexp.MustCompile(`([A-Z]+)([A-Z][a-z])`)
)

// ExtractKeywords normalizes free text into a keyword set. Known compound terms
// are matched first, then camelCase identifiers are split, the text is
// lowercased and tokenized on non-alphanumeric boundaries, and stop words,
// single runes and bare numbers are dropped.
//
// Extraction is idempotent over the sorted join: ExtractKeywords(ks.String())
// adds nothing to ks, and neither does extracting any single keyword of ks on
// its own. Joining the keywords in another order can place the words of a
// dictionary phrase next to each other ("machine learning"), which then
// extracts as the compound token.
func ExtractKeywords(text string) KeywordSet {
	out := make(KeywordSet)
	if strings.TrimSpace(text) == "" {
		return out
	}

	for _, p := range phrases {
		if !p.pattern.MatchString(text) {
			continue
		}
		out.Add(p.canonical)
		text = p.pattern.ReplaceAllString(text, " ")
	}

	text = splitCamelCase(text)
	text = strings.ToLower(text)

	tokens := strings.FieldsFunc(text, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	for _, tok := range tokens {
		if keep(tok) {
			out.Add(tok)
		}
	}
	return out
}

// ExtractLabelKeywords returns every label name, lowercased, together with the
// specialization keywords each label implies.
func ExtractLabelKeywords(labels []string) KeywordSet {
	out := make(KeywordSet)
	for _, label := range labels {
		out.Add(label)
		for _, kw := range SpecializationsFor(label) {
			out.Add(kw)
		}
	}
	return out
}

// ExtractIssueKeywords is the union of title, body and label keywords.
func ExtractIssueKeywords(issue models.Issue) KeywordSet {
	return Union(
		ExtractKeywords(issue.Title),
		ExtractKeywords(issue.Body),
		ExtractLabelKeywords(issue.Labels),
	)
}

func splitCamelCase(s string) string {
	s = acronymPlural.ReplaceAllString(s, "${1}")
	s = lowerUpper.ReplaceAllString(s, "${1} ${2}")
	return acronymWord.ReplaceAllString(s, "${1} ${2}")
}

func keep(tok string) bool {
	if utf8.RuneCountInString(tok) < 2 {
		return false
	}
	if IsStopWord(tok) {
		return false
	}
	for _, r := range tok {
		if !unicode.IsDigit(r) {
			return true
		}
	}
	return false
}

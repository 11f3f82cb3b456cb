package insights

import (
	"regexp"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"ai2c-dataviz/internal/models"
)

const minTokenLen = 3

var wordRun = regexp.MustCompile(`[\p{L}\p{N}_]+`)

var stopwords = toSet(
	"que", "com", "para", "uma", "numa", "não", "sim", "de", "da", "do", "das", "dos", "em", "no", "na", "os", "as", "o", "a", "e",
	"é", "se", "por", "um", "uns", "umas", "ao", "à", "às", "aos", "foi", "ser", "esta", "este", "esse", "isso", "isto",
	"tá", "está", "pra", "pro", "mais", "menos", "muito", "pouco", "the", "and", "for", "with", "you", "not", "are", "your",
	"this", "that", "was", "have", "has", "had", "from", "into", "about", "out", "her", "his", "their", "our",
)

func toSet(words ...string) map[string]struct{} {
	out := make(map[string]struct{}, len(words))
	for _, w := range words {
		out[w] = struct{}{}
	}
	return out
}

// Tokens extracts the lowercased words of text: runs of at least three
// letters that are not part of a longer word containing digits or
// underscores, minus stopwords.
func Tokens(text string) []string {
	lower := cases.Lower(language.Und).String(text)
	out := make([]string, 0)
	for _, w := range wordRun.FindAllString(lower, -1) {
		if utf8.RuneCountInString(w) < minTokenLen || !allLetters(w) {
			continue
		}
		if _, stop := stopwords[w]; stop {
			continue
		}
		out = append(out, w)
	}
	return out
}

func allLetters(w string) bool {
	for _, r := range w {
		if !unicode.IsLetter(r) {
			return false
		}
	}
	return true
}

// TopTokens returns the n most frequent words across the rows' answers.
func TopTokens(rows []models.ResponseRow, n int) []Count {
	words := make([]string, 0)
	for i := range rows {
		if models.IsMissing(rows[i].Answer) {
			continue
		}
		words = append(words, Tokens(rows[i].Answer)...)
	}
	return tally(words, n)
}

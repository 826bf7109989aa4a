// Cat-Corner/lexicon/lexicon.go

// Package lexicon loads the moderation term list and scans submitted text
// for whole-word matches.
package lexicon

import (
	"bufio"
	"fmt"
	"os"
	"strings"
	"unicode"
	"unicode/utf8"
)

// Lexicon is an immutable, ordered list of lower-cased terms. Safe for
// concurrent use once built.
type Lexicon struct {
	terms []string
}

// New builds a lexicon from raw terms. Terms are trimmed and lower-cased;
// blanks and duplicates are dropped. Order is preserved.
func New(terms []string) *Lexicon {
	seen := make(map[string]struct{}, len(terms))
	out := make([]string, 0, len(terms))
	for _, t := range terms {
		t = strings.ToLower(strings.TrimSpace(t))
		if t == "" {
			continue
		}
		if _, dup := seen[t]; dup {
			continue
		}
		seen[t] = struct{}{}
		out = append(out, t)
	}
	return &Lexicon{terms: out}
}

// Load reads a term file: one term per line, lines starting with '#' and
// blank lines skipped.
func Load(path string) (*Lexicon, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening lexicon: %w", err)
	}
	defer f.Close()

	var terms []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		terms = append(terms, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading lexicon: %w", err)
	}
	return &Lexicon{terms: New(terms).terms}, nil
}

// Len returns the number of loaded terms.
func (l *Lexicon) Len() int { return len(l.terms) }

// Scan reports how many distinct terms occur in text as whole words, and
// the first matching term in list order. Matching is case-insensitive;
// a term only matches when the runes adjacent to the occurrence are not
// letters or digits, so "cat" does not match inside "concatenate".
func (l *Lexicon) Scan(text string) (hits int, first string) {
	if len(l.terms) == 0 || text == "" {
		return 0, ""
	}
	lowered := strings.ToLower(text)
	for _, term := range l.terms {
		if containsWord(lowered, term) {
			if hits == 0 {
				first = term
			}
			hits++
		}
	}
	return hits, first
}

// containsWord reports whether term occurs in text bounded by non-word
// runes on both sides. Both inputs are already lower-cased.
func containsWord(text, term string) bool {
	for start := 0; ; {
		idx := strings.Index(text[start:], term)
		if idx < 0 {
			return false
		}
		idx += start
		end := idx + len(term)
		if !wordRuneBefore(text, idx) && !wordRuneAt(text, end) {
			return true
		}
		start = idx + 1
	}
}

func wordRuneBefore(s string, idx int) bool {
	if idx == 0 {
		return false
	}
	r, _ := utf8.DecodeLastRuneInString(s[:idx])
	return unicode.IsLetter(r) || unicode.IsDigit(r)
}

func wordRuneAt(s string, idx int) bool {
	if idx >= len(s) {
		return false
	}
	r, _ := utf8.DecodeRuneInString(s[idx:])
	return unicode.IsLetter(r) || unicode.IsDigit(r)
}

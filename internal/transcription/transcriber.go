// Package transcription renders words phonetically with a table of letter-context rules.
package transcription

import (
	"strings"
	"unicode"
)

// Context replaces a letter when a neighbouring letter belongs to Letters.
type Context struct {
	Letters string
	Value   string
}

// Rule describes how a single letter is transcribed.
// An empty Start means the letter has no word-initial override.
type Rule struct {
	Start   string
	After   []Context // matched against the preceding letter
	Before  []Context // matched against the following letter
	Regular string
}

// Table is a complete rule set for one language.
type Table struct {
	Rules map[rune]Rule
	Case  unicode.SpecialCase // case folding used before matching, may be nil
}

// Transcriber is a pure, table-driven transducer. It is safe for concurrent use.
type Transcriber struct {
	table Table
}

func New(table Table) *Transcriber {
	return &Transcriber{table: table}
}

// Transcribe returns the phonetic rendering of word.
func (t *Transcriber) Transcribe(word string) string {
	letters := []rune(strings.ToLowerSpecial(t.table.Case, word))

	var sb strings.Builder
	for i, letter := range letters {
		rule, ok := t.table.Rules[letter]
		if !ok {
			sb.WriteRune(letter)
			continue
		}
		sb.WriteString(rule.apply(letters, i))
	}

	return sb.String()
}

// apply picks the variant for letters[i]. Later matches override earlier ones:
// start, then after-rules, then before-rules.
func (r Rule) apply(letters []rune, i int) string {
	part, matched := "", false

	if i == 0 && r.Start != "" {
		part, matched = r.Start, true
	}

	if i > 0 {
		prev := letters[i-1]
		for _, c := range r.After {
			if strings.ContainsRune(c.Letters, prev) {
				part, matched = c.Value, true
			}
		}
	}

	if i < len(letters)-1 {
		next := letters[i+1]
		for _, c := range r.Before {
			if strings.ContainsRune(c.Letters, next) {
				part, matched = c.Value, true
			}
		}
	}

	if !matched {
		return r.Regular
	}
	return part
}

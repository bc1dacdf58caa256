// Package lexicon serves word definitions and frequency ranks from a JSON
// seed file. The seed is a JSON array of rows such as
//
//	{"lemma": "quaint", "rank": 6120, "definition": "attractively unusual"}
//
// Unknown keys are ignored. Lemmas are normalized the same way word states
// are, so lookups match captured words.
package lexicon

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/rs/zerolog/log"

	"github.com/tbourn/go-srs-backend/internal/domain"
)

// Entry is one seed row.
type Entry struct {
	Lemma      string `json:"lemma"`
	Rank       int    `json:"rank"`
	Definition string `json:"definition"`
}

// Lexicon is an immutable in-memory index; safe for concurrent use.
type Lexicon struct {
	entries map[string]Entry
}

// New indexes rows. Rows with a blank lemma are skipped; for a repeated
// lemma the first row wins.
func New(rows []Entry) *Lexicon {
	l := &Lexicon{entries: make(map[string]Entry, len(rows))}
	for _, r := range rows {
		r.Lemma = domain.NormalizeLemma(r.Lemma)
		if r.Lemma == "" {
			continue
		}
		if _, dup := l.entries[r.Lemma]; dup {
			continue
		}
		l.entries[r.Lemma] = r
	}
	return l
}

// Parse reads a seed document from r.
func Parse(r io.Reader) (*Lexicon, error) {
	var rows []Entry
	if err := json.NewDecoder(r).Decode(&rows); err != nil {
		return nil, fmt.Errorf("lexicon: decode seed: %w", err)
	}
	return New(rows), nil
}

// Load reads the seed at path. An empty path yields an empty lexicon.
func Load(path string) (*Lexicon, error) {
	if path == "" {
		return New(nil), nil
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("lexicon: %w", err)
	}
	defer f.Close()

	l, err := Parse(f)
	if err != nil {
		return nil, err
	}
	log.Info().Str("path", path).Int("entries", l.Len()).Msg("lexicon loaded")
	return l, nil
}

// DefinitionFor returns the definition of lemma, if the seed has a
// non-empty one.
func (l *Lexicon) DefinitionFor(lemma string) (string, bool) {
	e, ok := l.entries[domain.NormalizeLemma(lemma)]
	if !ok || e.Definition == "" {
		return "", false
	}
	return e.Definition, true
}

// RankFor returns the frequency rank of lemma (1 = most common).
func (l *Lexicon) RankFor(lemma string) (int, bool) {
	e, ok := l.entries[domain.NormalizeLemma(lemma)]
	if !ok || e.Rank <= 0 {
		return 0, false
	}
	return e.Rank, true
}

// Len is the number of indexed lemmas.
func (l *Lexicon) Len() int { return len(l.entries) }

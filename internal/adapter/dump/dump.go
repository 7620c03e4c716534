// Package dump reads index dumps produced by an external indexer. A dump is
// a YAML (or JSON) document with three sections:
//
//	vocabulary: {term: {id, idf}}
//	postings:   {termID: [{doc, weight}, ...]}
//	documents:  {docID: {label, norm}}
//
// Weights, IDF values and norms are taken as given. Files ending in .gz,
// .zst or .lz4 are decompressed on the fly.
package dump

import (
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"sort"
	"strconv"

	"gopkg.in/yaml.v3"

	"vsm/internal/domain"
	"vsm/internal/port"
)

type rawDump struct {
	Vocabulary map[string]domain.VocabularyEntry `yaml:"vocabulary"`
	Postings   map[string][]domain.Posting        `yaml:"postings"`
	Documents  map[string]domain.DocumentEntry    `yaml:"documents"`
}

// Decode parses a dump. JSON input works because JSON is valid YAML.
func Decode(r io.Reader) (port.IndexSnapshot, error) {
	var raw rawDump
	if err := yaml.NewDecoder(r).Decode(&raw); err != nil {
		if errors.Is(err, io.EOF) {
			return NewSnapshot(), nil
		}
		return port.IndexSnapshot{}, fmt.Errorf("%w: %v", domain.ErrInvalidDump, err)
	}

	snap := NewSnapshot()
	for term, entry := range raw.Vocabulary {
		snap.Vocabulary[term] = entry
	}
	for key, postings := range raw.Postings {
		id, err := parseID(key)
		if err != nil {
			return port.IndexSnapshot{}, fmt.Errorf("%w: postings key %q: %v", domain.ErrInvalidDump, key, err)
		}
		snap.Postings[domain.TermID(id)] = postings
	}
	for key, doc := range raw.Documents {
		id, err := parseID(key)
		if err != nil {
			return port.IndexSnapshot{}, fmt.Errorf("%w: documents key %q: %v", domain.ErrInvalidDump, key, err)
		}
		snap.Documents[domain.DocID(id)] = doc
	}
	return snap, nil
}

// ReadFile decodes the dump stored at path.
func ReadFile(path string) (port.IndexSnapshot, error) {
	f, err := os.Open(path)
	if err != nil {
		return port.IndexSnapshot{}, err
	}
	defer f.Close()

	r, release, err := decompress(f, DetectCompression(path))
	if err != nil {
		return port.IndexSnapshot{}, fmt.Errorf("%s: %w", path, err)
	}
	defer release()

	snap, err := Decode(r)
	if err != nil {
		return port.IndexSnapshot{}, fmt.Errorf("%s: %w", path, err)
	}
	return snap, nil
}

func parseID(s string) (uint32, error) {
	v, err := strconv.ParseUint(s, 10, 32)
	return uint32(v), err
}

func NewSnapshot() port.IndexSnapshot {
	return port.IndexSnapshot{
		Vocabulary: make(map[string]domain.VocabularyEntry),
		Postings:   make(map[domain.TermID][]domain.Posting),
		Documents:  make(map[domain.DocID]domain.DocumentEntry),
	}
}

// Merge adds src into dst. A term or document defined differently in both
// is a conflict.
func Merge(dst, src port.IndexSnapshot) error {
	for term, entry := range src.Vocabulary {
		if prev, ok := dst.Vocabulary[term]; ok && prev != entry {
			return fmt.Errorf("%w: term %q defined twice (%v, %v)", domain.ErrInvalidDump, term, prev, entry)
		}
		dst.Vocabulary[term] = entry
	}
	for id, doc := range src.Documents {
		if prev, ok := dst.Documents[id]; ok && prev != doc {
			return fmt.Errorf("%w: document %d defined twice", domain.ErrInvalidDump, id)
		}
		dst.Documents[id] = doc
	}
	for id, postings := range src.Postings {
		existing := make(map[domain.DocID]float64, len(dst.Postings[id]))
		for _, p := range dst.Postings[id] {
			existing[p.DocID] = p.Weight
		}
		for _, p := range postings {
			w, ok := existing[p.DocID]
			switch {
			case !ok:
				dst.Postings[id] = append(dst.Postings[id], p)
				existing[p.DocID] = p.Weight
			case w != p.Weight:
				return fmt.Errorf("%w: term %d: document %d has two weights", domain.ErrInvalidDump, id, p.DocID)
			}
		}
	}
	return nil
}

// Validate checks the invariants the ranker relies on and reports every
// violation found.
func Validate(snap port.IndexSnapshot) error {
	var problems []error
	addf := func(format string, args ...any) {
		problems = append(problems, fmt.Errorf(format, args...))
	}

	termsByID := make(map[domain.TermID]string, len(snap.Vocabulary))
	for _, term := range sortedKeys(snap.Vocabulary) {
		entry := snap.Vocabulary[term]
		if prev, dup := termsByID[entry.TermID]; dup {
			addf("term id %d used by %q and %q", entry.TermID, prev, term)
		}
		termsByID[entry.TermID] = term
		if !finiteNonNegative(entry.IDF) {
			addf("term %q: invalid idf %v", term, entry.IDF)
		}
	}

	referenced := make(map[domain.DocID]bool)
	for _, id := range sortedIDs(snap.Postings) {
		if _, ok := termsByID[id]; !ok {
			addf("posting list %d has no vocabulary entry", id)
		}
		seen := make(map[domain.DocID]bool, len(snap.Postings[id]))
		for _, p := range snap.Postings[id] {
			if seen[p.DocID] {
				addf("posting list %d: document %d listed twice", id, p.DocID)
			}
			seen[p.DocID] = true
			referenced[p.DocID] = true
			if !finiteNonNegative(p.Weight) {
				addf("posting list %d: document %d: invalid weight %v", id, p.DocID, p.Weight)
			}
			if _, ok := snap.Documents[p.DocID]; !ok {
				addf("posting list %d: document %d missing from document table", id, p.DocID)
			}
		}
	}

	for id, doc := range snap.Documents {
		if !referenced[id] {
			continue
		}
		if !(doc.Norm > 0) || math.IsInf(doc.Norm, 0) {
			addf("document %d: invalid norm %v", id, doc.Norm)
		}
	}

	if len(problems) == 0 {
		return nil
	}
	return fmt.Errorf("%w: %w", domain.ErrInvalidDump, errors.Join(problems...))
}

func finiteNonNegative(v float64) bool {
	return v >= 0 && !math.IsInf(v, 0)
}

func sortedKeys(m map[string]domain.VocabularyEntry) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func sortedIDs(m map[domain.TermID][]domain.Posting) []domain.TermID {
	ids := make([]domain.TermID, 0, len(m))
	for id := range m {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

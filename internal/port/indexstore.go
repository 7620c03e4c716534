package port

import "vsm/internal/domain"

// Index is a read-only snapshot of an inverted index. Implementations must
// not change what they return for the lifetime of the snapshot.
type Index interface {
	// Term looks up a vocabulary entry. ok is false for unknown terms.
	Term(term string) (entry domain.VocabularyEntry, ok bool, err error)

	// Postings returns the posting list of a term. A term without postings
	// yields an empty list and a nil error.
	Postings(id domain.TermID) ([]domain.Posting, error)

	// Document returns the document table entry. ok is false when the
	// document is missing.
	Document(id domain.DocID) (entry domain.DocumentEntry, ok bool, err error)
}

// IndexWriter is implemented by stores that can be filled from an
// externally built index.
type IndexWriter interface {
	BatchLoad(snapshot IndexSnapshot) error

	Clear() error
}

// IndexSnapshot holds the three mappings that make up an index.
type IndexSnapshot struct {
	Vocabulary map[string]domain.VocabularyEntry
	Postings   map[domain.TermID][]domain.Posting
	Documents  map[domain.DocID]domain.DocumentEntry
}

// IndexStore hands out read-only snapshots of a stored index.
type IndexStore interface {
	// View runs fn against a snapshot that stays consistent until fn
	// returns. The Index must not be used after that.
	View(fn func(Index) error) error

	Stats() (domain.Stats, error)
}

package memstore

import (
	"sync"

	"vsm/internal/domain"
	"vsm/internal/port"
)

// MemoryStore is a map-backed index. Loading takes the write lock; queries
// only read.
type MemoryStore struct {
	mu         sync.RWMutex
	vocabulary map[string]domain.VocabularyEntry
	postings   map[domain.TermID][]domain.Posting
	documents  map[domain.DocID]domain.DocumentEntry
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		vocabulary: make(map[string]domain.VocabularyEntry),
		postings:   make(map[domain.TermID][]domain.Posting),
		documents:  make(map[domain.DocID]domain.DocumentEntry),
	}
}

var (
	_ port.Index       = (*MemoryStore)(nil)
	_ port.IndexWriter = (*MemoryStore)(nil)
	_ port.IndexStore  = (*MemoryStore)(nil)
)

func (s *MemoryStore) PutTerm(term string, entry domain.VocabularyEntry) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.vocabulary[term] = entry
}

func (s *MemoryStore) PutPostings(id domain.TermID, postings []domain.Posting) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.postings[id] = append([]domain.Posting(nil), postings...)
}

func (s *MemoryStore) PutDocument(id domain.DocID, doc domain.DocumentEntry) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.documents[id] = doc
}

func (s *MemoryStore) Term(term string) (domain.VocabularyEntry, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	entry, ok := s.vocabulary[term]
	return entry, ok, nil
}

func (s *MemoryStore) Postings(id domain.TermID) ([]domain.Posting, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.postings[id], nil
}

func (s *MemoryStore) Document(id domain.DocID) (domain.DocumentEntry, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	doc, ok := s.documents[id]
	return doc, ok, nil
}

func (s *MemoryStore) BatchLoad(snapshot port.IndexSnapshot) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for term, entry := range snapshot.Vocabulary {
		s.vocabulary[term] = entry
	}
	for id, postings := range snapshot.Postings {
		s.postings[id] = domain.MergePostings(s.postings[id], postings)
	}
	for id, doc := range snapshot.Documents {
		s.documents[id] = doc
	}
	return nil
}

func (s *MemoryStore) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.vocabulary = make(map[string]domain.VocabularyEntry)
	s.postings = make(map[domain.TermID][]domain.Posting)
	s.documents = make(map[domain.DocID]domain.DocumentEntry)
	return nil
}

func (s *MemoryStore) Stats() (domain.Stats, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	stats := domain.Stats{
		Terms:     len(s.vocabulary),
		Documents: len(s.documents),
	}
	for _, postings := range s.postings {
		stats.Postings += len(postings)
	}
	return stats, nil
}

// View runs fn against the store itself; no copy is taken.
func (s *MemoryStore) View(fn func(port.Index) error) error {
	return fn(s)
}

package store

import (
	"encoding/binary"
	"encoding/json"
	"fmt"
	"time"

	"go.etcd.io/bbolt"

	"vsm/internal/domain"
	"vsm/internal/port"
)

var (
	bucketVocab    = []byte("vocab")
	bucketPostings = []byte("postings")
	bucketDocs     = []byte("docs")
	bucketMeta     = []byte("meta")
	keyStats       = []byte("corpus_stats")

	allBuckets = [][]byte{bucketVocab, bucketPostings, bucketDocs, bucketMeta}
)

type BoltStore struct {
	db       *bbolt.DB
	readOnly bool
}

var (
	_ port.IndexStore  = (*BoltStore)(nil)
	_ port.IndexWriter = (*BoltStore)(nil)
)

// NewBoltStore opens (or creates) the index database for writing.
func NewBoltStore(path string) (*BoltStore, error) {
	db, err := bbolt.Open(path, 0600, &bbolt.Options{Timeout: 5 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("failed to open bolt db: %w", err)
	}

	err = db.Update(func(tx *bbolt.Tx) error {
		for _, b := range allBuckets {
			if _, err := tx.CreateBucketIfNotExists(b); err != nil {
				return fmt.Errorf("failed to create bucket %s: %w", b, err)
			}
		}
		return nil
	})
	if err != nil {
		db.Close()
		return nil, err
	}

	return &BoltStore{db: db}, nil
}

// OpenReadOnly opens an existing index database with a shared lock, so that
// several query processes can read it at once.
func OpenReadOnly(path string) (*BoltStore, error) {
	db, err := bbolt.Open(path, 0400, &bbolt.Options{ReadOnly: true, Timeout: 5 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("failed to open bolt db: %w", err)
	}
	return &BoltStore{db: db, readOnly: true}, nil
}

func (s *BoltStore) Close() error {
	return s.db.Close()
}

func itob(v uint32) []byte {
	b := make([]byte, 4)
	binary.BigEndian.PutUint32(b, v)
	return b
}

// View runs fn inside a single read-only transaction. Every lookup made
// through the Index sees the same committed state.
func (s *BoltStore) View(fn func(port.Index) error) error {
	return s.db.View(func(tx *bbolt.Tx) error {
		return fn(&txIndex{tx: tx})
	})
}

type txIndex struct {
	tx *bbolt.Tx
}

func (x *txIndex) get(bucket, key []byte) []byte {
	b := x.tx.Bucket(bucket)
	if b == nil {
		return nil
	}
	return b.Get(key)
}

func (x *txIndex) Term(term string) (domain.VocabularyEntry, bool, error) {
	var entry domain.VocabularyEntry
	data := x.get(bucketVocab, []byte(term))
	if data == nil {
		return entry, false, nil
	}
	if err := json.Unmarshal(data, &entry); err != nil {
		return entry, false, fmt.Errorf("corrupt vocabulary entry %q: %w", term, err)
	}
	return entry, true, nil
}

func (x *txIndex) Postings(id domain.TermID) ([]domain.Posting, error) {
	data := x.get(bucketPostings, itob(uint32(id)))
	if data == nil {
		return nil, nil
	}
	var postings []domain.Posting
	if err := json.Unmarshal(data, &postings); err != nil {
		return nil, fmt.Errorf("corrupt posting list %d: %w", id, err)
	}
	return postings, nil
}

func (x *txIndex) Document(id domain.DocID) (domain.DocumentEntry, bool, error) {
	var doc domain.DocumentEntry
	data := x.get(bucketDocs, itob(uint32(id)))
	if data == nil {
		return doc, false, nil
	}
	if err := json.Unmarshal(data, &doc); err != nil {
		return doc, false, fmt.Errorf("corrupt document entry %d: %w", id, err)
	}
	return doc, true, nil
}

func putJSON(b *bbolt.Bucket, key []byte, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return b.Put(key, data)
}

// BatchLoad writes a whole index snapshot in one transaction. Posting lists
// are merged with the stored ones; a posting for a document already in the
// list replaces the old weight.
func (s *BoltStore) BatchLoad(snapshot port.IndexSnapshot) error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		vocab := tx.Bucket(bucketVocab)
		for term, entry := range snapshot.Vocabulary {
			if err := putJSON(vocab, []byte(term), entry); err != nil {
				return err
			}
		}

		docs := tx.Bucket(bucketDocs)
		for id, doc := range snapshot.Documents {
			if err := putJSON(docs, itob(uint32(id)), doc); err != nil {
				return err
			}
		}

		postingsBucket := tx.Bucket(bucketPostings)
		for id, newPostings := range snapshot.Postings {
			key := itob(uint32(id))
			var existing []domain.Posting
			if data := postingsBucket.Get(key); data != nil {
				if err := json.Unmarshal(data, &existing); err != nil {
					return fmt.Errorf("corrupt posting list %d: %w", id, err)
				}
			}
			if err := putJSON(postingsBucket, key, domain.MergePostings(existing, newPostings)); err != nil {
				return err
			}
		}

		return writeStats(tx)
	})
}

func writeStats(tx *bbolt.Tx) error {
	stats := domain.Stats{
		Terms:     countKeys(tx.Bucket(bucketVocab)),
		Documents: countKeys(tx.Bucket(bucketDocs)),
	}
	err := tx.Bucket(bucketPostings).ForEach(func(k, v []byte) error {
		var postings []domain.Posting
		if err := json.Unmarshal(v, &postings); err != nil {
			return err
		}
		stats.Postings += len(postings)
		return nil
	})
	if err != nil {
		return err
	}
	return putJSON(tx.Bucket(bucketMeta), keyStats, stats)
}

// countKeys walks the bucket with a cursor, which, unlike Bucket.Stats, sees
// writes made earlier in the same transaction.
func countKeys(b *bbolt.Bucket) int {
	n := 0
	c := b.Cursor()
	for k, _ := c.First(); k != nil; k, _ = c.Next() {
		n++
	}
	return n
}

func (s *BoltStore) Stats() (domain.Stats, error) {
	var stats domain.Stats
	err := s.db.View(func(tx *bbolt.Tx) error {
		b := tx.Bucket(bucketMeta)
		if b == nil {
			return nil
		}
		data := b.Get(keyStats)
		if data == nil {
			return nil
		}
		return json.Unmarshal(data, &stats)
	})
	return stats, err
}

// Package index maintains the corpus vocabulary and document-frequency
// statistics that make TF-IDF weights comparable across screening runs.
//
// The vocabulary is append-only: a token keeps the index it was first given,
// so vectors built against an older snapshot stay valid dimension for
// dimension as the corpus grows. Document frequencies only ever increase.
package index

import (
	"fmt"
	"log/slog"
	"math"
	"sort"
	"sync"

	"github.com/google/uuid"

	apperrors "github.com/Adithya-Monish-Kumar-K/resume-screener/pkg/errors"
)

// TermCount is the raw number of occurrences of one vocabulary index in a
// document.
type TermCount struct {
	Index int
	Count int
}

// DocumentStats records what ingestion learned about one document. Terms is
// sorted by Index and must not be modified by callers.
type DocumentStats struct {
	DocID  string
	Length int
	Terms  []TermCount
}

// Corpus is the shared Corpus State. Ingestion takes the write lock; every
// read either takes the read lock or goes through an immutable Snapshot.
type Corpus struct {
	id     string
	mu     sync.RWMutex
	vocab  map[string]int
	terms  []string
	df     []int
	docs   map[string]DocumentStats
	logger *slog.Logger
}

func NewCorpus() *Corpus {
	return &Corpus{
		id:     uuid.New().String(),
		vocab:  make(map[string]int),
		docs:   make(map[string]DocumentStats),
		logger: slog.Default().With("component", "corpus"),
	}
}

// Ingest registers tokens under docID. Unseen tokens get the next vocabulary
// index in order of first appearance and every distinct token bumps its
// document frequency once. Ingesting an already known docID changes nothing
// and returns the stats recorded the first time; added reports whether this
// call ingested the document.
func (c *Corpus) Ingest(docID string, tokens []string) (stats DocumentStats, added bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if existing, ok := c.docs[docID]; ok {
		c.logger.Debug("document already ingested", "doc_id", docID)
		return existing, false
	}

	counts := make(map[int]int)
	for _, token := range tokens {
		idx, exists := c.vocab[token]
		if !exists {
			idx = len(c.terms)
			c.vocab[token] = idx
			c.terms = append(c.terms, token)
			c.df = append(c.df, 0)
		}
		counts[idx]++
	}
	terms := make([]TermCount, 0, len(counts))
	for idx, n := range counts {
		c.df[idx]++
		terms = append(terms, TermCount{Index: idx, Count: n})
	}
	sort.Slice(terms, func(i, j int) bool {
		return terms[i].Index < terms[j].Index
	})

	stats = DocumentStats{
		DocID:  docID,
		Length: len(tokens),
		Terms:  terms,
	}
	c.docs[docID] = stats
	c.logger.Debug("document ingested",
		"doc_id", docID,
		"token_count", len(tokens),
		"distinct_terms", len(terms),
		"vocabulary_size", len(c.terms),
	)
	return stats, true
}

// Stats returns the stats recorded for docID.
func (c *Corpus) Stats(docID string) (DocumentStats, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	stats, ok := c.docs[docID]
	return stats, ok
}

// Lookup returns the vocabulary index of token.
func (c *Corpus) Lookup(token string) (int, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	idx, ok := c.vocab[token]
	return idx, ok
}

// Term returns the token stored at a vocabulary index.
func (c *Corpus) Term(index int) (string, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if index < 0 || index >= len(c.terms) {
		return "", false
	}
	return c.terms[index], true
}

func (c *Corpus) DocumentFrequency(index int) int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if index < 0 || index >= len(c.df) {
		return 0
	}
	return c.df[index]
}

func (c *Corpus) VocabularySize() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.terms)
}

func (c *Corpus) TotalDocuments() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.docs)
}

// Weight returns the current IDF of a vocabulary index.
func (c *Corpus) Weight(index int) (float64, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if index < 0 || index >= len(c.df) {
		return 0, apperrors.Newf(apperrors.ErrInvalidInput, "vocabulary index %d out of range [0,%d)", index, len(c.df))
	}
	return IDF(c.df[index], len(c.docs)), nil
}

// Snapshot copies the statistics needed for scoring so that readers never
// observe a half-applied ingestion. Later ingestion does not affect it.
func (c *Corpus) Snapshot() *Snapshot {
	c.mu.RLock()
	defer c.mu.RUnlock()
	df := make([]int, len(c.df))
	copy(df, c.df)
	docs := make(map[string]DocumentStats, len(c.docs))
	for id, stats := range c.docs {
		docs[id] = stats
	}
	return &Snapshot{
		corpusID: c.id,
		df:       df,
		docs:     docs,
	}
}

// IDF is the smoothed inverse document frequency
// ln((1+total)/(1+df)) + 1. It is always positive and defined for an empty
// corpus.
func IDF(df, total int) float64 {
	return math.Log(float64(1+total)/float64(1+df)) + 1
}

// Snapshot is an immutable view of the corpus statistics, safe for any
// number of concurrent readers.
type Snapshot struct {
	corpusID string
	df       []int
	docs     map[string]DocumentStats
}

func (s *Snapshot) TotalDocuments() int {
	return len(s.docs)
}

func (s *Snapshot) VocabularySize() int {
	return len(s.df)
}

// Key identifies the corpus state the snapshot was taken from. Two snapshots
// of the same corpus with equal keys yield identical weights.
func (s *Snapshot) Key() string {
	return fmt.Sprintf("%s@%d", s.corpusID, len(s.docs))
}

// Stats returns the recorded stats for docID. Documents ingested after the
// snapshot was taken are reported as ErrNotIngested.
func (s *Snapshot) Stats(docID string) (DocumentStats, error) {
	stats, ok := s.docs[docID]
	if !ok {
		return DocumentStats{}, apperrors.Newf(apperrors.ErrNotIngested, "document %s", docID)
	}
	return stats, nil
}

func (s *Snapshot) IDF(index int) (float64, error) {
	if index < 0 || index >= len(s.df) {
		return 0, apperrors.Newf(apperrors.ErrNotIngested, "vocabulary index %d outside snapshot of %d terms", index, len(s.df))
	}
	return IDF(s.df[index], len(s.docs)), nil
}

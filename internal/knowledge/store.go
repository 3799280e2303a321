// Package knowledge holds the category knowledge store: canonical
// answer passages keyed by category, plus a semantic index over the
// same passages for symptom retrieval. Both are read-only once loaded;
// the store is safe for concurrent readers.
package knowledge

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"sort"
	"strconv"

	"github.com/blevesearch/bleve"
)

// ErrMissingColumns is returned when the CSV source lacks a required column.
var ErrMissingColumns = errors.New("missing required columns")

const rrfK = 60 // reciprocal-rank-fusion constant

// Embedder is the slice of the provider contract the store needs.
type Embedder interface {
	CreateEmbedding(ctx context.Context, texts []string) ([][]float32, error)
}

// Candidate is one retrieval result: the category of the originating
// index entry. Candidates are ephemeral, produced per request.
type Candidate struct {
	Category string
	Entry    IndexEntry
	Score    float64
}

// Store is the loaded knowledge base.
type Store struct {
	logger   *log.Logger
	embedder Embedder
	answers  map[string][]string
	entries  []IndexEntry
	keyword  bleve.Index
}

// Load reads the answers CSV and the prebuilt semantic index. A missing
// or unreadable CSV is a load error; a missing index file only degrades
// semantic search, so it is logged and tolerated.
func Load(csvPath, indexPath string, embedder Embedder) (*Store, error) {
	answers, err := loadAnswers(csvPath)
	if err != nil {
		return nil, err
	}

	entries, err := LoadIndex(indexPath)
	if err != nil {
		log.Printf("[KB] semantic index unavailable (%v); search degraded", err)
		entries = nil
	}

	return NewFromData(answers, entries, embedder)
}

// NewFromData builds a store from already-loaded data. Used by Load and
// by tests with fixture data.
func NewFromData(answers map[string][]string, entries []IndexEntry, embedder Embedder) (*Store, error) {
	idx, err := bleve.NewMemOnly(bleve.NewIndexMapping())
	if err != nil {
		return nil, fmt.Errorf("keyword index: %w", err)
	}
	for i, e := range entries {
		doc := struct {
			Text string `json:"text"`
		}{Text: e.Text}
		if err := idx.Index(strconv.Itoa(i), doc); err != nil {
			return nil, fmt.Errorf("index entry %d: %w", i, err)
		}
	}
	return &Store{
		logger:   log.New(log.Writer(), "[KB] ", log.LstdFlags),
		embedder: embedder,
		answers:  answers,
		entries:  entries,
		keyword:  idx,
	}, nil
}

// NewEmpty returns a store with no data. Every lookup is empty and every
// search returns nil, which downstream components degrade around.
func NewEmpty() *Store {
	s, _ := NewFromData(map[string][]string{}, nil, nil)
	return s
}

// loadAnswers reads the MedQuAD-style CSV into category -> passages.
// Rows with an empty category or answer are dropped silently; that is
// the documented data-cleaning policy, not an error.
func loadAnswers(path string) (map[string][]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open knowledge csv: %w", err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1
	header, err := r.Read()
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}
	catCol, ansCol := -1, -1
	for i, name := range header {
		switch name {
		case "focus_area":
			catCol = i
		case "answer":
			ansCol = i
		}
	}
	if catCol < 0 || ansCol < 0 {
		return nil, fmt.Errorf("%w: need focus_area and answer", ErrMissingColumns)
	}

	answers := make(map[string][]string)
	for {
		row, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read row: %w", err)
		}
		if catCol >= len(row) || ansCol >= len(row) {
			continue
		}
		cat, ans := row[catCol], row[ansCol]
		if cat == "" || ans == "" {
			continue
		}
		answers[cat] = append(answers[cat], ans)
	}
	return answers, nil
}

// Lookup returns all canonical answer passages for a category, or nil.
func (s *Store) Lookup(category string) []string {
	return s.answers[category]
}

// Categories reports how many distinct categories are loaded.
func (s *Store) Categories() int { return len(s.answers) }

// Search returns the k best index entries for the query. Ranking fuses
// the cosine-similarity leg with a BM25 keyword leg via reciprocal-rank
// fusion; a failed embedding call degrades to keyword-only, and an empty
// store returns nil. Ordering is deterministic for identical input:
// fused score descending, ties broken by index insertion order.
func (s *Store) Search(ctx context.Context, query string, k int) []Candidate {
	if len(s.entries) == 0 || k <= 0 {
		return nil
	}

	vecRanks := s.vectorRanks(ctx, query, k)
	kwRanks := s.keywordRanks(query, k)
	if len(vecRanks) == 0 && len(kwRanks) == 0 {
		return nil
	}

	fused := make(map[int]float64)
	add := func(ranks []int) {
		for rank, id := range ranks {
			fused[id] += 1.0 / float64(rrfK+rank+1)
		}
	}
	add(vecRanks)
	add(kwRanks)

	ids := make([]int, 0, len(fused))
	for id := range fused {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool {
		if fused[ids[i]] != fused[ids[j]] {
			return fused[ids[i]] > fused[ids[j]]
		}
		return ids[i] < ids[j]
	})

	if len(ids) > k {
		ids = ids[:k]
	}
	out := make([]Candidate, 0, len(ids))
	for _, id := range ids {
		out = append(out, Candidate{
			Category: s.entries[id].Category,
			Entry:    s.entries[id],
			Score:    fused[id],
		})
	}
	return out
}

// vectorRanks returns entry ids ordered by cosine similarity to the query.
func (s *Store) vectorRanks(ctx context.Context, query string, k int) []int {
	if s.embedder == nil {
		return nil
	}
	vecs, err := s.embedder.CreateEmbedding(ctx, []string{query})
	if err != nil || len(vecs) == 0 {
		s.logger.Printf("query embedding failed, keyword-only search: %v", err)
		return nil
	}
	q := vecs[0]

	type scored struct {
		id    int
		score float64
	}
	all := make([]scored, 0, len(s.entries))
	for i, e := range s.entries {
		all = append(all, scored{id: i, score: Cosine(q, e.Vector)})
	}
	sort.Slice(all, func(i, j int) bool {
		if all[i].score != all[j].score {
			return all[i].score > all[j].score
		}
		return all[i].id < all[j].id
	})
	if len(all) > k {
		all = all[:k]
	}
	out := make([]int, len(all))
	for i, sc := range all {
		out[i] = sc.id
	}
	return out
}

// keywordRanks returns entry ids ordered by BM25 relevance.
func (s *Store) keywordRanks(query string, k int) []int {
	mq := bleve.NewMatchQuery(query)
	req := bleve.NewSearchRequestOptions(mq, k, 0, false)
	res, err := s.keyword.Search(req)
	if err != nil {
		s.logger.Printf("keyword search failed: %v", err)
		return nil
	}
	out := make([]int, 0, len(res.Hits))
	for _, hit := range res.Hits {
		id, err := strconv.Atoi(hit.ID)
		if err != nil {
			continue
		}
		out = append(out, id)
	}
	return out
}

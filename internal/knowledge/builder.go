package knowledge

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"log"
	"os"
)

// Builder produces the semantic index consumed by Load. It runs offline
// (the `index` subcommand), never at request time.
type Builder struct {
	embedder Embedder
	model    string
	batch    int
	logger   *log.Logger
}

// NewBuilder creates an index builder. model is recorded in the index
// file so a mismatched query-time embedder is diagnosable.
func NewBuilder(embedder Embedder, model string, batch int) *Builder {
	if batch <= 0 {
		batch = 64
	}
	return &Builder{
		embedder: embedder,
		model:    model,
		batch:    batch,
		logger:   log.New(log.Writer(), "[INDEX] ", log.LstdFlags),
	}
}

// Build reads the CSV, drops incomplete rows, embeds the answer passages
// in batches and writes the index file. Returns the entry count.
func (b *Builder) Build(ctx context.Context, csvPath, indexPath string) (int, error) {
	f, err := os.Open(csvPath)
	if err != nil {
		return 0, fmt.Errorf("open knowledge csv: %w", err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1
	header, err := r.Read()
	if err != nil {
		return 0, fmt.Errorf("read header: %w", err)
	}
	qCol, ansCol, catCol := -1, -1, -1
	for i, name := range header {
		switch name {
		case "question":
			qCol = i
		case "answer":
			ansCol = i
		case "focus_area":
			catCol = i
		}
	}
	if qCol < 0 || ansCol < 0 || catCol < 0 {
		return 0, fmt.Errorf("%w: need question, answer and focus_area", ErrMissingColumns)
	}

	var entries []IndexEntry
	dropped := 0
	for {
		row, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return 0, fmt.Errorf("read row: %w", err)
		}
		if qCol >= len(row) || ansCol >= len(row) || catCol >= len(row) ||
			row[qCol] == "" || row[ansCol] == "" || row[catCol] == "" {
			dropped++
			continue
		}
		entries = append(entries, IndexEntry{Text: row[ansCol], Category: row[catCol]})
	}
	b.logger.Printf("loaded %d rows (%d dropped as incomplete)", len(entries), dropped)

	for start := 0; start < len(entries); start += b.batch {
		end := start + b.batch
		if end > len(entries) {
			end = len(entries)
		}
		texts := make([]string, 0, end-start)
		for _, e := range entries[start:end] {
			texts = append(texts, e.Text)
		}
		vecs, err := b.embedder.CreateEmbedding(ctx, texts)
		if err != nil {
			return 0, fmt.Errorf("embed batch at %d: %w", start, err)
		}
		if len(vecs) != len(texts) {
			return 0, fmt.Errorf("embed batch at %d: got %d vectors for %d texts", start, len(vecs), len(texts))
		}
		for i := range vecs {
			entries[start+i].Vector = vecs[i]
		}
		b.logger.Printf("embedded %d/%d", end, len(entries))
	}

	if err := SaveIndex(indexPath, b.model, entries); err != nil {
		return 0, err
	}
	return len(entries), nil
}

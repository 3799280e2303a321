package knowledge

import (
	"encoding/json"
	"fmt"
	"math"
	"os"
)

// IndexEntry is one row of the prebuilt semantic index: a reference
// passage, the category it belongs to, and its embedding vector.
// Entries are immutable after the offline build step.
type IndexEntry struct {
	Text     string    `json:"text"`
	Category string    `json:"category"`
	Vector   []float32 `json:"vector"`
}

type indexFile struct {
	EmbeddingModel string       `json:"embedding_model"`
	Entries        []IndexEntry `json:"entries"`
}

// LoadIndex reads a semantic index produced by the offline builder.
func LoadIndex(path string) ([]IndexEntry, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read index: %w", err)
	}
	var f indexFile
	if err := json.Unmarshal(raw, &f); err != nil {
		return nil, fmt.Errorf("decode index: %w", err)
	}
	return f.Entries, nil
}

// SaveIndex writes a semantic index for later consumption by Load.
func SaveIndex(path, embeddingModel string, entries []IndexEntry) error {
	raw, err := json.Marshal(indexFile{EmbeddingModel: embeddingModel, Entries: entries})
	if err != nil {
		return fmt.Errorf("encode index: %w", err)
	}
	if err := os.WriteFile(path, raw, 0o644); err != nil {
		return fmt.Errorf("write index: %w", err)
	}
	return nil
}

// Cosine is the similarity measure used for both retrieval ranking and
// answer-quality scoring.
func Cosine(a, b []float32) float64 {
	var dot, na, nb float64
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	for i := 0; i < n; i++ {
		ai := float64(a[i])
		bi := float64(b[i])
		dot += ai * bi
		na += ai * ai
		nb += bi * bi
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}

package knowledge

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
)

type fakeEmbedder struct {
	vectors map[string][]float32
	err     error
}

func (f *fakeEmbedder) CreateEmbedding(_ context.Context, texts []string) ([][]float32, error) {
	if f.err != nil {
		return nil, f.err
	}
	out := make([][]float32, len(texts))
	for i, t := range texts {
		v, ok := f.vectors[t]
		if !ok {
			v = []float32{0, 0, 1}
		}
		out[i] = v
	}
	return out, nil
}

func writeCSV(t *testing.T, contents string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "medquad.csv")
	if err := os.WriteFile(path, []byte(contents), 0o644); err != nil {
		t.Fatalf("write csv: %v", err)
	}
	return path
}

func TestLoadAnswers(t *testing.T) {
	path := writeCSV(t, "question,answer,focus_area\n"+
		"What is diabetes?,A chronic condition affecting blood sugar.,Diabetes\n"+
		"What causes diabetes?,Insulin resistance or deficiency.,Diabetes\n"+
		"incomplete,,Diabetes\n"+
		"What is asthma?,A chronic airway disease.,Asthma\n")

	answers, err := loadAnswers(path)
	if err != nil {
		t.Fatalf("loadAnswers: %v", err)
	}
	if len(answers["Diabetes"]) != 2 {
		t.Fatalf("expected 2 Diabetes passages, got %d", len(answers["Diabetes"]))
	}
	if len(answers["Asthma"]) != 1 {
		t.Fatalf("expected 1 Asthma passage, got %d", len(answers["Asthma"]))
	}
}

func TestLoadAnswersMissingColumns(t *testing.T) {
	path := writeCSV(t, "question,reply\nq,a\n")
	_, err := loadAnswers(path)
	if !errors.Is(err, ErrMissingColumns) {
		t.Fatalf("expected ErrMissingColumns, got %v", err)
	}
}

func TestLoadAnswersUnreadable(t *testing.T) {
	if _, err := loadAnswers(filepath.Join(t.TempDir(), "absent.csv")); err == nil {
		t.Fatal("expected error for missing file")
	}
}

func testEntries() []IndexEntry {
	return []IndexEntry{
		{Text: "Chest pain and pressure radiating to the arm.", Category: "Heart Attack", Vector: []float32{1, 0, 0}},
		{Text: "Wheezing and shortness of breath at night.", Category: "Asthma", Vector: []float32{0, 1, 0}},
		{Text: "Elevated blood sugar and frequent thirst.", Category: "Diabetes", Vector: []float32{0, 0, 1}},
	}
}

func TestSearchRanksClosestVectorFirst(t *testing.T) {
	emb := &fakeEmbedder{vectors: map[string][]float32{
		"crushing chest pain": {0.9, 0.1, 0},
	}}
	st, err := NewFromData(map[string][]string{}, testEntries(), emb)
	if err != nil {
		t.Fatalf("NewFromData: %v", err)
	}

	got := st.Search(context.Background(), "crushing chest pain", 2)
	if len(got) == 0 {
		t.Fatal("expected candidates")
	}
	if got[0].Category != "Heart Attack" {
		t.Fatalf("expected Heart Attack first, got %s", got[0].Category)
	}
	if len(got) > 2 {
		t.Fatalf("expected at most 2 candidates, got %d", len(got))
	}
}

func TestSearchDeterministic(t *testing.T) {
	emb := &fakeEmbedder{vectors: map[string][]float32{"thirst": {0, 0, 1}}}
	st, err := NewFromData(map[string][]string{}, testEntries(), emb)
	if err != nil {
		t.Fatalf("NewFromData: %v", err)
	}
	first := st.Search(context.Background(), "thirst", 3)
	for i := 0; i < 5; i++ {
		again := st.Search(context.Background(), "thirst", 3)
		if len(again) != len(first) {
			t.Fatalf("run %d: length changed from %d to %d", i, len(first), len(again))
		}
		for j := range again {
			if again[j].Category != first[j].Category {
				t.Fatalf("run %d: position %d changed from %s to %s", i, j, first[j].Category, again[j].Category)
			}
		}
	}
}

func TestSearchDegradesToKeywordOnEmbedFailure(t *testing.T) {
	emb := &fakeEmbedder{err: errors.New("embedding service down")}
	st, err := NewFromData(map[string][]string{}, testEntries(), emb)
	if err != nil {
		t.Fatalf("NewFromData: %v", err)
	}
	got := st.Search(context.Background(), "wheezing shortness breath", 3)
	if len(got) == 0 {
		t.Fatal("expected keyword-only candidates")
	}
	if got[0].Category != "Asthma" {
		t.Fatalf("expected Asthma first, got %s", got[0].Category)
	}
}

func TestSearchEmptyStore(t *testing.T) {
	st := NewEmpty()
	if got := st.Search(context.Background(), "anything", 5); got != nil {
		t.Fatalf("expected nil, got %v", got)
	}
	if got := st.Lookup("Diabetes"); got != nil {
		t.Fatalf("expected nil lookup, got %v", got)
	}
}

func TestIndexRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "index.json")
	entries := testEntries()
	if err := SaveIndex(path, "test-model", entries); err != nil {
		t.Fatalf("SaveIndex: %v", err)
	}
	got, err := LoadIndex(path)
	if err != nil {
		t.Fatalf("LoadIndex: %v", err)
	}
	if len(got) != len(entries) {
		t.Fatalf("expected %d entries, got %d", len(entries), len(got))
	}
	if got[2].Category != "Diabetes" {
		t.Fatalf("expected Diabetes, got %s", got[2].Category)
	}
}

func TestBuilderBuild(t *testing.T) {
	csvPath := writeCSV(t, "question,answer,focus_area\n"+
		"q1,Answer about hearts.,Heart Attack\n"+
		"q2,,Asthma\n"+
		"q3,Answer about lungs.,Asthma\n")
	indexPath := filepath.Join(t.TempDir(), "index.json")

	emb := &fakeEmbedder{vectors: map[string][]float32{
		"Answer about hearts.": {1, 0, 0},
		"Answer about lungs.":  {0, 1, 0},
	}}
	b := NewBuilder(emb, "test-model", 1)
	n, err := b.Build(context.Background(), csvPath, indexPath)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if n != 2 {
		t.Fatalf("expected 2 entries (1 dropped), got %d", n)
	}

	entries, err := LoadIndex(indexPath)
	if err != nil {
		t.Fatalf("LoadIndex: %v", err)
	}
	if entries[0].Vector[0] != 1 {
		t.Fatalf("expected embedded vector, got %v", entries[0].Vector)
	}
}

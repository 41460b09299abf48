package retrieval

import (
	"context"
	"errors"
	"strings"
	"testing"
)

type fixedEmbedder struct {
	vectors map[string][]float32
	err     error
}

func (f fixedEmbedder) Embed(_ context.Context, text string) ([]float32, error) {
	if f.err != nil {
		return nil, f.err
	}
	if v, ok := f.vectors[text]; ok {
		return v, nil
	}
	return []float32{0, 0, 0}, nil
}

func TestIndex_EmptyReturnsEmptyContext(t *testing.T) {
	ix, err := Build(context.Background(), NewHashEmbedder(), nil)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if got := ix.Context(context.Background(), "anything"); got != "" {
		t.Errorf("got %q, want empty", got)
	}

	var nilIndex *Index
	if got := nilIndex.Context(context.Background(), "anything"); got != "" {
		t.Errorf("nil index got %q, want empty", got)
	}
}

func TestIndex_SkipsBlankDocuments(t *testing.T) {
	ix, err := Build(context.Background(), NewHashEmbedder(), []Document{
		{Text: "real passage"},
		{Text: "   "},
		{Text: ""},
	})
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if ix.Len() != 1 {
		t.Errorf("Len = %d, want 1", ix.Len())
	}
}

func TestIndex_RanksBySimilarity(t *testing.T) {
	emb := fixedEmbedder{vectors: map[string][]float32{
		"go services":    {1, 0, 0},
		"java beans":     {0, 1, 0},
		"ruby gems":      {0, 0, 1},
		"golang backend": {0.9, 0.1, 0},
	}}
	ix, err := Build(context.Background(), emb, []Document{
		{Text: "java beans"},
		{Text: "golang backend"},
		{Text: "ruby gems"},
	})
	if err != nil {
		t.Fatalf("Build: %v", err)
	}

	got := ix.Context(context.Background(), "go services")
	parts := strings.Split(got, "\n\n")
	if len(parts) != 3 {
		t.Fatalf("got %d passages, want 3: %q", len(parts), got)
	}
	if parts[0] != "golang backend" {
		t.Errorf("top passage = %q, want %q", parts[0], "golang backend")
	}
}

func TestIndex_CapsAtTopK(t *testing.T) {
	docs := []Document{
		{Text: "alpha one"}, {Text: "alpha two"}, {Text: "alpha three"},
		{Text: "alpha four"}, {Text: "alpha five"}, {Text: "alpha six"},
	}
	ix, err := Build(context.Background(), NewHashEmbedder(), docs)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}

	got := ix.Context(context.Background(), "alpha")
	if n := len(strings.Split(got, "\n\n")); n != TopK {
		t.Errorf("got %d passages, want %d", n, TopK)
	}
}

func TestIndex_QueryEmbedFailureIsBestEffort(t *testing.T) {
	ix, err := Build(context.Background(), NewHashEmbedder(), []Document{{Text: "passage"}})
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	ix.embedder = fixedEmbedder{err: errors.New("quota exhausted")}
	if got := ix.Context(context.Background(), "query"); got != "" {
		t.Errorf("got %q, want empty on embed failure", got)
	}
}

func TestIndex_BuildFailsOnEmbedError(t *testing.T) {
	_, err := Build(context.Background(), fixedEmbedder{err: errors.New("bad key")}, []Document{{Text: "passage"}})
	if err == nil {
		t.Fatal("expected error")
	}
}

func TestHashEmbedder_Deterministic(t *testing.T) {
	h := NewHashEmbedder()
	a, _ := h.Embed(context.Background(), "Tell me about Go")
	b, _ := h.Embed(context.Background(), "Tell me about Go")
	if len(a) != hashDimensions || len(b) != hashDimensions {
		t.Fatalf("unexpected dimensions %d/%d", len(a), len(b))
	}
	for i := range a {
		if a[i] != b[i] {
			t.Fatalf("vectors differ at %d", i)
		}
	}
}

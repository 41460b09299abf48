// Package retrieval builds a per-session semantic index over corpus documents
// and answers top-k similarity queries for prompt context.
package retrieval

import (
	"context"
	"fmt"
	"math"
	"sort"
	"strings"
)

// TopK is the fixed number of passages returned per query.
const TopK = 4

// Document is one corpus passage with arbitrary metadata.
type Document struct {
	Text     string
	Metadata map[string]any
}

// Embedder produces an embedding vector for one text.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

type entry struct {
	doc    Document
	vector []float32
}

// Index is a session-scoped similarity index. It is built once at session
// start and never mutated afterwards; queries are read-only.
type Index struct {
	embedder Embedder
	entries  []entry
}

// Build embeds every document and returns a queryable index. Documents with
// empty text are skipped. An index over zero documents is valid; its queries
// return empty context.
func Build(ctx context.Context, embedder Embedder, docs []Document) (*Index, error) {
	ix := &Index{embedder: embedder}
	for i, doc := range docs {
		if strings.TrimSpace(doc.Text) == "" {
			continue
		}
		vec, err := embedder.Embed(ctx, doc.Text)
		if err != nil {
			return nil, fmt.Errorf("embed document %d: %w", i, err)
		}
		ix.entries = append(ix.entries, entry{doc: doc, vector: vec})
	}
	return ix, nil
}

// Len returns the number of indexed documents.
func (ix *Index) Len() int {
	if ix == nil {
		return 0
	}
	return len(ix.entries)
}

// Context returns the top-k most similar passages to the query, concatenated
// in ranked order. An empty index or an embedding failure yields the empty
// string; context retrieval is always best-effort.
func (ix *Index) Context(ctx context.Context, query string) string {
	if ix == nil || len(ix.entries) == 0 {
		return ""
	}

	qvec, err := ix.embedder.Embed(ctx, query)
	if err != nil {
		return ""
	}

	type scored struct {
		text  string
		score float64
	}
	results := make([]scored, 0, len(ix.entries))
	for _, e := range ix.entries {
		results = append(results, scored{text: e.doc.Text, score: cosine(qvec, e.vector)})
	}
	sort.SliceStable(results, func(i, j int) bool { return results[i].score > results[j].score })

	k := TopK
	if k > len(results) {
		k = len(results)
	}
	texts := make([]string, 0, k)
	for _, r := range results[:k] {
		texts = append(texts, r.text)
	}
	return strings.Join(texts, "\n\n")
}

func cosine(a, b []float32) float64 {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	var dot, na, nb float64
	for i := 0; i < n; i++ {
		dot += float64(a[i]) * float64(b[i])
		na += float64(a[i]) * float64(a[i])
		nb += float64(b[i]) * float64(b[i])
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}

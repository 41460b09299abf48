package retrieval

import (
	"context"
	"hash/fnv"
	"strings"
	"unicode"
)

const hashDimensions = 256

// HashEmbedder is a deterministic, dependency-free embedder based on hashed
// token counts. It exists so sessions still get lexical-overlap retrieval when
// no embedding credential is configured; it is not a semantic model.
type HashEmbedder struct{}

// NewHashEmbedder returns the fallback embedder.
func NewHashEmbedder() *HashEmbedder { return &HashEmbedder{} }

// Embed maps the text's tokens into a fixed-size bag-of-words vector.
func (h *HashEmbedder) Embed(_ context.Context, text string) ([]float32, error) {
	vec := make([]float32, hashDimensions)
	for _, token := range tokenize(text) {
		hasher := fnv.New32a()
		hasher.Write([]byte(token))
		vec[hasher.Sum32()%hashDimensions]++
	}
	return vec, nil
}

func tokenize(text string) []string {
	return strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}

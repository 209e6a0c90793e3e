// Package encoder provides the embedding services behind hybrid retrieval:
// a remote dense sentence encoder with lazy singleton initialisation, a
// deterministic fallback vector generator for when the remote encoder is
// absent, and a term-frequency sparse encoder fit on the catalog corpus.
package encoder

import (
	"crypto/sha256"
	"encoding/hex"
	"math"
	"math/rand/v2"
	"strconv"
)

// DefaultDimension is the embedding width of the default sentence encoder.
const DefaultDimension = 384

// DeterministicVector generates a pseudo-random unit vector seeded from the
// SHA-256 of text.  The same text always yields the same vector, so
// retrieval stays reproducible when no real encoder is available.  The seed
// is the first 16 hex characters of the digest interpreted as an unsigned
// 64-bit integer.
func DeterministicVector(text string, dim int) []float32 {
	if dim <= 0 {
		dim = DefaultDimension
	}

	digest := sha256.Sum256([]byte(text))
	seed, err := strconv.ParseUint(hex.EncodeToString(digest[:])[:16], 16, 64)
	if err != nil {
		// Unreachable for hex input; keep the vector well-defined anyway.
		seed = 0
	}

	rng := rand.New(rand.NewPCG(seed, seed))
	vec := make([]float32, dim)
	var sumSquares float64
	for i := range vec {
		v := rng.Float64()
		vec[i] = float32(v)
		sumSquares += v * v
	}

	norm := math.Sqrt(sumSquares)
	if norm == 0 {
		return vec
	}
	for i := range vec {
		vec[i] = float32(float64(vec[i]) / norm)
	}
	return vec
}

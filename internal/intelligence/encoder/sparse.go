package encoder

import (
	"strings"
	"sync"

	apperrors "github.com/turtacn/RxMatch-Intelligence/pkg/errors"
)

// TermFrequencyEncoder produces lexical sparse vectors over a vocabulary fit
// on the catalog corpus.  Query terms outside the vocabulary are dropped;
// weights are term frequency within the query scaled by a simple inverse
// document frequency, which is enough lexical signal for a top-1 hybrid
// query.
//
// Fit may be called again after a catalog reload; EncodeQuery is safe for
// concurrent use with Fit.
type TermFrequencyEncoder struct {
	mu      sync.RWMutex
	vocab   map[string]uint32
	docFreq []int
	docs    int
}

// NewTermFrequencyEncoder returns an unfit encoder.  EncodeQuery reports
// unavailability until Fit has seen a non-empty corpus.
func NewTermFrequencyEncoder() *TermFrequencyEncoder {
	return &TermFrequencyEncoder{}
}

// Fit builds the vocabulary and document frequencies from the corpus, one
// string per catalog record.
func (e *TermFrequencyEncoder) Fit(corpus []string) {
	vocab := make(map[string]uint32)
	var docFreq []int
	docs := 0

	for _, doc := range corpus {
		terms := tokenize(doc)
		if len(terms) == 0 {
			continue
		}
		docs++
		seen := make(map[string]bool, len(terms))
		for _, t := range terms {
			if seen[t] {
				continue
			}
			seen[t] = true
			idx, ok := vocab[t]
			if !ok {
				idx = uint32(len(docFreq))
				vocab[t] = idx
				docFreq = append(docFreq, 0)
			}
			docFreq[idx]++
		}
	}

	e.mu.Lock()
	e.vocab = vocab
	e.docFreq = docFreq
	e.docs = docs
	e.mu.Unlock()
}

// EncodeQuery returns the sparse coordinate representation of text.  An
// unfit encoder or a query with no in-vocabulary terms yields an
// unavailability error so the caller skips the sparse component.
func (e *TermFrequencyEncoder) EncodeQuery(text string) ([]uint32, []float32, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()

	if e.docs == 0 {
		return nil, nil, apperrors.New(apperrors.ErrCodeEncoderUnavailable, "sparse encoder not fit")
	}

	counts := make(map[uint32]int)
	for _, t := range tokenize(text) {
		if idx, ok := e.vocab[t]; ok {
			counts[idx]++
		}
	}
	if len(counts) == 0 {
		return nil, nil, apperrors.New(apperrors.ErrCodeEncoderUnavailable, "query has no in-vocabulary terms")
	}

	indices := make([]uint32, 0, len(counts))
	for idx := range counts {
		indices = append(indices, idx)
	}
	sortUint32(indices)

	values := make([]float32, len(indices))
	for i, idx := range indices {
		tf := float32(counts[idx])
		idf := float32(e.docs+1) / float32(e.docFreq[idx]+1)
		values[i] = tf * idf
	}
	return indices, values, nil
}

func tokenize(s string) []string {
	return strings.Fields(strings.ToLower(s))
}

// sortUint32 is a minimal insertion sort; vocab hits per query are tiny.
func sortUint32(a []uint32) {
	for i := 1; i < len(a); i++ {
		for j := i; j > 0 && a[j-1] > a[j]; j-- {
			a[j-1], a[j] = a[j], a[j-1]
		}
	}
}

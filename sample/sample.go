// Package sample picks the rows written to the output matrix.
//
// The default sampler draws with replacement, so a row may be emitted more
// than once when fewer rows than available are requested:
//
//	s := sample.WithReplacement(sample.NewSource(42))
//	rows = sample.Select(rows, 100, s)
package sample

import (
	"fmt"
	"time"

	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/stat/sampleuv"
)

// Sampler draws k row indices from [0, n).
type Sampler interface {
	Indices(n, k int) []int
}

// NewSource returns a random source for seed. A zero seed is replaced by
// the current time.
func NewSource(seed uint64) rand.Source {
	if seed == 0 {
		seed = uint64(time.Now().UnixNano())
	}
	return rand.NewSource(seed)
}

type withReplacement struct {
	rnd *rand.Rand
}

// WithReplacement returns a sampler drawing k independent uniform indices.
// Indices come back in draw order and may repeat.
func WithReplacement(src rand.Source) Sampler {
	return &withReplacement{rnd: rand.New(src)}
}

func (s *withReplacement) Indices(n, k int) []int {
	if n <= 0 || k <= 0 {
		return []int{}
	}
	idx := make([]int, k)
	for i := range idx {
		idx[i] = s.rnd.Intn(n)
	}
	return idx
}

type withoutReplacement struct {
	src rand.Source
}

// WithoutReplacement returns a sampler drawing k distinct indices.
// k is capped at n.
func WithoutReplacement(src rand.Source) Sampler {
	return &withoutReplacement{src: src}
}

func (s *withoutReplacement) Indices(n, k int) []int {
	if k > n {
		k = n
	}
	if n <= 0 || k <= 0 {
		return []int{}
	}
	idx := make([]int, k)
	sampleuv.WithoutReplacement(idx, n, s.src)
	return idx
}

// Select returns the rows to emit. When k >= len(rows) every row is kept in
// its original order and s is not consulted. Otherwise the rows at the
// indices drawn by s are returned in draw order. Row slices are shared
// with the input.
func Select(rows [][]float64, k int, s Sampler) [][]float64 {
	n := len(rows)
	if k >= n {
		return rows
	}
	idx := s.Indices(n, k)
	out := make([][]float64, len(idx))
	for i, j := range idx {
		if j < 0 || j >= n {
			panic(fmt.Sprintf("sample: index %d out of range [0, %d)", j, n))
		}
		out[i] = rows[j]
	}
	return out
}

// Package generate builds the synthetic columns of the benchmark dataset.
package generate

import (
	"context"
	"math/rand/v2"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/memory"

	"github.com/VanDung-dev/speedtest-dataset/wordlist"
)

// cancelCheckInterval is how many rows are produced between context checks.
const cancelCheckInterval = 1 << 16

// Int64Uniform returns n integers drawn uniformly from [lo, hi).
func Int64Uniform(ctx context.Context, mem memory.Allocator, r *rand.Rand, n int, lo, hi int64) (arrow.Array, error) {
	b := array.NewInt64Builder(mem)
	defer b.Release()
	b.Reserve(n)

	span := hi - lo
	for i := 0; i < n; i++ {
		if i%cancelCheckInterval == 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}
		b.UnsafeAppend(lo + r.Int64N(span))
	}
	return b.NewArray(), nil
}

// Float64Normal returns n standard normal samples shifted by shift.
func Float64Normal(ctx context.Context, mem memory.Allocator, r *rand.Rand, n int, shift float64) (arrow.Array, error) {
	b := array.NewFloat64Builder(mem)
	defer b.Release()
	b.Reserve(n)

	for i := 0; i < n; i++ {
		if i%cancelCheckInterval == 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}
		b.UnsafeAppend(r.NormFloat64() + shift)
	}
	return b.NewArray(), nil
}

// StringChoice returns n words drawn uniformly, with replacement, from words.
func StringChoice(ctx context.Context, mem memory.Allocator, r *rand.Rand, n int, words wordlist.WordList) (arrow.Array, error) {
	if len(words) == 0 {
		return nil, wordlist.ErrEmptyWordList
	}

	b := array.NewStringBuilder(mem)
	defer b.Release()
	b.Reserve(n)

	for i := 0; i < n; i++ {
		if i%cancelCheckInterval == 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}
		b.Append(words[r.IntN(len(words))])
	}
	return b.NewArray(), nil
}

// BoolThreshold returns n booleans, true when a uniform [0, 1) sample exceeds threshold.
func BoolThreshold(ctx context.Context, mem memory.Allocator, r *rand.Rand, n int, threshold float64) (arrow.Array, error) {
	b := array.NewBooleanBuilder(mem)
	defer b.Release()
	b.Reserve(n)

	for i := 0; i < n; i++ {
		if i%cancelCheckInterval == 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}
		b.UnsafeAppend(r.Float64() > threshold)
	}
	return b.NewArray(), nil
}

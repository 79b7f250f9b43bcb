package training

import (
	"context"
	"math"
	"math/rand"
	"sync"
)

// SampleStore collects protocol feature vectors for later retrains.
type SampleStore interface {
	Add(ctx context.Context, vector []float64) error
	List(ctx context.Context) ([][]float64, error)
}

// MemoryBuffer is a bounded in-process SampleStore that keeps the newest
// vectors.
type MemoryBuffer struct {
	mu       sync.Mutex
	capacity int
	items    [][]float64
	next     int
	full     bool
}

func NewMemoryBuffer(capacity int) *MemoryBuffer {
	if capacity <= 0 {
		capacity = 5000
	}
	return &MemoryBuffer{capacity: capacity, items: make([][]float64, capacity)}
}

func (b *MemoryBuffer) Add(_ context.Context, vector []float64) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.items[b.next] = append([]float64(nil), vector...)
	b.next = (b.next + 1) % b.capacity
	if b.next == 0 {
		b.full = true
	}
	return nil
}

// List returns the buffered vectors oldest first.
func (b *MemoryBuffer) List(_ context.Context) ([][]float64, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if !b.full {
		out := make([][]float64, b.next)
		copy(out, b.items[:b.next])
		return out, nil
	}
	out := make([][]float64, 0, b.capacity)
	out = append(out, b.items[b.next:]...)
	out = append(out, b.items[:b.next]...)
	return out, nil
}

type syntheticColumn struct {
	mean, std float64
}

// Column order matches features.ProtocolNames.
var syntheticColumns = []syntheticColumn{
	{mean: 5_000_000, std: 2_000_000},
	{mean: 500_000, std: 200_000},
	{mean: 30, std: 10},
	{mean: 0.6, std: 0.15},
	{mean: 25_000, std: 10_000},
}

// SyntheticSamples draws n protocol vectors from fixed per-column normal
// distributions, floored at zero. The same seed yields the same dataset.
func SyntheticSamples(n int, seed int64) [][]float64 {
	rng := rand.New(rand.NewSource(seed))
	out := make([][]float64, n)
	for i := range out {
		row := make([]float64, len(syntheticColumns))
		for j, col := range syntheticColumns {
			row[j] = math.Max(0, col.mean+rng.NormFloat64()*col.std)
		}
		out[i] = row
	}
	return out
}

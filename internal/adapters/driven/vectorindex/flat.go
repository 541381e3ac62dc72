package vectorindex

import (
	"container/heap"
	"math"

	"github.com/RoaringBitmap/roaring/v2"
)

// flat is an append-only inner-product index. Removal is expressed by
// clearing a position from live; the vector data stays until the next
// rebuild.
type flat struct {
	dim  int
	data []float32 // position*dim .. position*dim+dim
	ids  []string  // position -> chunk id
	pos  map[string]uint32
	live *roaring.Bitmap
}

func newFlat(dim, capacity int) *flat {
	return &flat{
		dim:  dim,
		data: make([]float32, 0, capacity*dim),
		ids:  make([]string, 0, capacity),
		pos:  make(map[string]uint32, capacity),
		live: roaring.New(),
	}
}

// add appends an already normalised vector. A chunk id seen before has its
// old slot unmapped so only the newest vector is searchable.
func (f *flat) add(chunkID string, vec []float32) {
	if old, ok := f.pos[chunkID]; ok {
		f.live.Remove(old)
	}
	p := uint32(len(f.ids))
	f.data = append(f.data, vec...)
	f.ids = append(f.ids, chunkID)
	f.pos[chunkID] = p
	f.live.Add(p)
}

// len returns the number of searchable vectors.
func (f *flat) len() int {
	return int(f.live.GetCardinality())
}

type candidate struct {
	pos   uint32
	score float64
}

// minHeap keeps the k best candidates with the weakest on top.
type minHeap []candidate

func (h minHeap) Len() int { return len(h) }
func (h minHeap) Less(i, j int) bool {
	if h[i].score == h[j].score {
		return h[i].pos > h[j].pos
	}
	return h[i].score < h[j].score
}
func (h minHeap) Swap(i, j int) { h[i], h[j] = h[j], h[i] }
func (h *minHeap) Push(x any)   { *h = append(*h, x.(candidate)) }
func (h *minHeap) Pop() any {
	old := *h
	n := len(old)
	item := old[n-1]
	*h = old[:n-1]
	return item
}

// search returns up to k positions by descending inner product. Ties go to
// the earlier position.
func (f *flat) search(query []float32, k int) []candidate {
	if k <= 0 || f.live.IsEmpty() {
		return nil
	}

	h := make(minHeap, 0, k)
	it := f.live.Iterator()
	for it.HasNext() {
		p := it.Next()
		c := candidate{pos: p, score: dot(query, f.data[int(p)*f.dim:int(p)*f.dim+f.dim])}
		if h.Len() < k {
			heap.Push(&h, c)
			continue
		}
		if better(c, h[0]) {
			h[0] = c
			heap.Fix(&h, 0)
		}
	}

	out := make([]candidate, h.Len())
	for i := len(out) - 1; i >= 0; i-- {
		out[i] = heap.Pop(&h).(candidate)
	}
	return out
}

func better(a, b candidate) bool {
	if a.score == b.score {
		return a.pos < b.pos
	}
	return a.score > b.score
}

func dot(a, b []float32) float64 {
	var sum float64
	for i := range a {
		sum += float64(a[i]) * float64(b[i])
	}
	return sum
}

// normalize returns a unit-length copy of v. A zero vector stays zero.
func normalize(v []float32) []float32 {
	var sum float64
	for _, x := range v {
		sum += float64(x) * float64(x)
	}
	out := make([]float32, len(v))
	if sum == 0 {
		return out
	}
	inv := 1 / math.Sqrt(sum)
	for i, x := range v {
		out[i] = float32(float64(x) * inv)
	}
	return out
}

package blobstore

// freePageHeap is a min-heap of recycled page identifiers, biasing
// reuse toward the low end of the identifier space so the active page
// set stays compact instead of spreading across ever-higher ids. It
// implements container/heap.Interface.
type freePageHeap []uint32

func (h freePageHeap) Len() int            { return len(h) }
func (h freePageHeap) Less(i, j int) bool  { return h[i] < h[j] }
func (h freePageHeap) Swap(i, j int)       { h[i], h[j] = h[j], h[i] }
func (h *freePageHeap) Push(x interface{}) { *h = append(*h, x.(uint32)) }

func (h *freePageHeap) Pop() interface{} {
	old := *h
	n := len(old)
	v := old[n-1]
	*h = old[:n-1]
	return v
}

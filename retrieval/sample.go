package retrieval

import "sync"

// querySample records the outcome of one served query for drift tracking.
type querySample struct {
	query         string
	topSimilarity float32
}

// sampleRing is a bounded ring of recent query samples. Writes overwrite
// the oldest entry once the ring is full.
type sampleRing struct {
	mu      sync.Mutex
	samples []querySample
	next    int
	full    bool
}

func newSampleRing(size int) *sampleRing {
	if size < 1 {
		size = 1
	}
	return &sampleRing{samples: make([]querySample, size)}
}

func (r *sampleRing) Add(sample querySample) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.samples[r.next] = sample
	r.next++
	if r.next == len(r.samples) {
		r.next = 0
		r.full = true
	}
}

// Snapshot returns a copy of the recorded samples, oldest first not
// guaranteed; order is irrelevant to the mean.
func (r *sampleRing) Snapshot() []querySample {
	r.mu.Lock()
	defer r.mu.Unlock()

	n := r.next
	if r.full {
		n = len(r.samples)
	}
	out := make([]querySample, n)
	copy(out, r.samples[:n])
	return out
}

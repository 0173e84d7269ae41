package output

import "sync"

const defaultHistory = 1024

// Recorder is a host-side PWM that keeps the sequence of distinct duties
// written to it (consecutive repeats are folded).
type Recorder struct {
	mu      sync.Mutex
	top     uint32
	last    uint32
	written bool
	hist    []uint32
	limit   int
}

// NewRecorder returns a recorder with the given top; top==0 means MaxLevel.
func NewRecorder(top uint32) *Recorder {
	if top == 0 {
		top = MaxLevel
	}
	return &Recorder{top: top, limit: defaultHistory}
}

func (r *Recorder) Top() uint32 { return r.top }

func (r *Recorder) Set(duty uint32) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.written && duty == r.last {
		return
	}
	r.written = true
	r.last = duty
	if len(r.hist) == r.limit {
		copy(r.hist, r.hist[1:])
		r.hist = r.hist[:len(r.hist)-1]
	}
	r.hist = append(r.hist, duty)
}

// Last returns the most recent duty, if any.
func (r *Recorder) Last() (uint32, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.last, r.written
}

// History returns a copy of the distinct duties written so far.
func (r *Recorder) History() []uint32 {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]uint32, len(r.hist))
	copy(out, r.hist)
	return out
}

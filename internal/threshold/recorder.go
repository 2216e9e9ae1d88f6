package threshold

import (
	"sync"
)

// Recorder wraps a Thresholder and remembers the last successful result.
// It is safe for concurrent use; concurrent callers observe whichever
// evaluation finished last.
type Recorder struct {
	Thresholder

	mu   sync.RWMutex
	last *Result
}

func NewRecorder(t Thresholder) *Recorder {
	return &Recorder{Thresholder: t}
}

func (r *Recorder) Eval(scores []float64) (Result, error) {
	res, err := r.Thresholder.Eval(scores)
	if err != nil {
		return res, err
	}

	r.mu.Lock()
	r.last = &res
	r.mu.Unlock()
	return res, nil
}

// Last returns the most recent result; ok is false before the first
// successful evaluation.
func (r *Recorder) Last() (Result, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.last == nil {
		return Result{}, false
	}
	return *r.last, true
}

// LastThreshold is the threshold of the most recent result, nil before the
// first evaluation and for procedures without one.
func (r *Recorder) LastThreshold() *float64 {
	res, ok := r.Last()
	if !ok {
		return nil
	}
	return res.Threshold
}

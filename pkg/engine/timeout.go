package engine

import (
	"errors"
	"fmt"
	"time"

	"github.com/chazu/fixturedrc/pkg/drawing"
)

// EvalTimeout is the default limit for one evaluation.
const EvalTimeout = 5 * time.Second

var (
	// ErrTimeout is returned when an evaluation runs past the engine timeout.
	ErrTimeout = errors.New("engine: evaluation timed out")
	// ErrSuperseded is returned for an evaluation that finished after a
	// newer Evaluate call started.
	ErrSuperseded = errors.New("engine: evaluation superseded by newer request")
)

// outcome is what an evaluation goroutine reports back.
type outcome struct {
	drawing *drawing.Drawing
	errs    []EvalError
	err     error
}

func (e *Engine) timeout() time.Duration {
	if e.Timeout > 0 {
		return e.Timeout
	}
	return EvalTimeout
}

// latest returns the generation of the most recent Evaluate call.
func (e *Engine) latest() uint64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.generation
}

// await blocks until the evaluation numbered gen reports on ch or the
// timeout elapses. A timed-out goroutine keeps running; whatever it sends
// later lands in the buffered channel and is never read.
func (e *Engine) await(ch <-chan outcome, gen uint64) (*drawing.Drawing, []EvalError, error) {
	limit := e.timeout()
	timer := time.NewTimer(limit)
	defer timer.Stop()

	select {
	case out := <-ch:
		if e.latest() != gen {
			return nil, nil, ErrSuperseded
		}
		return out.drawing, out.errs, out.err
	case <-timer.C:
		return nil, nil, fmt.Errorf("%w after %s", ErrTimeout, limit)
	}
}

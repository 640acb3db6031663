package autosave

import "context"

// Pending is a handle on a save loop. Every caller that triggers a save while
// the loop runs gets the same handle.
type Pending struct {
	done chan struct{}
	err  error
}

func newPending() *Pending {
	return &Pending{done: make(chan struct{})}
}

// resolved returns a handle that is already complete.
func resolved(err error) *Pending {
	p := newPending()
	p.resolve(err)
	return p
}

func (p *Pending) resolve(err error) {
	p.err = err
	close(p.done)
}

// Done is closed when the loop has finished.
func (p *Pending) Done() <-chan struct{} { return p.done }

// Err returns the error that stopped the loop. It is only meaningful after
// Done is closed.
func (p *Pending) Err() error {
	select {
	case <-p.done:
		return p.err
	default:
		return nil
	}
}

// Wait blocks until the loop finishes or ctx is done. Giving up on the wait
// does not stop the loop.
func (p *Pending) Wait(ctx context.Context) error {
	select {
	case <-p.done:
		return p.err
	case <-ctx.Done():
		return ctx.Err()
	}
}

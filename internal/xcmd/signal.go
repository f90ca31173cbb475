package xcmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"
)

// Interrupted is returned by WaitInterrupted when a termination signal
// arrives.
type Interrupted struct {
	os.Signal
}

func (m Interrupted) Error() string {
	return m.String()
}

// WaitInterrupted blocks until either SIGINT or SIGTERM signal is received or
// the provided context is canceled.
func WaitInterrupted(ctx context.Context) error {
	ch := make(chan os.Signal, 1)

	signal.Notify(ch, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(ch)

	select {
	case v := <-ch:
		return Interrupted{Signal: v}
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Handle calls fn every time one of the given signals is received, until the
// context is canceled.
//
// Always returns the context error.
func Handle(ctx context.Context, fn func(os.Signal), signals ...os.Signal) error {
	ch := make(chan os.Signal, 1)

	signal.Notify(ch, signals...)
	defer signal.Stop(ch)

	for {
		select {
		case v := <-ch:
			fn(v)
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

package events

import (
	"sync"

	"github.com/offlinefirst/keylog/pkg/keys"
)

// Handler receives key notifications. OnRelease returning false ends the
// subscription; true keeps it running.
type Handler interface {
	OnPress(keys.Event)
	OnRelease(keys.Event) bool
}

// Source grants a subscription to key notifications.
type Source interface {
	Name() string
	Subscribe(h Handler) (Subscription, error)
}

// Subscription is a live stream of notifications into a Handler.
type Subscription interface {
	// Wait blocks until delivery ends, either because the handler asked to
	// stop, the source ran dry, or Close was called.
	Wait() error
	// Close halts delivery. It is safe to call more than once.
	Close() error
}

type subscription struct {
	done      chan struct{}
	finished  chan struct{}
	err       error
	release   func() error
	closeOnce sync.Once
	closeErr  error
}

// NewSubscription runs deliver on its own goroutine. deliver must return once
// done is closed or delivery ends; release runs exactly once when the
// subscription closes for any reason.
func NewSubscription(deliver func(done <-chan struct{}) error, release func() error) Subscription {
	s := &subscription{
		done:     make(chan struct{}),
		finished: make(chan struct{}),
		release:  release,
	}
	go func() {
		s.err = deliver(s.done)
		close(s.finished)
		_ = s.Close()
	}()
	return s
}

func (s *subscription) Wait() error {
	select {
	case <-s.finished:
		return s.err
	case <-s.done:
		select {
		case <-s.finished:
			return s.err
		default:
			return nil
		}
	}
}

func (s *subscription) Close() error {
	s.closeOnce.Do(func() {
		close(s.done)
		if s.release != nil {
			s.closeErr = s.release()
		}
	})
	return s.closeErr
}

package core

import (
	"context"
	"errors"
	"time"
)

// Subscribe returns a channel receiving every change applied by the service.
// The channel is closed when ctx is done or the service is closed. Slow
// subscribers miss events once their buffer is full.
func (s *Service) Subscribe(ctx context.Context) <-chan Event {
	s.mu.Lock()
	defer s.mu.Unlock()

	ch := make(chan Event, s.eventBufferSize)
	if s.closed {
		close(ch)
		return ch
	}
	s.subscribers = append(s.subscribers, ch)

	go func() {
		select {
		case <-ctx.Done():
			s.unsubscribe(ch)
		case <-s.done:
		}
	}()
	return ch
}

func (s *Service) unsubscribe(ch chan Event) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, sub := range s.subscribers {
		if sub == ch {
			s.subscribers = append(s.subscribers[:i], s.subscribers[i+1:]...)
			close(ch)
			return
		}
	}
}

// publish fans an event out to subscribers. The caller must hold s.mu.
func (s *Service) publish(t EventType, collection string, id int) {
	if len(s.subscribers) == 0 {
		return
	}
	e := Event{Type: t, Collection: collection, ID: id, Timestamp: time.Now().Unix()}
	for _, ch := range s.subscribers {
		select {
		case ch <- e:
		default:
			s.logger.Warn("event dropped, subscriber buffer full", "event", e.String())
		}
	}
}

// Watch follows changes made to the stored aggregate by other processes,
// reloading the in-memory aggregate on each one. It requires a Watchable
// repository. The returned channel carries the storage events.
func (s *Service) Watch(ctx context.Context) (<-chan Event, error) {
	w, ok := s.repo.(Watchable)
	if !ok {
		return nil, errUnsupported("watch")
	}
	in, err := w.Watch(ctx)
	if err != nil {
		return nil, err
	}

	out := make(chan Event, s.eventBufferSize)
	go func() {
		defer close(out)
		for {
			select {
			case <-ctx.Done():
				return
			case <-s.done:
				return
			case e, ok := <-in:
				if !ok {
					return
				}
				if err := s.Reload(ctx); errors.Is(err, ErrClosed) {
					return
				} else if err != nil {
					s.logger.Error("failed to reload app data after external change", "error", err)
				}
				select {
				case out <- e:
				case <-ctx.Done():
					return
				}
			}
		}
	}()
	return out, nil
}

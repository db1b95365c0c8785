package lifecycle

import (
	"context"
	"slices"

	"github.com/aretw0/lifecycle"

	"github.com/aretw0/daybook/pkg/core"
)

type changeSource struct {
	events      <-chan core.Event
	out         chan lifecycle.Event
	collections []string
}

// SourceOption narrows what a change source emits.
type SourceOption func(*changeSource)

// WithCollections only forwards events for the named collections. Events that
// cover the whole aggregate (reloads, external edits) are always forwarded.
func WithCollections(names ...string) SourceOption {
	return func(s *changeSource) {
		s.collections = append(s.collections, names...)
	}
}

// NewSource exposes a daybook event channel (from Service.Subscribe or
// Service.Watch) as a lifecycle.Source.
func NewSource(events <-chan core.Event, opts ...SourceOption) lifecycle.Source {
	s := &changeSource{
		events: events,
		out:    make(chan lifecycle.Event),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *changeSource) Events() <-chan lifecycle.Event {
	return s.out
}

func (s *changeSource) wants(e core.Event) bool {
	if len(s.collections) == 0 || e.Collection == core.CollectionAll {
		return true
	}
	return slices.Contains(s.collections, e.Collection)
}

// Start forwards events until ctx is done or the input channel closes, then
// closes the output channel.
func (s *changeSource) Start(ctx context.Context) error {
	lifecycle.Go(ctx, func(ctx context.Context) error {
		defer close(s.out)
		for {
			select {
			case <-ctx.Done():
				return nil
			case e, ok := <-s.events:
				if !ok {
					return nil
				}
				if !s.wants(e) {
					continue
				}
				select {
				case s.out <- e:
				case <-ctx.Done():
					return nil
				}
			}
		}
	})
	return nil
}

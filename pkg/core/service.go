package core

import (
	"context"
	"errors"
	"log/slog"
	"slices"
	"sync"
	"time"
)

// Service is the aggregate store. It owns the in-memory AppData and writes
// the whole aggregate back through the Repository after every mutation.
//
// A single mutex serializes every operation, reads included, and is held for
// the duration of the blocking save.
type Service struct {
	mu   sync.Mutex
	repo Repository
	data AppData

	logger       *slog.Logger
	now          func() time.Time
	allocID      IDAllocator
	readOnly     bool
	strictToggle bool

	// dirty is set when the last save failed; memory and storage diverge
	// until the next successful save.
	dirty  bool
	closed bool
	done   chan struct{}

	subscribers     []chan Event
	eventBufferSize int
}

// ServiceOption configures a Service.
type ServiceOption func(*Service)

// WithServiceLogger sets the logger used by the service.
func WithServiceLogger(logger *slog.Logger) ServiceOption {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithClock overrides the time source (useful for testing).
func WithClock(now func() time.Time) ServiceOption {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

// WithIDAllocator overrides how ids are assigned to new records.
func WithIDAllocator(alloc IDAllocator) ServiceOption {
	return func(s *Service) {
		if alloc != nil {
			s.allocID = alloc
		}
	}
}

// WithReadOnlyService rejects every mutation with ErrReadOnly.
func WithReadOnlyService(enabled bool) ServiceOption {
	return func(s *Service) {
		s.readOnly = enabled
	}
}

// WithStrictToggle makes ToggleTodo fail with ErrNotFound for unknown ids.
// By default an unknown id is logged and the unchanged list is returned.
func WithStrictToggle(enabled bool) ServiceOption {
	return func(s *Service) {
		s.strictToggle = enabled
	}
}

// WithEventBuffer sets the buffer size of subscriber channels.
// Zero means default (100).
func WithEventBuffer(size int) ServiceOption {
	return func(s *Service) {
		if size > 0 {
			s.eventBufferSize = size
		}
	}
}

// NewService creates a Service holding the default aggregate.
// Call Load to read the persisted aggregate.
func NewService(repo Repository, opts ...ServiceOption) *Service {
	s := &Service{
		repo:            repo,
		data:            DefaultAppData(),
		logger:          slog.New(slog.DiscardHandler),
		now:             time.Now,
		allocID:         LengthIDs,
		eventBufferSize: 100,
		done:            make(chan struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Load replaces the in-memory aggregate with the persisted one.
// When nothing is persisted the defaults are kept and nil is returned. When
// the stored document is unreadable the defaults are kept, the error is
// returned, and the stored document is left alone until the next mutation.
func (s *Service) Load(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := s.repo.Load(ctx)
	if errors.Is(err, ErrNoData) {
		s.logger.Debug("no persisted data, starting with defaults", "location", s.repo.Location())
		s.data = DefaultAppData()
		return nil
	}
	if err != nil {
		s.data = DefaultAppData()
		return s.loadError("load_app_data", err)
	}
	data.Normalize()
	s.data = data
	s.logger.Debug("loaded app data", "location", s.repo.Location(),
		"todos", len(data.Todos), "notes", len(data.Notes), "goals", len(data.Goals))
	return nil
}

// Reload re-reads the persisted aggregate, typically after an external edit.
// On failure the in-memory aggregate is kept.
func (s *Service) Reload(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}

	data, err := s.repo.Load(ctx)
	if errors.Is(err, ErrNoData) {
		return nil
	}
	if err != nil {
		return s.loadError("reload_app_data", err)
	}
	data.Normalize()
	s.data = data
	s.dirty = false
	s.publish(EventReload, CollectionAll, NoID)
	s.logger.Info("reloaded app data", "location", s.repo.Location())
	return nil
}

func (s *Service) loadError(op string, err error) error {
	if errors.Is(err, ErrCorrupt) {
		return err
	}
	return ioFailure(op, err)
}

// Snapshot returns a copy of the whole aggregate.
func (s *Service) Snapshot(ctx context.Context) (AppData, error) {
	if err := ctx.Err(); err != nil {
		return AppData{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.data.Clone(), nil
}

// Replace swaps the whole aggregate (import, restore) and persists it.
func (s *Service) Replace(ctx context.Context, data AppData) error {
	if err := s.begin(ctx); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}

	data = data.Clone()
	data.Normalize()
	s.data = data
	if err := s.persist(ctx, "replace_app_data"); err != nil {
		return err
	}
	s.publish(EventReload, CollectionAll, NoID)
	s.logger.Info("replaced app data")
	return nil
}

// Location returns where the aggregate is persisted.
func (s *Service) Location() string {
	return s.repo.Location()
}

// Repository returns the underlying storage adapter.
func (s *Service) Repository() Repository {
	return s.repo
}

// Close flushes the aggregate if the last save failed and releases the
// repository. Further calls are no-ops.
func (s *Service) Close(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil
	}
	s.closed = true
	close(s.done)

	var flushErr error
	if s.dirty && !s.readOnly {
		s.logger.Warn("flushing unsaved app data on close", "location", s.repo.Location())
		flushErr = s.persist(ctx, "close")
	}
	for _, ch := range s.subscribers {
		close(ch)
	}
	s.subscribers = nil

	if c, ok := s.repo.(Closer); ok {
		if err := c.Close(); err != nil && flushErr == nil {
			return ioFailure("close", err)
		}
	}
	return flushErr
}

// begin validates the preconditions shared by every mutation.
func (s *Service) begin(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s.readOnly {
		return ErrReadOnly
	}
	return nil
}

// persist writes the aggregate. The caller must hold s.mu. The in-memory
// mutation is never rolled back on failure.
func (s *Service) persist(ctx context.Context, op string) error {
	if err := s.repo.Save(ctx, s.data); err != nil {
		s.dirty = true
		s.logger.Error("failed to save app data", "op", op, "error", err)
		return ioFailure(op, err)
	}
	s.dirty = false
	s.logger.Debug("saved app data", "op", op, "location", s.repo.Location())
	return nil
}

func (s *Service) stamp() time.Time {
	return s.now().UTC()
}

// --- Todos ---

// AddTodo appends a todo and returns the updated list.
func (s *Service) AddTodo(ctx context.Context, text string) ([]TodoItem, error) {
	if err := s.begin(ctx); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil, ErrClosed
	}

	now := s.stamp()
	id := nextID(s.allocID, s.data.Todos, todoID)
	s.data.Todos = append(s.data.Todos, TodoItem{
		ID:        id,
		Text:      text,
		Completed: false,
		CreatedAt: now,
		UpdatedAt: now,
	})
	if err := s.persist(ctx, "add_todo"); err != nil {
		return nil, err
	}
	s.publish(EventCreate, CollectionTodos, id)
	s.logger.Info("added new todo", "id", id, "text", text)
	return slices.Clone(s.data.Todos), nil
}

// RemoveTodo removes every todo with the given id.
func (s *Service) RemoveTodo(ctx context.Context, id int) ([]TodoItem, error) {
	if err := s.begin(ctx); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil, ErrClosed
	}

	s.data.Todos = slices.DeleteFunc(s.data.Todos, func(t TodoItem) bool { return t.ID == id })
	if err := s.persist(ctx, "remove_todo"); err != nil {
		return nil, err
	}
	s.publish(EventDelete, CollectionTodos, id)
	s.logger.Info("removed todo", "id", id)
	return slices.Clone(s.data.Todos), nil
}

// ToggleTodo flips the completed flag of the first todo with the given id.
// An unknown id is logged and the unchanged list is still saved and returned,
// unless the service was built WithStrictToggle.
func (s *Service) ToggleTodo(ctx context.Context, id int) ([]TodoItem, error) {
	if err := s.begin(ctx); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil, ErrClosed
	}

	i := slices.IndexFunc(s.data.Todos, func(t TodoItem) bool { return t.ID == id })
	if i >= 0 {
		t := &s.data.Todos[i]
		t.Completed = !t.Completed
		t.UpdatedAt = s.stamp()
		s.logger.Info("toggled todo", "id", id, "completed", t.Completed)
	} else {
		if s.strictToggle {
			return nil, notFound("toggle_todo", "todo", id)
		}
		s.logger.Warn("failed to find todo", "id", id)
	}
	if err := s.persist(ctx, "toggle_todo"); err != nil {
		return nil, err
	}
	if i >= 0 {
		s.publish(EventModify, CollectionTodos, id)
	}
	return slices.Clone(s.data.Todos), nil
}

// Todos returns a copy of the todo list.
func (s *Service) Todos(ctx context.Context) ([]TodoItem, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.logger.Debug("returning todos", "count", len(s.data.Todos))
	return slices.Clone(s.data.Todos), nil
}

// --- Notes ---

// AddNote appends a note and returns the updated list.
func (s *Service) AddNote(ctx context.Context, title, content string) ([]Note, error) {
	if err := s.begin(ctx); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil, ErrClosed
	}

	now := s.stamp()
	id := nextID(s.allocID, s.data.Notes, noteID)
	s.data.Notes = append(s.data.Notes, Note{
		ID:        id,
		Title:     title,
		Content:   content,
		CreatedAt: now,
		UpdatedAt: now,
	})
	if err := s.persist(ctx, "add_note"); err != nil {
		return nil, err
	}
	s.publish(EventCreate, CollectionNotes, id)
	s.logger.Info("added new note", "id", id, "title", title)
	return slices.Clone(s.data.Notes), nil
}

// UpdateNote rewrites the title and content of a note.
func (s *Service) UpdateNote(ctx context.Context, id int, title, content string) ([]Note, error) {
	if err := s.begin(ctx); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil, ErrClosed
	}

	i := slices.IndexFunc(s.data.Notes, func(n Note) bool { return n.ID == id })
	if i < 0 {
		return nil, notFound("update_note", "note", id)
	}
	n := &s.data.Notes[i]
	n.Title = title
	n.Content = content
	n.UpdatedAt = s.stamp()
	if err := s.persist(ctx, "update_note"); err != nil {
		return nil, err
	}
	s.publish(EventModify, CollectionNotes, id)
	s.logger.Info("updated note", "id", id)
	return slices.Clone(s.data.Notes), nil
}

// DeleteNote removes every note with the given id.
func (s *Service) DeleteNote(ctx context.Context, id int) ([]Note, error) {
	if err := s.begin(ctx); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil, ErrClosed
	}

	s.data.Notes = slices.DeleteFunc(s.data.Notes, func(n Note) bool { return n.ID == id })
	if err := s.persist(ctx, "delete_note"); err != nil {
		return nil, err
	}
	s.publish(EventDelete, CollectionNotes, id)
	s.logger.Info("deleted note", "id", id)
	return slices.Clone(s.data.Notes), nil
}

// Notes returns a copy of the notes.
func (s *Service) Notes(ctx context.Context) ([]Note, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.logger.Debug("returning notes", "count", len(s.data.Notes))
	return slices.Clone(s.data.Notes), nil
}

// --- Goals ---

// AddGoal appends a goal and returns the updated list.
func (s *Service) AddGoal(ctx context.Context, title, motivation string) ([]Goal, error) {
	if err := s.begin(ctx); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil, ErrClosed
	}

	now := s.stamp()
	id := nextID(s.allocID, s.data.Goals, goalID)
	s.data.Goals = append(s.data.Goals, Goal{
		ID:         id,
		Title:      title,
		Motivation: motivation,
		CreatedAt:  now,
		UpdatedAt:  now,
	})
	if err := s.persist(ctx, "add_goal"); err != nil {
		return nil, err
	}
	s.publish(EventCreate, CollectionGoals, id)
	s.logger.Info("added new goal", "id", id, "title", title)
	return slices.Clone(s.data.Goals), nil
}

// UpdateGoal rewrites the title and motivation of a goal.
func (s *Service) UpdateGoal(ctx context.Context, id int, title, motivation string) ([]Goal, error) {
	if err := s.begin(ctx); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil, ErrClosed
	}

	i := slices.IndexFunc(s.data.Goals, func(g Goal) bool { return g.ID == id })
	if i < 0 {
		return nil, notFound("update_goal", "goal", id)
	}
	g := &s.data.Goals[i]
	g.Title = title
	g.Motivation = motivation
	g.UpdatedAt = s.stamp()
	if err := s.persist(ctx, "update_goal"); err != nil {
		return nil, err
	}
	s.publish(EventModify, CollectionGoals, id)
	s.logger.Info("updated goal", "id", id)
	return slices.Clone(s.data.Goals), nil
}

// RemoveGoal removes every goal with the given id.
func (s *Service) RemoveGoal(ctx context.Context, id int) ([]Goal, error) {
	if err := s.begin(ctx); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil, ErrClosed
	}

	s.data.Goals = slices.DeleteFunc(s.data.Goals, func(g Goal) bool { return g.ID == id })
	if err := s.persist(ctx, "remove_goal"); err != nil {
		return nil, err
	}
	s.publish(EventDelete, CollectionGoals, id)
	s.logger.Info("removed goal", "id", id)
	return slices.Clone(s.data.Goals), nil
}

// Goals returns a copy of the goals.
func (s *Service) Goals(ctx context.Context) ([]Goal, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.logger.Debug("returning goals", "count", len(s.data.Goals))
	return slices.Clone(s.data.Goals), nil
}

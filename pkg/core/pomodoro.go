package core

import (
	"context"
	"slices"
)

// PomodoroState returns the timer state.
func (s *Service) PomodoroState(ctx context.Context) (PomodoroState, error) {
	if err := ctx.Err(); err != nil {
		return PomodoroState{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.data.Pomodoro, nil
}

// UpdatePomodoroState overwrites the timer state with the given values.
// Values are stored as given; no bounds are checked.
func (s *Service) UpdatePomodoroState(ctx context.Context, state PomodoroState) error {
	if err := s.begin(ctx); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}

	s.data.Pomodoro = state
	if err := s.persist(ctx, "update_pomodoro_state"); err != nil {
		return err
	}
	s.publish(EventModify, CollectionPomodoro, NoID)
	return nil
}

// StartPomodoro marks the timer running from now.
func (s *Service) StartPomodoro(ctx context.Context) (PomodoroState, error) {
	return s.mutatePomodoro(ctx, "start_pomodoro", func(p *PomodoroState) {
		p.IsRunning = true
		p.StartTime = uint64(s.now().UnixMilli())
	})
}

// StopPomodoro marks the timer stopped. Remaining seconds and start time are
// left as they are.
func (s *Service) StopPomodoro(ctx context.Context) (PomodoroState, error) {
	return s.mutatePomodoro(ctx, "stop_pomodoro", func(p *PomodoroState) {
		p.IsRunning = false
	})
}

// ResetPomodoro restores the default timer state.
func (s *Service) ResetPomodoro(ctx context.Context) (PomodoroState, error) {
	return s.mutatePomodoro(ctx, "reset_pomodoro", func(p *PomodoroState) {
		*p = DefaultPomodoroState()
	})
}

func (s *Service) mutatePomodoro(ctx context.Context, op string, fn func(*PomodoroState)) (PomodoroState, error) {
	if err := s.begin(ctx); err != nil {
		return PomodoroState{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return PomodoroState{}, ErrClosed
	}

	fn(&s.data.Pomodoro)
	if err := s.persist(ctx, op); err != nil {
		return PomodoroState{}, err
	}
	s.publish(EventModify, CollectionPomodoro, NoID)
	s.logger.Debug("pomodoro state changed", "op", op, "mode", s.data.Pomodoro.CurrentMode,
		"running", s.data.Pomodoro.IsRunning)
	return s.data.Pomodoro, nil
}

// SavePomodoroSession appends a completed session to the history.
func (s *Service) SavePomodoroSession(ctx context.Context, sessionName string, workMinutes uint32) ([]PomodoroSession, error) {
	if err := s.begin(ctx); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil, ErrClosed
	}

	id := nextID(s.allocID, s.data.PomodoroSessions, sessionID)
	s.data.PomodoroSessions = append(s.data.PomodoroSessions, PomodoroSession{
		ID:          id,
		SessionName: sessionName,
		WorkMinutes: workMinutes,
		CompletedAt: s.stamp(),
	})
	if err := s.persist(ctx, "save_pomodoro_session"); err != nil {
		return nil, err
	}
	s.publish(EventCreate, CollectionSessions, id)
	s.logger.Info("saved pomodoro session", "minutes", workMinutes)
	return slices.Clone(s.data.PomodoroSessions), nil
}

// PomodoroSessions returns a copy of the session history.
func (s *Service) PomodoroSessions(ctx context.Context) ([]PomodoroSession, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.data.PomodoroSessions), nil
}

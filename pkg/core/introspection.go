package core

import (
	"github.com/aretw0/introspection"
)

// ServiceState exposes internal state for observability.
type ServiceState struct {
	RepositoryType  string `json:"repository_type"`
	Location        string `json:"location"`
	ReadOnly        bool   `json:"read_only"`
	Dirty           bool   `json:"dirty"`
	Subscribers     int    `json:"subscribers"`
	EventBufferSize int    `json:"event_buffer_size"`
	Todos           int    `json:"todos"`
	Notes           int    `json:"notes"`
	Goals           int    `json:"goals"`
	JournalEntries  int    `json:"journal_entries"`
	Sessions        int    `json:"pomodoro_sessions"`
	PomodoroRunning bool   `json:"pomodoro_running"`
}

// State implements introspection.Introspectable.
func (s *Service) State() any {
	s.mu.Lock()
	defer s.mu.Unlock()

	repoType := "unknown"
	location := ""
	if s.repo != nil {
		repoType = "repository"
		// Try to get component type if repository implements introspection.Component
		if comp, ok := s.repo.(introspection.Component); ok {
			repoType = comp.ComponentType()
		}
		location = s.repo.Location()
	}

	return ServiceState{
		RepositoryType:  repoType,
		Location:        location,
		ReadOnly:        s.readOnly,
		Dirty:           s.dirty,
		Subscribers:     len(s.subscribers),
		EventBufferSize: s.eventBufferSize,
		Todos:           len(s.data.Todos),
		Notes:           len(s.data.Notes),
		Goals:           len(s.data.Goals),
		JournalEntries:  len(s.data.JournalEntries),
		Sessions:        len(s.data.PomodoroSessions),
		PomodoroRunning: s.data.Pomodoro.IsRunning,
	}
}

// ComponentType implements introspection.Component.
func (s *Service) ComponentType() string {
	return "service"
}

var _ introspection.Introspectable = (*Service)(nil)
var _ introspection.Component = (*Service)(nil)

// Package core holds the daybook domain: the entities, the aggregate that is
// persisted as one unit, and the Service that guards it.
package core

import (
	"fmt"
	"time"
)

// Pomodoro defaults applied on first start and on reset.
const (
	DefaultPomodoroMode    = "work"
	DefaultPomodoroSeconds = 25 * 60
)

// TodoItem is a single entry of the todo list.
type TodoItem struct {
	ID        int       `json:"id" yaml:"id"`
	Text      string    `json:"text" yaml:"text"`
	Completed bool      `json:"completed" yaml:"completed"`
	CreatedAt time.Time `json:"created_at" yaml:"created_at"`
	UpdatedAt time.Time `json:"updated_at" yaml:"updated_at"`
}

// Note is a titled free-form text.
type Note struct {
	ID        int       `json:"id" yaml:"id"`
	Title     string    `json:"title" yaml:"title"`
	Content   string    `json:"content" yaml:"content"`
	CreatedAt time.Time `json:"created_at" yaml:"created_at"`
	UpdatedAt time.Time `json:"updated_at" yaml:"updated_at"`
}

// Goal is a titled objective with its motivation.
type Goal struct {
	ID         int       `json:"id" yaml:"id"`
	Title      string    `json:"title" yaml:"title"`
	Motivation string    `json:"motivation" yaml:"motivation"`
	CreatedAt  time.Time `json:"created_at" yaml:"created_at"`
	UpdatedAt  time.Time `json:"updated_at" yaml:"updated_at"`
}

// JournalEntry is the journal text for one calendar day.
// Date keeps the full timestamp; identity is the UTC calendar day.
type JournalEntry struct {
	ID      int       `json:"id" yaml:"id"`
	Date    time.Time `json:"date" yaml:"date"`
	Content string    `json:"content" yaml:"content"`
}

// PomodoroSession records a completed work interval.
type PomodoroSession struct {
	ID          int       `json:"id" yaml:"id"`
	SessionName string    `json:"session_name" yaml:"session_name"`
	WorkMinutes uint32    `json:"work_minutes" yaml:"work_minutes"`
	CompletedAt time.Time `json:"completed_at" yaml:"completed_at"`
}

// PomodoroState is the timer singleton. It is inert: nothing in the core
// ticks it, the foreground collaborator recomputes elapsed time from StartTime.
type PomodoroState struct {
	SessionName      string `json:"session_name" yaml:"session_name"`
	CurrentMode      string `json:"current_mode" yaml:"current_mode"`
	RemainingSeconds uint32 `json:"remaining_seconds" yaml:"remaining_seconds"`
	IsRunning        bool   `json:"is_running" yaml:"is_running"`
	CycleCount       uint32 `json:"cycle_count" yaml:"cycle_count"`
	StartTime        uint64 `json:"start_time" yaml:"start_time"` // ms since epoch
}

// Remaining reports the seconds left at now, accounting for the time elapsed
// since StartTime when the timer is running.
func (p PomodoroState) Remaining(now time.Time) uint32 {
	if !p.IsRunning || p.StartTime == 0 {
		return p.RemainingSeconds
	}
	elapsed := now.UnixMilli() - int64(p.StartTime)
	if elapsed <= 0 {
		return p.RemainingSeconds
	}
	secs := uint64(elapsed / 1000)
	if secs >= uint64(p.RemainingSeconds) {
		return 0
	}
	return p.RemainingSeconds - uint32(secs)
}

// AppData is the aggregate root and the unit of persistence.
type AppData struct {
	Todos            []TodoItem        `json:"todos" yaml:"todos"`
	Notes            []Note            `json:"notes" yaml:"notes"`
	Goals            []Goal            `json:"goals" yaml:"goals"`
	Pomodoro         PomodoroState     `json:"pomodoro" yaml:"pomodoro"`
	JournalEntries   []JournalEntry    `json:"journal_entries" yaml:"journal_entries"`
	PomodoroSessions []PomodoroSession `json:"pomodoro_sessions" yaml:"pomodoro_sessions"`
}

// DefaultPomodoroState returns the state used on first start and on reset.
func DefaultPomodoroState() PomodoroState {
	return PomodoroState{
		SessionName:      "",
		CurrentMode:      DefaultPomodoroMode,
		RemainingSeconds: DefaultPomodoroSeconds,
		IsRunning:        false,
		CycleCount:       0,
		StartTime:        0,
	}
}

// DefaultAppData returns an empty aggregate.
func DefaultAppData() AppData {
	return AppData{
		Todos:            []TodoItem{},
		Notes:            []Note{},
		Goals:            []Goal{},
		Pomodoro:         DefaultPomodoroState(),
		JournalEntries:   []JournalEntry{},
		PomodoroSessions: []PomodoroSession{},
	}
}

// Normalize replaces nil collections with empty ones so the document always
// serializes arrays.
func (d *AppData) Normalize() {
	if d.Todos == nil {
		d.Todos = []TodoItem{}
	}
	if d.Notes == nil {
		d.Notes = []Note{}
	}
	if d.Goals == nil {
		d.Goals = []Goal{}
	}
	if d.JournalEntries == nil {
		d.JournalEntries = []JournalEntry{}
	}
	if d.PomodoroSessions == nil {
		d.PomodoroSessions = []PomodoroSession{}
	}
}

// Clone returns a deep copy of the aggregate.
func (d AppData) Clone() AppData {
	return AppData{
		Todos:            append([]TodoItem{}, d.Todos...),
		Notes:            append([]Note{}, d.Notes...),
		Goals:            append([]Goal{}, d.Goals...),
		Pomodoro:         d.Pomodoro,
		JournalEntries:   append([]JournalEntry{}, d.JournalEntries...),
		PomodoroSessions: append([]PomodoroSession{}, d.PomodoroSessions...),
	}
}

// EventType represents the kind of change applied to the aggregate.
type EventType string

const (
	EventCreate EventType = "CREATE"
	EventModify EventType = "MODIFY"
	EventDelete EventType = "DELETE"
	EventReload EventType = "RELOAD"
)

// Collection names used in events and errors.
const (
	CollectionTodos    = "todos"
	CollectionNotes    = "notes"
	CollectionGoals    = "goals"
	CollectionJournal  = "journal_entries"
	CollectionSessions = "pomodoro_sessions"
	CollectionPomodoro = "pomodoro"
	CollectionAll      = "app_data"
)

// NoID marks events that do not target a single record.
const NoID = -1

// Event represents a change in the aggregate, either applied by the Service
// or detected in the underlying storage.
type Event struct {
	Type       EventType
	Collection string
	ID         int
	Timestamp  int64 // Unix timestamp
}

// String implements fmt.Stringer.
func (e Event) String() string {
	if e.ID == NoID {
		return fmt.Sprintf("%s %s", e.Type, e.Collection)
	}
	return fmt.Sprintf("%s %s#%d", e.Type, e.Collection, e.ID)
}

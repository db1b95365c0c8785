package core

import (
	"context"
	"fmt"
	"slices"
	"time"
)

// ParseJournalDate parses an RFC 3339 timestamp and converts it to UTC.
// A lowercase or space date-time separator and a lowercase "z" are accepted.
func ParseJournalDate(date string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339, normalizeRFC3339(date))
	if err != nil {
		return time.Time{}, fmt.Errorf("date %q is not RFC 3339: %w", date, err)
	}
	return t.UTC(), nil
}

func normalizeRFC3339(date string) string {
	if len(date) <= len(time.DateOnly) {
		return date
	}
	b := []byte(date)
	if sep := b[len(time.DateOnly)]; sep == 't' || sep == ' ' {
		b[len(time.DateOnly)] = 'T'
	}
	if b[len(b)-1] == 'z' {
		b[len(b)-1] = 'Z'
	}
	return string(b)
}

// SameDay reports whether a and b fall on the same UTC calendar day.
func SameDay(a, b time.Time) bool {
	ay, am, ad := a.UTC().Date()
	by, bm, bd := b.UTC().Date()
	return ay == by && am == bm && ad == bd
}

// AddJournalEntry writes the journal for the calendar day of date. An
// existing entry for that day is overwritten in place (content and
// timestamp); otherwise a new entry is appended. It returns the stored
// entries in storage order.
func (s *Service) AddJournalEntry(ctx context.Context, content, date string) ([]JournalEntry, error) {
	if err := s.begin(ctx); err != nil {
		return nil, err
	}
	target, err := ParseJournalDate(date)
	if err != nil {
		return nil, invalidInput("add_journal_entry", "date", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil, ErrClosed
	}

	evType := EventModify
	i := slices.IndexFunc(s.data.JournalEntries, func(e JournalEntry) bool { return SameDay(e.Date, target) })
	var id int
	if i >= 0 {
		e := &s.data.JournalEntries[i]
		e.Content = content
		e.Date = target
		id = e.ID
	} else {
		id = nextID(s.allocID, s.data.JournalEntries, journalID)
		s.data.JournalEntries = append(s.data.JournalEntries, JournalEntry{
			ID:      id,
			Date:    target,
			Content: content,
		})
		evType = EventCreate
	}

	if err := s.persist(ctx, "add_journal_entry"); err != nil {
		return nil, err
	}
	s.publish(evType, CollectionJournal, id)
	s.logger.Info("added or updated journal entry", "date", date, "id", id)
	return slices.Clone(s.data.JournalEntries), nil
}

// JournalEntries returns one entry per calendar day, newest first. When
// stored data holds several entries for a day, the first in storage order is
// kept. The stored collection is not modified.
func (s *Service) JournalEntries(ctx context.Context) ([]JournalEntry, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	unique := make([]JournalEntry, 0, len(s.data.JournalEntries))
	for _, e := range s.data.JournalEntries {
		dup := slices.ContainsFunc(unique, func(u JournalEntry) bool { return SameDay(u.Date, e.Date) })
		if !dup {
			unique = append(unique, e)
		}
	}
	slices.SortStableFunc(unique, func(a, b JournalEntry) int { return b.Date.Compare(a.Date) })
	return unique, nil
}

// JournalEntryFor returns the first stored entry for the calendar day of
// date. found is false when there is none.
func (s *Service) JournalEntryFor(ctx context.Context, date string) (entry JournalEntry, found bool, err error) {
	if err := ctx.Err(); err != nil {
		return JournalEntry{}, false, err
	}
	target, err := ParseJournalDate(date)
	if err != nil {
		return JournalEntry{}, false, invalidInput("get_journal_entry_for_date", "date", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	i := slices.IndexFunc(s.data.JournalEntries, func(e JournalEntry) bool { return SameDay(e.Date, target) })
	if i < 0 {
		return JournalEntry{}, false, nil
	}
	return s.data.JournalEntries[i], true, nil
}

package core

// IDAllocator picks the id of a record about to be appended to a collection
// holding length records whose greatest id is maxID (-1 when empty).
type IDAllocator func(length, maxID int) int

// LengthIDs assigns the current collection length. Ids are reused after a
// deletion, so two live records can share an id: add 0 and 1, remove 0, and
// the next record gets 1 again. This is the historical behaviour of the
// app_data.json format and stays the default.
func LengthIDs(length, _ int) int { return length }

// NextAfterMaxIDs assigns max(id)+1. Ids never collide, but the id of a
// removed tail record is handed out again.
func NextAfterMaxIDs(_, maxID int) int { return maxID + 1 }

func maxID[T any](items []T, id func(T) int) int {
	m := -1
	for _, it := range items {
		if v := id(it); v > m {
			m = v
		}
	}
	return m
}

func nextID[T any](alloc IDAllocator, items []T, id func(T) int) int {
	return alloc(len(items), maxID(items, id))
}

func todoID(t TodoItem) int           { return t.ID }
func noteID(n Note) int               { return n.ID }
func goalID(g Goal) int               { return g.ID }
func journalID(j JournalEntry) int    { return j.ID }
func sessionID(p PomodoroSession) int { return p.ID }

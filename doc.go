// Package daybook is the composition root of a local-first personal
// productivity store: todos, notes, goals, a daily journal and a pomodoro
// timer kept in one JSON document per user.
//
// It wires the domain service (pkg/core) to a storage adapter
// (pkg/adapters/fs by default, pkg/adapters/sqlite on request).
//
// Features:
//
//   - **Single document**: the whole aggregate is rewritten atomically after every change.
//   - **Typed errors**: failures match core.ErrNotFound, core.ErrInvalidInput, core.ErrIO or core.ErrCorrupt.
//   - **Journal by day**: one entry per UTC calendar day, newest first.
//   - **Pomodoro**: persisted timer state plus a history of completed sessions.
//   - **External edits**: Service.Watch reloads when another process changes the file.
//
// Usage:
//
//	svc, err := daybook.New("", daybook.WithLogger(logger))
//	if err != nil {
//		return err
//	}
//	defer svc.Close(ctx)
//
//	todos, err := svc.AddTodo(ctx, "water the plants")
package daybook

// Package tasks keeps the client's local state consistent with the favorites API.
//
// # Model
//
// A [Controller] owns a [State] (identity, products, favorites and the status message) and is only touched from one
// loop: the bubbletea Update function in the TUI, or [Controller.Run] in CLI commands and tests.
//
// Every network round-trip is a [Task]. Operations like [Controller.Login] or [Controller.AddFavorite] do their
// synchronous bookkeeping (clearing the status message, checking preconditions), then return a Task that captures
// everything it needs. Tasks may run on any goroutine; they never read or write State. A finished Task yields an
// [Event], which the loop hands back to [Controller.Apply]. Apply mutates State and may return follow-up Tasks
// (a successful login yields an identity lookup, a new identity yields a favorites fetch).
//
// # Ordering
//
// The identity lookup after login or register is only issued once the token write has completed.
// Results that arrive for a superseded request are dropped:
//   - favorites fetches and favorite mutations carry the identity epoch, bumped on every identity transition
//   - identity lookups carry a resolve sequence, bumped by every new lookup and by logout
//   - product loads carry their own sequence
//
// So logging out while a favorites fetch is in flight leaves Favorites empty, whatever order the responses land in.
//
// # Errors
//
// Login, register and favorite mutations report failures through [State.Message]. A rejected stored token is a
// silent logout. A failed favorites fetch keeps the stale list and is only logged. A failed product load is
// reported through the status message and keeps the previous catalogue.
package tasks

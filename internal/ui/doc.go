// Package ui implements the interactive terminal client using bubbletea's Elm architecture.
//
// The screen has two regions:
//  1. [CredentialForm] : shown while logged out, with separate Login and Register controls
//  2. the product list : one row per product, with a "+" or "-" control once logged in
//
// The (view) [Model] drives a [tasks.Controller]. Every controller task runs as a [tea.Cmd]; its result comes back as
// a [Msg] and is applied inside Update, so the controller state is only ever touched from the bubbletea loop.
//
// Keyboard: tab cycles the form controls, enter activates the focused one. In the list, +/- add and remove,
// enter toggles, r reloads, L logs out, q quits.
package ui

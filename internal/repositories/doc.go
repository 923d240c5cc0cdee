// Package repositories implements SQLite persistence for client-side session state.
//
// Key Implementations:
//   - [MetadataRepository] : key/value rows in the metadata table
//   - [TokenRepository] : the durable session token, stored under the single key "token"
//
// An absent row means "unset": reads return the zero value and a nil error, and deletes are idempotent.
package repositories

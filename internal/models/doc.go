// Package models defines the wire and domain types shared by the faves client, its REST client and the development server.
//
// Records mirror the JSON bodies of the favorites API:
//   - [Credentials] : username/password pair submitted to login and register, never persisted
//   - [Identity] : the user resolved from a stored token via /api/auth/me
//   - [Product] : an entry of the product catalogue, read-only for the client
//   - [Favorite] : the join between an [Identity] and a [Product]
//
// Server identifiers may be JSON numbers or strings; [ID] keeps the literal kind so values are echoed back exactly as received.
package models

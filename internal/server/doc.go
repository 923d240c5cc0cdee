// Package server provides HTTP routing, middleware, and an in-memory implementation of the favorites REST API.
//
// # Router Infrastructure
//
// The [Router] interface defines HTTP routing with middleware support.
//
// [Middleware] runs in the order it was added: the first one added is the outermost wrapper.
//
// The [BasicRouter] implementation uses [http.ServeMux] method patterns ("GET /path") internally.
//
// # Favorites API
//
// [APIHandler] serves the auth, product and favorites endpoints from a [Store]. Users are kept with bcrypt password
// hashes, tokens are random UUIDs sent back raw in the authorization header, and identifiers are integers.
//
// Failures use the {"error": "..."} envelope:
//   - 400 empty credentials or malformed body
//   - 401 unknown credentials or token
//   - 403 path user differs from the token's user
//   - 404 unknown product or favorite
//   - 409 taken username or duplicate favorite
//
// # Current Usage
//
// `faves devserver` runs it for local use, and package tests across the module run it under [httptest].
//
// # Handler Interface
//
// Custom handlers implement the [Handler] interface, which wraps the stdlib handler interface and adds routes,
// allowing handlers to register multiple routes to encapsulate route definitions within the implementation.
package server

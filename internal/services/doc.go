// Package services implements the HTTP client for the favorites REST API.
//
// # APIService
//
// [APIService] wraps every endpoint of the API with a typed method:
//
//	GET    /api/auth/me                       → [APIService.Me]
//	POST   /api/auth/register                 → [APIService.Register]
//	POST   /api/auth/login                    → [APIService.Login]
//	GET    /api/products                      → [APIService.Products]
//	GET    /api/users/{id}/favorites          → [APIService.Favorites]
//	POST   /api/users/{id}/favorites          → [APIService.AddFavorite]
//	DELETE /api/users/{id}/favorites/{favId}  → [APIService.RemoveFavorite]
//
// Authenticated calls send the raw token in the "authorization" header, without a "Bearer " prefix.
//
// The lower-level [APIService.Do] and [APIService.Get] return the raw [APIResponse] for debugging commands.
//
// # Error Handling
//
// Non-2xx responses become [*APIError], carrying the status code and the server's {"error": ...} text.
// APIError unwraps to [shared.ErrAPIRequest]. Transport failures are returned wrapped as-is and are not APIErrors,
// which lets callers tell a rejected token from an unreachable server.
//
// # Rate Limiting
//
// An optional [rate.Limiter] paces outgoing requests; see [WithRateLimit].
package services

// Package http provides HTTP handlers and middleware for the studio API.
//
// The router exposes the following endpoints:
//   - POST /login: issues a session token. Body: {"email","password"}. Response:
//     {"token","expires_at","principal"} with token also surfaced via the
//     `X-Session-Token` header and a `session_token` cookie.
//   - POST /logout: revokes the current session token extracted from the
//     Authorization header or session cookie. Returns 204 No Content and clears
//     the cookie.
//   - GET /events, POST /events, GET/PUT/DELETE /events/{id},
//     POST /events/{id}/cancel: class event management exchanging the
//     `eventDTO` payload defined in event_handler.go. Listings run status
//     reconciliation first and include room overlap warnings.
//   - POST /substitutions: reassigns an absent trainer's scheduled classes to a
//     substitute over a date window.
//   - POST /series, GET/PUT/DELETE /series/{id}: recurring template management.
//     PUT and DELETE accept an `as_of` query parameter bounding which future
//     events receive the change; it defaults to the current studio date.
//   - GET /groups, POST /groups, GET/DELETE /groups/{id},
//     GET /groups/{id}/series: class group management. Deleting a group
//     cascades to its events and series.
//   - GET /rooms, POST /rooms, PUT /rooms/{id}, DELETE /rooms/{id}: studio room
//     catalog endpoints.
//   - GET /users, POST /users, GET /users/{id}, PUT /users/{id}/disabled:
//     administrator controlled staff account management.
//
// Request/response DTOs live alongside their respective handlers so tests and
// documentation share the same ground truth.
package http

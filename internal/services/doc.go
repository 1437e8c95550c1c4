// Package services implements the remote collaborators: [AuthClient] for DummyJSON accounts and
// [CatalogClient] for Open Library search and work details.
//
// # Auth
//
// Login and registration return a [models.AuthToken]; the caller decides where to keep it.
// [AuthClient.Me] authenticates through an [oauth2.Transport] whose token source is supplied by
// the caller, so every request carries "Authorization: Bearer <token>" read at request time.
//
// # Catalog
//
// Open Library asks clients to identify themselves, so every catalog request sends the configured
// User-Agent. Requests are spaced by a [rate.Limiter].
//
// # Error Handling
//
// Services use typed errors from shared package:
//   - [shared.ErrInvalidCredentials] : login rejected
//   - [shared.ErrRegistration] : account creation rejected
//   - [shared.ErrNotAuthenticated] : no token available for an authenticated call
//   - [shared.ErrCourseNotFound] : unknown work key
//   - [shared.ErrServiceUnavailable] : transport failure
//   - [shared.ErrAPIRequest] : any other non-2xx response
package services

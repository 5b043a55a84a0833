// Package catalog defines the domain model for the Shelfwise content catalog:
// users, author profiles, books, genres, reviews and favourites, together with
// the role enum, the error taxonomy shared by every layer, and the data
// mappers that translate persisted records into API-facing representations.
//
// # Entities
//
//	User       - account identity with credential hash, activation flag and role
//	Author     - a user's publishing profile (one per user), required to own books
//	Book       - uploaded work owned by an author, linked to genres
//	Genre      - unique named category, many-to-many with books
//	Review     - (user, book) keyed rating + text, at most one per pair
//	Favourite  - (user, book) keyed bookmark, at most one per pair
//
// # Error taxonomy
//
// All failures that cross an API boundary are classified with one of the
// sentinel kinds (ErrNotFound, ErrForbidden, ErrUnauthorized, ErrConflict,
// ErrInvalidInput) so callers can branch with errors.Is instead of matching
// message text. Wrap with the *f helpers to attach context:
//
//	return catalog.NotFoundf("genre %s not found", id)
//
// # Mappers
//
// Mappers produce the external view of a record. The external view of a user
// is a distinct type with no credential field, so the password hash cannot
// leak through serialization.
//
// # Related Packages
//
//   - pkg/rbac: authorization decisions over these entities
//   - pkg/storage: repository interfaces returning these records
package catalog

// Package storage defines the repository interfaces the API and worker
// consume, plus the backend configuration they are built from.
//
// # Overview
//
// Each catalog entity has its own repository interface with a uniform
// capability set: get-one, list, exists, create, patch-style update, and
// idempotent delete. Composite-key entities (reviews, favourites) expose
// the key pair explicitly. Consumers accept these interfaces; the
// concrete implementations live in pkg/storage/postgres.
//
// Absence is signalled with catalog.ErrNotFound wrapped errors, never
// with nil-and-no-error.
package storage

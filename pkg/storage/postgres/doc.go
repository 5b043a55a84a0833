// Package postgres implements the storage repositories over PostgreSQL,
// with a Redis client for the ephemeral store and an optional two-level
// read cache for books.
//
// SQL is hand-written against database/sql with the lib/pq driver. Each
// repository owns its entity's statements; cross-entity effects (role
// promotion on author create, demotion on delete, genre linking) run in
// a single transaction. Schema bootstrap is idempotent CREATE TABLE IF
// NOT EXISTS, applied at startup by both binaries.
package postgres

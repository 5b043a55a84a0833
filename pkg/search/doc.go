// Package search provides free-text search over the book catalog.
//
// # Overview
//
// The Engine matches a query against book titles and descriptions in
// PostgreSQL and ranks results by where the match lands (exact title,
// title prefix, title substring, description). Result sets are cached
// in Redis under the "search:books:" namespace; the background cache
// purge job clears that namespace on its schedule, so cached results
// have two expiry paths: their TTL and the purge cycle.
//
// # Usage Example
//
//	engine := search.NewEngine(db, redisClient, 5*time.Minute)
//	handlers := search.NewHandlers(engine)
//	handlers.RegisterRoutes(router)
//
// # Related Packages
//
//   - pkg/storage/postgres: the Redis client implementing ResultCache
//   - pkg/tasks: the scheduled purge of the search cache namespace
package search

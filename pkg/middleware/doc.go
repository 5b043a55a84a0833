// Package middleware provides HTTP middleware for authentication, authorization, and rate limiting.
//
// # Overview
//
// This package implements request processing middleware including JWT bearer
// authentication and rate limiting (per-user and distributed).
//
// # Middleware Components
//
// AuthMiddleware: JWT bearer token authentication
//
//	authMW := middleware.NewAuthMiddleware(issuer, false)
//	router.Use(authMW.Handler)
//	// Extracts Bearer token, decodes it, adds Identity to request context
//
// RequireRole: Role gate, runs after AuthMiddleware
//
//	router.Handle("/genres", middleware.RequireRole(catalog.RoleAdmin)(handler))
//
// RateLimitMiddleware: In-memory rate limiting
//
//	router.Use(middleware.NewRateLimitMiddleware().Handler)
//
// DistributedRateLimitMiddleware: Redis-backed rate limiting
//
//	router.Use(middleware.NewDistributedRateLimitMiddleware(redisClient).Handler)
//
// # Rate Limiting
//
// Default (Anonymous): 100 req/min, 10 burst
// Per-User: 1000 req/min, 50 burst
// Per-Admin: 5000 req/min, 100 burst
//
// # Related Packages
//
//   - pkg/auth: Token decoding
//   - pkg/rbac: Per-resource permission checking
package middleware

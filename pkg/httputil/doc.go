// Package httputil provides HTTP utilities for standardized request/response handling.
//
// # Overview
//
// This package offers helper functions for JSON encoding/decoding, error responses,
// parameter parsing, validation, and common HTTP middleware patterns.
//
// # Response Helpers
//
// JSON responses:
//
//	httputil.WriteJSON(w, http.StatusOK, data)
//	httputil.WriteSuccess(w, data)
//	httputil.WriteCreated(w, resource)
//
// Error responses:
//
//	httputil.WriteTaxonomyError(w, err) // maps catalog error kinds to statuses
//	httputil.WriteError(w, http.StatusBadRequest, err)
//	httputil.WriteBadRequest(w, "Invalid input")
//	httputil.WriteUnauthorized(w, "Token expired")
//	httputil.WriteForbidden(w, "Insufficient permissions")
//
// # Request Parsing
//
// JSON parsing:
//
//	var req CreateBookRequest
//	if !httputil.ParseJSONOrError(w, r, &req) {
//		return // Error response already written
//	}
//
// Path parameters:
//
//	id, ok := httputil.ParsePathUUIDOrError(w, r, "id")
//	name, err := httputil.ParsePathString(r, "name")
//
// Query parameters:
//
//	limit, _ := httputil.ParseQueryInt(r, "limit", 20)
//	userID, present, err := httputil.ParseQueryUUID(r, "user_id")
//
// # Validation
//
//	httputil.ValidateAll(w,
//		func() (bool, string) { return req.Title != "", "title is required" },
//	)
//
// # Middleware
//
//	httputil.Chain(
//		httputil.RequestIDMiddleware,
//		httputil.LoggingMiddleware,
//		httputil.RecoveryMiddleware,
//		httputil.MaxBytesMiddleware(10*1024*1024), // 10MB
//	)
//
// # Related Packages
//
//   - pkg/middleware: Authentication middleware
package httputil

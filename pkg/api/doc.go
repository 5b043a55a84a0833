// Package api provides the HTTP surface of the catalog service.
//
// # Overview
//
// Handlers are thin: parse, authorize through pkg/rbac, call the
// repository, map the result through pkg/catalog mappers, respond with
// pkg/httputil helpers. Every failure crossing this boundary carries one
// of the catalog sentinel kinds and maps to a stable status code.
//
// # Routes
//
//	POST /auth/register, POST /auth/login
//	GET/PATCH/DELETE /users, /users/me, /users/{id}
//	GET/POST/PUT/DELETE /authors, /authors/{id}
//	GET/POST/PUT/DELETE /books, /books/{id}
//	GET /books/{id}/reviews
//	GET/POST/PUT/DELETE /genres, /genres/{id}
//	GET/POST/PUT/DELETE /reviews, /reviews/{book_id}
//	GET/POST/DELETE /favourites, /favourites/{book_id}
//	GET/POST/PUT/DELETE /roles, /roles/{id}
//
// Reads of books, genres, authors and a book's reviews are public.
// Everything else requires a bearer token; genre and role writes and
// user administration require the admin role.
//
// # Usage Example
//
//	server := api.NewServer(stores, issuer, dispatcher, logger)
//	http.ListenAndServe(":8080", server)
//
// # Related Packages
//
//   - pkg/rbac: Access policy resolver
//   - pkg/storage: Repositories the handlers serve from
//   - pkg/tasks: Review notification dispatch
package api

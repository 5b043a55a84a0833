// Package auth handles credential hashing and session tokens.
//
// Passwords are stored as bcrypt hashes and never compared in plaintext.
// Sessions are stateless HS256 JWTs carrying the user id and role; the
// token is the only thing a client holds between requests, so expiry and
// signature failures both surface as catalog.ErrUnauthorized.
package auth

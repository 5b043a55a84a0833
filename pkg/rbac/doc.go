// Package rbac resolves access decisions for catalog operations.
//
// The model is a static role hierarchy (admin covers author covers user)
// plus per-resource ownership rules. Authorize is a pure function over
// facts the handler gathers up front: who the caller is, what they want
// to do, and who owns the target row. It touches no storage, so every
// rule is unit-testable without fixtures.
//
// A denial carries a reason and a taxonomy kind. Most denials are
// Forbidden; creating a second author profile for the same user is a
// Conflict. Handlers translate decisions with Decision.Err.
package rbac

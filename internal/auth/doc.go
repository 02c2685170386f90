// Package auth implements the operator authentication the HTTP control
// surface needs: Argon2id password hashing, a SQLite-backed operator
// table, and HS256 JWT bearer tokens issued by POST /auth/login and checked on every
// mutating route. This is ambient plumbing for the transport, not part
// of the device-control domain.
package auth

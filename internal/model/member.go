package model

import "time"

// Member roles as stored in the members.role column and carried in the
// JWT "role" claim.
const (
	RoleLibrarian = "LIBRARIAN"
	RoleMember    = "MEMBER"
)

// Member represents a library account as stored in the `members`
// table.  Circulation only ever reads the id and name; the credential
// fields belong to the identity surface.
//
// Fields:
//  ID               – primary key identifier.
//  Name             – display name.
//  Email            – unique email address.
//  PasswordHash     – bcrypt hashed password.
//  Role             – LIBRARIAN or MEMBER.
//  RegistrationDate – when the account was created.
//  IsActive         – whether the account may borrow.
type Member struct {
	ID               uint64    `json:"id"`                // members.id
	Name             string    `json:"name"`              // members.name
	Email            string    `json:"email"`             // members.email
	PasswordHash     string    `json:"-"`                 // members.password_hash
	Role             string    `json:"role"`              // members.role
	RegistrationDate time.Time `json:"registration_date"` // members.registration_date
	IsActive         bool      `json:"is_active"`         // members.is_active
}

// RefreshToken models an entry in the `refresh_tokens` table.  Only
// the SHA-256 hash of the token value is stored.
//
// Fields:
//  ID        – primary key identifier.
//  MemberID  – owner of the token.
//  TokenHash – SHA-256 hex digest of the token value.
//  ExpiresAt – expiration timestamp of the token.
//  RevokedAt – when the token was revoked (nil if still active).
type RefreshToken struct {
	ID        uint64     // refresh_tokens.id
	MemberID  uint64     // refresh_tokens.member_id
	TokenHash string     // refresh_tokens.token_hash
	ExpiresAt time.Time  // refresh_tokens.expires_at
	RevokedAt *time.Time // refresh_tokens.revoked_at (nullable)
}

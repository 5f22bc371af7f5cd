package domain

import "time"

type User struct {
	ID           string
	Email        string
	FullName     string
	PasswordHash string     // argon2id encoded
	Role         Role       // closed enum, see role.go
	MFAEnabled   *time.Time // Timestamp when MFA was enabled (nullable)
	MFASecret    *string    // TOTP secret (nullable, base32 encoded)
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// HasMFA reports whether the second factor is active for this account.
// A stored secret without the enabled timestamp means enrollment started
// but was never confirmed.
func (u User) HasMFA() bool {
	return u.MFAEnabled != nil
}

// Profile is the user shape returned to the panel. It never carries the
// password hash or MFA secret.
type Profile struct {
	ID         string `json:"id"`
	Email      string `json:"email"`
	FullName   string `json:"fullName"`
	Role       Role   `json:"role"`
	MFAEnabled bool   `json:"mfaEnabled"`
}

// ProfileOf strips a User down to its public shape.
func ProfileOf(u User) Profile {
	return Profile{
		ID:         u.ID,
		Email:      u.Email,
		FullName:   u.FullName,
		Role:       u.Role,
		MFAEnabled: u.HasMFA(),
	}
}

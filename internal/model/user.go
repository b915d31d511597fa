package model

import (
	"time"
)

type User struct {
	ID           string    `db:"id" json:"id"`
	Name         string    `db:"name" json:"name"`
	Email        string    `db:"email" json:"email"`
	PasswordHash *string   `db:"password_hash" json:"-"` // Nullable for Google-only accounts
	GoogleID     *string   `db:"google_id" json:"-"`
	IsPremium    bool      `db:"is_premium" json:"isPremium"`
	CreatedAt    time.Time `db:"created_at" json:"createdAt"`
}

func (u *User) HasPassword() bool {
	return u.PasswordHash != nil && *u.PasswordHash != ""
}

// Public returns a copy safe to hand to other layers (no credentials).
func (u *User) Public() *User {
	c := *u
	c.PasswordHash = nil
	return &c
}

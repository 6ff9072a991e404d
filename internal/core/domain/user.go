package domain

import "time"

// Account is a user as persisted: credentials plus the role reference in
// whichever shape storage holds it.
type Account struct {
	ID           string    `bson:"_id"`
	Name         string    `bson:"name"`
	Email        string    `bson:"email"`
	Active       bool      `bson:"active"`
	PasswordHash string    `bson:"password_hash"`
	RoleID       string    `bson:"role_id,omitempty"`
	Cargo        RoleRef   `bson:"cargo,omitempty"`
	CreatedAt    time.Time `bson:"created_at"`
	UpdatedAt    time.Time `bson:"updated_at"`
}

// User is an authenticated actor with its role already normalized.
type User struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Email  string `json:"email"`
	Active bool   `json:"active"`
	Role   Role   `json:"cargo"`
}

// ToUser builds the canonical user from the account and its resolved role.
func (a *Account) ToUser(role RoleRef) User {
	return User{
		ID:     a.ID,
		Name:   a.Name,
		Email:  a.Email,
		Active: a.Active,
		Role:   role.Canonical(),
	}
}

// UserOption is the lightweight shape used to fill selection inputs.
type UserOption struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

package domain

import "time"

// Credentials is the access/refresh token pair issued by the identity service.
type Credentials struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
}

// Valid reports whether the pair carries an access token.
func (c Credentials) Valid() bool {
	return c.AccessToken != ""
}

// Identity is the user profile resolved from a valid access token.
type Identity struct {
	ID        int64     `json:"id"`
	Username  string    `json:"username"`
	Email     string    `json:"email"`
	FirstName string    `json:"first_name,omitempty"`
	LastName  string    `json:"last_name,omitempty"`
	Phone     string    `json:"phone,omitempty"`
	Avatar    string    `json:"avatar,omitempty"`
	IsSeller  bool      `json:"is_seller"`
	CreatedAt time.Time `json:"created_at,omitempty"`
}

// FullName joins first and last name, empty when either is missing.
func (i Identity) FullName() string {
	if i.FirstName == "" || i.LastName == "" {
		return ""
	}
	return i.FirstName + " " + i.LastName
}

package models

import "github.com/golang-jwt/jwt/v5"

// Principal is the authenticated caller. It is passed explicitly to every
// user-scoped service call.
type Principal struct {
	UserID      string `json:"user_id"`
	Email       string `json:"email"`
	DisplayName string `json:"display_name"`
}

// TokenClaims is the payload of bearer tokens minted by the identity bridge.
type TokenClaims struct {
	Email string `json:"email"`
	Name  string `json:"name"`
	jwt.RegisteredClaims
}

// Principal converts verified claims into a Principal.
func (c *TokenClaims) Principal() Principal {
	name := c.Name
	if name == "" {
		name = c.Email
	}
	return Principal{UserID: c.Subject, Email: c.Email, DisplayName: name}
}

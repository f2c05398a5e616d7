package model

import "time"

type LoginSession struct {
	ID        int64     `json:"id"`
	UserID    int64     `json:"user_id"`
	Token     string    `json:"-"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"created_at"`
	ExpiresAt time.Time `json:"expires_at"`
}

func (s LoginSession) IsActive() bool {
	return s.Status == StatusActive
}

type TokenClaims struct {
	UserID    int64
	Role      string
	TokenID   string
	ExpiresAt time.Time
}

type AccessToken struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
}

// Principal is the identity the request gate attached to a request.
type Principal struct {
	User   User
	Token  string
	Claims TokenClaims
}

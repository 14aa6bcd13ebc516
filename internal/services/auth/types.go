package auth

import (
	"errors"
	"time"

	"github.com/Aayushman117/knowledgenest-kiroVision-IDE/internal/domain/enums"
)

var (
	ErrInvalidInput       = errors.New("invalid input")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrUnauthorized       = errors.New("unauthorized")
	ErrTokenExpired       = errors.New("token expired")
	ErrTokenInvalid       = errors.New("token invalid")
	ErrEmailTaken         = errors.New("email already registered")
)

// Principal is the verified identity carried by a token. Role is
// embedded at issuance and not re-read per request; a role change
// becomes visible on the next refresh at the latest.
type Principal struct {
	SubjectID int64
	Email     string
	Role      enums.Role
}

type TokenPair struct {
	AccessToken      string
	RefreshToken     string
	AccessExpiresAt  time.Time
	RefreshExpiresAt time.Time
}

type AuthResult struct {
	User   UserInfo
	Tokens TokenPair
}

type UserInfo struct {
	ID    int64
	Name  string
	Email string
	Role  enums.Role
}

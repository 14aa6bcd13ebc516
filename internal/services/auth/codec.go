package auth

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	jwt "github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/Aayushman117/knowledgenest-kiroVision-IDE/internal/domain/enums"
)

const (
	classAccess  = "access"
	classRefresh = "refresh"
)

// Codec signs and verifies both token classes. Access and refresh
// tokens use separate secrets, so a leaked refresh secret cannot be
// used to forge access tokens and vice versa.
type Codec struct {
	accessSecret  []byte
	refreshSecret []byte
	accessTTL     time.Duration
	refreshTTL    time.Duration
	now           func() time.Time
}

type tokenClaims struct {
	Email string `json:"email"`
	Role  string `json:"role"`
	Class string `json:"cls"`
	jwt.RegisteredClaims
}

func NewCodec(accessSecret, refreshSecret string, accessTTL, refreshTTL time.Duration) *Codec {
	if accessTTL <= 0 {
		accessTTL = 15 * time.Minute
	}
	if refreshTTL <= 0 {
		refreshTTL = 7 * 24 * time.Hour
	}

	return &Codec{
		accessSecret:  []byte(accessSecret),
		refreshSecret: []byte(refreshSecret),
		accessTTL:     accessTTL,
		refreshTTL:    refreshTTL,
		now:           time.Now,
	}
}

func (c *Codec) AccessTTL() time.Duration  { return c.accessTTL }
func (c *Codec) RefreshTTL() time.Duration { return c.refreshTTL }

func (c *Codec) IssueAccess(p Principal) (string, time.Time, error) {
	return c.issue(p, classAccess, c.accessSecret, c.accessTTL)
}

func (c *Codec) IssueRefresh(p Principal) (string, time.Time, error) {
	return c.issue(p, classRefresh, c.refreshSecret, c.refreshTTL)
}

func (c *Codec) VerifyAccess(raw string) (Principal, error) {
	return c.verify(raw, classAccess, c.accessSecret)
}

func (c *Codec) VerifyRefresh(raw string) (Principal, error) {
	return c.verify(raw, classRefresh, c.refreshSecret)
}

func (c *Codec) issue(p Principal, class string, secret []byte, ttl time.Duration) (string, time.Time, error) {
	if len(secret) == 0 {
		return "", time.Time{}, fmt.Errorf("jwt secret is empty")
	}
	if p.SubjectID <= 0 {
		return "", time.Time{}, ErrInvalidInput
	}

	now := c.now().UTC()
	expiresAt := now.Add(ttl)
	claims := tokenClaims{
		Email: p.Email,
		Role:  string(p.Role),
		Class: class,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.FormatInt(p.SubjectID, 10),
			ID:        uuid.NewString(),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("sign %s token: %w", class, err)
	}

	return signed, expiresAt, nil
}

func (c *Codec) verify(raw, class string, secret []byte) (Principal, error) {
	if strings.TrimSpace(raw) == "" {
		return Principal{}, ErrTokenInvalid
	}

	claims := &tokenClaims{}
	token, err := jwt.ParseWithClaims(raw, claims, func(_ *jwt.Token) (interface{}, error) {
		return secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Name}),
		jwt.WithTimeFunc(func() time.Time { return c.now() }),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return Principal{}, ErrTokenExpired
		}
		return Principal{}, ErrTokenInvalid
	}
	if token == nil || !token.Valid {
		return Principal{}, ErrTokenInvalid
	}
	if claims.Class != class {
		return Principal{}, ErrTokenInvalid
	}

	subjectID, parseErr := strconv.ParseInt(claims.Subject, 10, 64)
	if parseErr != nil || subjectID <= 0 {
		return Principal{}, ErrTokenInvalid
	}

	role, ok := enums.ParseRole(claims.Role)
	if !ok {
		return Principal{}, ErrTokenInvalid
	}

	return Principal{
		SubjectID: subjectID,
		Email:     claims.Email,
		Role:      role,
	}, nil
}

package auth

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"eventhub/internal/domain"
)

type jwtClaims struct {
	jwt.RegisteredClaims
	Email string `json:"email,omitempty"`
}

// JWTCodec issues and verifies HS256-signed bearer credentials. The
// credential carries the user ID as subject plus issued-at and expiry
// claims.
type JWTCodec struct {
	secret []byte
}

// NewJWTCodec returns a codec signing with the given secret.
func NewJWTCodec(secret string) *JWTCodec {
	return &JWTCodec{secret: []byte(secret)}
}

var (
	_ domain.TokenIssuer   = (*JWTCodec)(nil)
	_ domain.TokenVerifier = (*JWTCodec)(nil)
)

func (c *JWTCodec) Issue(userID domain.ID, email string, expiry time.Duration) (string, error) {
	now := time.Now()
	claims := jwtClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID.String(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(expiry)),
		},
		Email: email,
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString(c.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return tokenString, nil
}

// Verify checks signature and expiry and returns the subject identifier.
// Any failure maps to domain.ErrInvalidCredential; the caller decides
// whether that is fatal (mutations) or degrades to anonymous (reads).
func (c *JWTCodec) Verify(tokenString string) (domain.ID, error) {
	token, err := jwt.ParseWithClaims(tokenString, &jwtClaims{}, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return c.secret, nil
	})
	if err != nil || !token.Valid {
		return "", domain.ErrInvalidCredential
	}
	claims, ok := token.Claims.(*jwtClaims)
	if !ok || claims.Subject == "" {
		return "", domain.ErrInvalidCredential
	}
	return domain.ID(claims.Subject), nil
}

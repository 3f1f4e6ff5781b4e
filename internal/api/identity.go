package api

import (
	"errors"
	"fmt"

	"github.com/golang-jwt/jwt/v5"
	errorvalues "github.com/marwo/buddyfit/internal/error_values"
)

// The gateway in front of this service owns authentication. It forwards a
// short-lived HS256 token naming the acting user; all we do here is verify
// the signature and lift the user id out.
type IdentityClaims struct {
	jwt.RegisteredClaims
	UserID string `json:"user_id"`
}

type IdentityVerifier struct {
	secret []byte
}

func NewIdentityVerifier(secret string) *IdentityVerifier {
	return &IdentityVerifier{
		secret: []byte(secret),
	}
}

func (v *IdentityVerifier) Parse(tokenString string) (*IdentityClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &IdentityClaims{}, func(t *jwt.Token) (any, error) {
		if t.Method != jwt.SigningMethodHS256 {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return v.secret, nil
	})
	if err != nil {
		return nil, errors.New("token parsing error: " + err.Error())
	}
	claims, ok := token.Claims.(*IdentityClaims)
	if !ok || !token.Valid {
		return nil, errorvalues.ErrInvalidToken
	}
	return claims, nil
}

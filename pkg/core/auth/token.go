package auth

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// TokenTTL is how long an issued bearer token stays valid.
const TokenTTL = 12 * time.Hour

// Claims is the verified content of a bearer token: who the caller is
// and which authorization they logged in under. Role-gated operations
// receive these as input and never see credential material.
type Claims struct {
	PersonID      string
	Authorization Role
}

// IssueToken signs a bearer token for a person under one authorization.
func IssueToken(secret string, personID string, authorization Role) (string, error) {
	claims := jwt.MapClaims{
		"user_id":       personID,
		"authorization": string(authorization),
		"exp":           time.Now().Add(TokenTTL).Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(secret))
}

// VerifyToken parses and validates a bearer token and extracts its
// claims. An unknown authorization value fails verification.
func VerifyToken(secret, tokenString string) (Claims, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrSignatureInvalid
		}
		return []byte(secret), nil
	})
	if err != nil || !token.Valid {
		return Claims{}, fmt.Errorf("invalid or expired token")
	}

	mapClaims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return Claims{}, fmt.Errorf("invalid token claims")
	}
	personID, _ := mapClaims["user_id"].(string)
	authorization, _ := mapClaims["authorization"].(string)
	if personID == "" || !Role(authorization).IsValid() {
		return Claims{}, fmt.Errorf("invalid token claims")
	}

	return Claims{PersonID: personID, Authorization: Role(authorization)}, nil
}

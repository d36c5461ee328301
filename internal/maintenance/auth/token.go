// Package auth extracts the acting user from JWT bearer tokens and
// declares the minimum role for each lifecycle operation. The company
// scope of every core operation comes from the authenticated actor,
// never from client-supplied entity IDs.
package auth

import (
	"fmt"
	"time"

	"github.com/mzeldin/upkeep/internal/maintenance/models"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// Actor is the authenticated caller of a core operation.
type Actor struct {
	UserID    uuid.UUID
	CompanyID uuid.UUID
	Role      models.Role
}

// GenerateToken mints an HS256 token carrying the actor identity.
func GenerateToken(actor Actor, secret string, ttl time.Duration) (string, error) {
	claims := jwt.MapClaims{
		"sub":  actor.UserID.String(),
		"cid":  actor.CompanyID.String(),
		"role": string(actor.Role),
		"exp":  time.Now().Add(ttl).Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(secret))
}

// ParseToken validates the token and rebuilds the actor.
func ParseToken(tokenString, secret string) (*Actor, error) {
	token, err := jwt.Parse(tokenString, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return []byte(secret), nil
	})
	if err != nil {
		return nil, err
	}
	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok || !token.Valid {
		return nil, fmt.Errorf("invalid token")
	}

	userID, err := uuid.Parse(stringClaim(claims, "sub"))
	if err != nil {
		return nil, fmt.Errorf("invalid sub claim: %w", err)
	}
	companyID, err := uuid.Parse(stringClaim(claims, "cid"))
	if err != nil {
		return nil, fmt.Errorf("invalid cid claim: %w", err)
	}
	role := models.Role(stringClaim(claims, "role"))
	if !role.Valid() {
		return nil, fmt.Errorf("invalid role claim")
	}

	return &Actor{UserID: userID, CompanyID: companyID, Role: role}, nil
}

func stringClaim(claims jwt.MapClaims, key string) string {
	v, _ := claims[key].(string)
	return v
}

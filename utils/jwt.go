package utils

import (
	"fmt"
	"log"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const tokenTTL = 24 * time.Hour

var jwtSecret []byte

// Claims identify the caller. MemberID is the binary tree node the user owns.
type Claims struct {
	UserID   uint   `json:"user_id"`
	MemberID uint   `json:"member_id"`
	Username string `json:"username"`
	IsAdmin  bool   `json:"is_admin"`
	jwt.RegisteredClaims
}

// InitializeJWT sets up the JWT secret
func InitializeJWT(secret string) error {
	if secret == "" {
		return fmt.Errorf("JWT secret must not be empty")
	}
	if len(secret) < 32 {
		log.Printf("WARNING: JWT secret should be at least 32 characters for security, got %d", len(secret))
	}
	jwtSecret = []byte(secret)
	return nil
}

func GenerateToken(userID, memberID uint, username string, isAdmin bool) (string, error) {
	if jwtSecret == nil {
		return "", fmt.Errorf("JWT secret not initialized")
	}

	now := time.Now()
	claims := Claims{
		UserID:   userID,
		MemberID: memberID,
		Username: username,
		IsAdmin:  isAdmin,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Subject:   username,
			ExpiresAt: jwt.NewNumericDate(now.Add(tokenTTL)),
			IssuedAt:  jwt.NewNumericDate(now),
			Issuer:    "binarymlm-go",
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(jwtSecret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, nil
}

func ValidateToken(tokenString string) (*Claims, error) {
	if jwtSecret == nil {
		return nil, fmt.Errorf("JWT secret not initialized")
	}

	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return jwtSecret, nil
	}, jwt.WithExpirationRequired())
	if err != nil {
		return nil, fmt.Errorf("failed to parse token: %w", err)
	}
	if !token.Valid {
		return nil, fmt.Errorf("invalid token")
	}
	return claims, nil
}

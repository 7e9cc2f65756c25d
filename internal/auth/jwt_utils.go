package auth

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var (
	mu       sync.RWMutex
	jwtKey   []byte
	tokenTTL = 24 * time.Hour
)

var ErrInvalidToken = errors.New("invalid token")

// Init sets the signing secret and token lifetime. Call once at startup.
func Init(secret string, ttl time.Duration) {
	mu.Lock()
	defer mu.Unlock()
	jwtKey = []byte(secret)
	if ttl > 0 {
		tokenTTL = ttl
	}
}

// Claims defines what is inside the token (The "ID Card")
type Claims struct {
	UserID uint   `json:"user_id"`
	Role   string `json:"role"`
	jwt.RegisteredClaims
}

// GenerateToken creates a signed JWT for a user
func GenerateToken(userID uint, role string) (string, error) {
	mu.RLock()
	key, ttl := jwtKey, tokenTTL
	mu.RUnlock()
	if len(key) == 0 {
		return "", errors.New("auth: signing secret not configured")
	}

	now := time.Now()
	claims := &Claims{
		UserID: userID,
		Role:   role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   fmt.Sprint(userID),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(key)
}

// ValidateToken checks if a token is fake or expired
func ValidateToken(tokenString string) (*Claims, error) {
	mu.RLock()
	key := jwtKey
	mu.RUnlock()

	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		return key, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if !token.Valid || claims.UserID == 0 {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

// ResolveActor returns the actor id and role carried by a valid token.
func ResolveActor(tokenString string) (uint, string, error) {
	claims, err := ValidateToken(tokenString)
	if err != nil {
		return 0, "", err
	}
	return claims.UserID, claims.Role, nil
}

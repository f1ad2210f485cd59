package utils

import (
	"time" // Time for token expiration

	"github.com/golang-jwt/jwt/v5" // JWT library
)

// Claims carried by the session token issued at login. The token is
// advisory: request identity still comes from the wallet address header,
// matching the portal's stated trust model.
type Claims struct {
	WalletAddress        string `json:"wallet_address"` // Custom claim for the wallet address
	jwt.RegisteredClaims        // Standard JWT claims
}

// GenerateSessionToken creates a signed session token for a wallet address
func GenerateSessionToken(walletAddress, secret string) (string, error) {
	// Set token claims
	claims := Claims{
		WalletAddress: walletAddress, // Custom claim for the wallet address
		// Standard claims
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(24 * time.Hour)), // Token expires in 24 hours
			IssuedAt:  jwt.NewNumericDate(time.Now()),                     // Issued at current time
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims) // Create token with claims
	return token.SignedString([]byte(secret))                  // Sign the token with the secret
}

// ParseSessionToken parses and validates a session token string
func ParseSessionToken(tokenStr, secret string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenStr, &Claims{}, func(token *jwt.Token) (any, error) {
		return []byte(secret), nil // Return the secret key for validation
	})
	// Check for parsing errors
	if err != nil {
		return nil, err // Return error if parsing fails
	}
	// Validate token and extract claims
	if claims, ok := token.Claims.(*Claims); ok && token.Valid {
		return claims, nil // Return claims if valid
	}
	// Return error if token is invalid
	return nil, jwt.ErrSignatureInvalid
}

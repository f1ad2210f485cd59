package middleware

import (
	"net/http" // HTTP status codes
	"strings"  // String manipulation

	"applet_portal/internal/utils" // Session token helpers

	"github.com/gin-gonic/gin" // Gin web framework
)

// WalletHeader is the client-supplied identity header. The backend
// trusts it without signature verification; the session token issued at
// login is only consulted when the header is absent.
const WalletHeader = "x-wallet-address"

// WalletAddress returns the wallet address resolved for the request.
func WalletAddress(c *gin.Context) string {
	addr, _ := c.Get("walletAddress")
	s, _ := addr.(string)
	return s
}

// RequireWallet resolves the caller's wallet address and aborts with a
// validation error when none is supplied.
func RequireWallet(jwtSecret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		addr := c.GetHeader(WalletHeader) // Identity header comes first
		if addr == "" && jwtSecret != "" {
			// Fall back to the advisory session token
			if auth := c.GetHeader("Authorization"); strings.HasPrefix(auth, "Bearer ") {
				if claims, err := utils.ParseSessionToken(strings.TrimPrefix(auth, "Bearer "), jwtSecret); err == nil {
					addr = claims.WalletAddress
				}
			}
		}
		if addr == "" {
			// If no identity was supplied, abort with bad request
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "Wallet address header required"})
			return
		}
		c.Set("walletAddress", addr) // Store wallet address in context
		c.Next()                     // Proceed to the next handler
	}
}

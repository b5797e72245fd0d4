package auth

import (
	"github.com/xkartlabs/xkart-backend/pkg/enums"
	"github.com/golang-jwt/jwt/v5"
)

// AccessTokenPayload captures the data available when minting a JWT.
// Principal is the opaque verified identity the engine trusts; the token
// layer never interprets it.
type AccessTokenPayload struct {
	Principal string
	Role      enums.ActorRole
	JTI       string
}

// AccessTokenClaims represents the typed JWT issued to clients.
type AccessTokenClaims struct {
	Principal string          `json:"principal"`
	Role      enums.ActorRole `json:"role"`
	jwt.RegisteredClaims
}

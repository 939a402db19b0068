package auth

import (
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/vendora-hq/fulfillment-backend/pkg/enums"
)

// AccessTokenPayload captures the data available when minting a JWT. Minting
// lives in the external auth service; it is kept here for tests and tooling.
type AccessTokenPayload struct {
	ActorID   uuid.UUID
	ActorType enums.ActorType
	JTI       string
}

// AccessTokenClaims represents the typed JWT asserted by the auth layer. The
// engine trusts these claims; it performs no credential checks of its own.
type AccessTokenClaims struct {
	ActorID   uuid.UUID       `json:"actor_id"`
	ActorType enums.ActorType `json:"actor_type"`
	jwt.RegisteredClaims
}

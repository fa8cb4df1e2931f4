package service

import (
	"errors"
	"strings"
	"time"

	"github.com/agrimart/ordercore/internal/constants"

	"github.com/golang-jwt/jwt/v5"
)

// Principal is the authenticated caller supplied by the identity service
type Principal struct {
	ID   uint   `json:"id"`
	Role string `json:"role"`
}

// SystemPrincipal is used by the scheduler and webhooks
var SystemPrincipal = Principal{Role: constants.ActorSystem}

// IsAdmin reports an admin caller
func (p Principal) IsAdmin() bool { return p.Role == constants.RoleAdmin }

// TimelineActor maps the role to a status timeline actor
func (p Principal) TimelineActor() string {
	switch p.Role {
	case constants.RoleAdmin:
		return constants.ActorAdmin
	case constants.RoleVendor:
		return constants.ActorVendor
	case constants.RoleUser:
		return constants.ActorUser
	default:
		return constants.ActorSystem
	}
}

func (p Principal) actorID() *uint {
	if p.ID == 0 {
		return nil
	}
	id := p.ID
	return &id
}

// PrincipalClaims is the JWT body issued by the identity service
type PrincipalClaims struct {
	PrincipalID uint   `json:"id"`
	Role        string `json:"role"`
	jwt.RegisteredClaims
}

var errInvalidPrincipalToken = errors.New("invalid principal token")

// SignPrincipalToken issues an HS256 token, used by dev tooling and tests
func SignPrincipalToken(secret string, principal Principal, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := PrincipalClaims{
		PrincipalID: principal.ID,
		Role:        principal.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(secret))
}

// ParsePrincipalToken validates the token and returns its principal
func ParsePrincipalToken(secret, tokenString string) (Principal, error) {
	tokenString = strings.TrimSpace(tokenString)
	if tokenString == "" {
		return Principal{}, errInvalidPrincipalToken
	}
	claims := &PrincipalClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		return []byte(secret), nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil || !token.Valid {
		return Principal{}, errInvalidPrincipalToken
	}
	switch claims.Role {
	case constants.RoleUser, constants.RoleVendor, constants.RoleSeller, constants.RoleAdmin:
	default:
		return Principal{}, errInvalidPrincipalToken
	}
	if claims.PrincipalID == 0 {
		return Principal{}, errInvalidPrincipalToken
	}
	return Principal{ID: claims.PrincipalID, Role: claims.Role}, nil
}

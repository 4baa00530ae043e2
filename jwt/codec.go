package jwt

import (
	"encoding/json"
	"errors"
	"strconv"
	"strings"

	"github.com/golang-jwt/jwt/v5"
)

// Role is the authorization tier advertised by an access token.
type Role string

const (
	// RoleUser is the default shopper tier.
	RoleUser Role = "user"
	// RoleAdmin grants access to the admin surfaces.
	RoleAdmin Role = "admin"
)

// Claims carries the identity fields read from an access token payload.
type Claims struct {
	SubjectID string
	Role      Role
}

// Parser state is read-only after construction, so one instance is shared.
var parser = jwt.NewParser()

// Decode extracts the subject and role claims from accessToken without
// verifying its signature.
//
// Decode never fails: a token that cannot be decoded yields an empty
// SubjectID and RoleUser. A missing or unrecognized role claim yields
// RoleUser.
func Decode(accessToken string) Claims {
	out := Claims{Role: RoleUser}

	accessToken = strings.TrimSpace(accessToken)
	if accessToken == "" {
		return out
	}

	claims := jwt.MapClaims{}
	if _, _, err := parser.ParseUnverified(accessToken, claims); err != nil {
		// The payload is decoded before the alg header is looked up, so an
		// unknown algorithm still leaves usable claims behind.
		if !errors.Is(err, jwt.ErrTokenUnverifiable) {
			return out
		}
	}

	out.SubjectID = claimString(claims["sub"])
	out.Role = ParseRole(claimString(claims["role"]))
	return out
}

// ParseRole maps a raw role string onto a known Role. Only the exact string
// "admin" grants RoleAdmin; anything else, including case or whitespace
// variants, is RoleUser.
func ParseRole(raw string) Role {
	if Role(raw) == RoleAdmin {
		return RoleAdmin
	}
	return RoleUser
}

func claimString(v interface{}) string {
	switch value := v.(type) {
	case string:
		return value
	case json.Number:
		return value.String()
	case float64:
		return strconv.FormatFloat(value, 'f', -1, 64)
	default:
		return ""
	}
}

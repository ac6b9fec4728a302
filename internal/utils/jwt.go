package utils // package utils provides helpers for session token creation and verification

import (
	"crypto/rand" // secure random generation for token ids
	"encoding/hex"
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5" // JWT library for creating signed tokens
)

// SessionCookieName is the cookie carrying the session token.  The name is
// part of the public API contract with the frontend.
const SessionCookieName = "rm_auth"

// SessionToken represents a signed HS256 JWT bound to a user identity along
// with the fields the handlers need without re-parsing it.  The token lives
// only in the session cookie; it is never returned in a JSON body.
type SessionToken struct {
	Token string    // the serialized JWT string
	ID    string    // the jti claim, used as the revocation key
	Exp   time.Time // the UTC expiration time
}

// SessionClaims is what VerifySessionToken extracts from a valid token.
type SessionClaims struct {
	UserID uint64    // sub claim
	Role   string    // role claim
	ID     string    // jti claim
	Exp    time.Time // exp claim
}

// ErrTokenExpired marks a token whose signature checked out but whose exp
// has passed.  Handlers report this distinctly from a garbled token: both
// mean "log in again" and carry no enumeration risk.
var ErrTokenExpired = errors.New("session token expired")

// ErrTokenInvalid covers every other verification failure (bad signature,
// malformed payload, wrong algorithm, missing claims).
var ErrTokenInvalid = errors.New("session token invalid")

// NewSessionToken builds and signs an HS256 JWT for a user.  It takes the
// signing secret, the user ID, the user's role, and a TTL in minutes.  The
// JWT carries standard claims (sub, exp, iat, jti) plus the role; jti is a
// random 128-bit hex string so individual sessions can be revoked without
// storing the raw token anywhere.
func NewSessionToken(secret string, userID uint64, role string, ttlMin int) (SessionToken, error) {
	jti, err := randomHex(16)
	if err != nil {
		return SessionToken{}, err
	}
	now := time.Now().UTC()
	exp := now.Add(time.Duration(ttlMin) * time.Minute)
	claims := jwt.MapClaims{
		"sub":  userID,
		"role": role,
		"jti":  jti,
		"exp":  exp.Unix(),
		"iat":  now.Unix(),
	}
	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := t.SignedString([]byte(secret))
	if err != nil {
		return SessionToken{}, err
	}
	return SessionToken{Token: signed, ID: jti, Exp: exp}, nil
}

// VerifySessionToken parses and validates a session token.  Expired tokens
// yield ErrTokenExpired; any other failure yields ErrTokenInvalid.  The
// signing method is pinned to HMAC so a token signed with a different
// algorithm is rejected regardless of its payload.
func VerifySessionToken(secret, raw string) (SessionClaims, error) {
	tok, err := jwt.Parse(raw, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrTokenInvalid
		}
		return []byte(secret), nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return SessionClaims{}, ErrTokenExpired
		}
		return SessionClaims{}, ErrTokenInvalid
	}
	if !tok.Valid {
		return SessionClaims{}, ErrTokenInvalid
	}
	claims, ok := tok.Claims.(jwt.MapClaims)
	if !ok {
		return SessionClaims{}, ErrTokenInvalid
	}

	var out SessionClaims
	switch sub := claims["sub"].(type) {
	case float64:
		out.UserID = uint64(sub)
	default:
		return SessionClaims{}, ErrTokenInvalid
	}
	if role, ok := claims["role"].(string); ok {
		out.Role = role
	}
	jti, ok := claims["jti"].(string)
	if !ok || jti == "" {
		return SessionClaims{}, ErrTokenInvalid
	}
	out.ID = jti
	if exp, ok := claims["exp"].(float64); ok {
		out.Exp = time.Unix(int64(exp), 0).UTC()
	}
	return out, nil
}

// randomHex returns a hex-encoded string generated from n bytes of
// cryptographically secure random data.
func randomHex(n int) (string, error) {
	buf := make([]byte, n)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}

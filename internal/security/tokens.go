package security

import (
	"crypto"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// ErrInvalidToken is returned for any token that fails parsing or validation.
var ErrInvalidToken = errors.New("invalid token")

// AccessClaims are the claims of an access token issued by the identity service. The subject is the user id.
type AccessClaims struct {
	jwt.RegisteredClaims
	SessionID string `json:"sid,omitempty"`
}

// Identity is the caller resolved from a valid access token.
type Identity struct {
	UserID    string
	SessionID string
}

// Verifier validates access tokens (signature, exp, iss, aud). It never issues tokens.
type Verifier struct {
	publicKey crypto.PublicKey
	parser    *jwt.Parser
}

// NewVerifier returns a verifier for tokens signed by the holder of publicKey.
func NewVerifier(publicKey crypto.PublicKey, issuer, audience string) (*Verifier, error) {
	alg := KeyAlg(publicKey)
	if alg == "" {
		return nil, ErrInvalidKey
	}
	return &Verifier{
		publicKey: publicKey,
		parser: jwt.NewParser(
			jwt.WithValidMethods([]string{alg}),
			jwt.WithIssuer(issuer),
			jwt.WithAudience(audience),
			jwt.WithExpirationRequired(),
			jwt.WithLeeway(30*time.Second),
		),
	}, nil
}

// NewVerifierFromPEM parses a public key (inline PEM or path) and returns a verifier.
func NewVerifierFromPEM(publicKeyPEM, issuer, audience string) (*Verifier, error) {
	pub, err := ParsePublicKey(publicKeyPEM)
	if err != nil {
		return nil, err
	}
	return NewVerifier(pub, issuer, audience)
}

// Verify parses token and returns the caller identity. Any failure is ErrInvalidToken.
func (v *Verifier) Verify(token string) (Identity, error) {
	claims := &AccessClaims{}
	parsed, err := v.parser.ParseWithClaims(token, claims, func(*jwt.Token) (interface{}, error) {
		return v.publicKey, nil
	})
	if err != nil || !parsed.Valid || claims.Subject == "" {
		return Identity{}, ErrInvalidToken
	}
	return Identity{UserID: claims.Subject, SessionID: claims.SessionID}, nil
}

// Issuer signs access tokens. Production tokens come from the identity service; this exists for
// local development (marketctl token) and tests.
type Issuer struct {
	signer   crypto.Signer
	method   jwt.SigningMethod
	issuer   string
	audience string
	ttl      time.Duration
}

// NewIssuer returns an issuer signing with signer (RS256 or ES256).
func NewIssuer(signer crypto.Signer, issuer, audience string, ttl time.Duration) (*Issuer, error) {
	var method jwt.SigningMethod
	switch KeyAlg(signer.Public()) {
	case "RS256":
		method = jwt.SigningMethodRS256
	case "ES256":
		method = jwt.SigningMethodES256
	default:
		return nil, ErrInvalidKey
	}
	return &Issuer{signer: signer, method: method, issuer: issuer, audience: audience, ttl: ttl}, nil
}

// Issue signs an access token for userID. Returns the token and its expiry.
func (i *Issuer) Issue(userID, sessionID string) (string, time.Time, error) {
	jti, err := newJTI()
	if err != nil {
		return "", time.Time{}, err
	}
	now := time.Now().UTC()
	exp := now.Add(i.ttl)
	claims := AccessClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        jti,
			Subject:   userID,
			Issuer:    i.issuer,
			Audience:  jwt.ClaimStrings{i.audience},
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(exp),
		},
		SessionID: sessionID,
	}
	token, err := jwt.NewWithClaims(i.method, claims).SignedString(i.signer)
	if err != nil {
		return "", time.Time{}, err
	}
	return token, exp, nil
}

func newJTI() (string, error) {
	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}

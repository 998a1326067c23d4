package auth

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// DefaultTokenTTL bounds the lifetime of minted provider tokens.
const DefaultTokenTTL = 5 * time.Minute

// Claims are the JWT claims sent to the data provider.
type Claims struct {
	Scope string `json:"scope"`
	jwt.RegisteredClaims
}

// Signer mints short-lived HS256 tokens.
type Signer struct {
	secret  []byte
	issuer  string
	subject string
	ttl     time.Duration
	now     func() time.Time
}

// NewSigner constructs a signer. A non-positive ttl falls back to DefaultTokenTTL.
func NewSigner(secret []byte, issuer, subject string, ttl time.Duration) (*Signer, error) {
	if len(secret) == 0 {
		return nil, errors.New("auth: empty secret")
	}
	if ttl <= 0 {
		ttl = DefaultTokenTTL
	}
	return &Signer{
		secret:  secret,
		issuer:  issuer,
		subject: subject,
		ttl:     ttl,
		now:     time.Now,
	}, nil
}

// Sign returns a token carrying scope.
func (s *Signer) Sign(scope string) (string, error) {
	if s == nil {
		return "", errors.New("auth: nil signer")
	}
	now := s.now()
	claims := Claims{
		Scope: scope,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    s.issuer,
			Subject:   s.subject,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
}

// ParseToken validates a token signed with secret and returns its claims.
func ParseToken(tokenString string, secret []byte) (*Claims, error) {
	if tokenString == "" {
		return nil, errors.New("auth: empty token")
	}
	if len(secret) == 0 {
		return nil, errors.New("auth: empty secret")
	}

	parser := jwt.NewParser(jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	claims := &Claims{}
	token, err := parser.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("auth: invalid signing method")
		}
		return secret, nil
	})
	if err != nil {
		return nil, err
	}
	if !token.Valid {
		return nil, errors.New("auth: invalid token")
	}
	return claims, nil
}

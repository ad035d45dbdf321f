// Package token verifies access tokens issued by the external identity
// provider. Only HS256 tokens signed with the shared project secret are
// accepted.
package token

import (
	"errors"
	"fmt"
	"strings"

	"github.com/golang-jwt/jwt/v5"

	"rentmarket/internal/platform/middleware"
	"rentmarket/internal/session/models"
)

var (
	ErrInvalidToken   = errors.New("invalid identity token")
	ErrMissingSubject = errors.New("identity token has no subject")
)

// Claims is the subset of provider claims the marketplace reads.
type Claims struct {
	Email        string         `json:"email"`
	UserMetadata map[string]any `json:"user_metadata,omitempty"`
	jwt.RegisteredClaims
}

type Verifier struct {
	secret []byte
	issuer string
	parser *jwt.Parser
}

func NewVerifier(secret, issuer string) *Verifier {
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
	}
	if issuer != "" {
		opts = append(opts, jwt.WithIssuer(issuer))
	}
	return &Verifier{secret: []byte(secret), issuer: issuer, parser: jwt.NewParser(opts...)}
}

// Verify parses and validates a provider token into an IdentitySession.
func (v *Verifier) Verify(raw string) (*models.IdentitySession, error) {
	claims := &Claims{}
	_, err := v.parser.ParseWithClaims(raw, claims, func(*jwt.Token) (any, error) {
		return v.secret, nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidToken, err)
	}
	if strings.TrimSpace(claims.Subject) == "" {
		return nil, ErrMissingSubject
	}
	return &models.IdentitySession{
		SubjectID: claims.Subject,
		Email:     claims.Email,
		FullName:  metadataString(claims.UserMetadata, "full_name"),
		Name:      metadataString(claims.UserMetadata, "name"),
		AvatarURL: metadataString(claims.UserMetadata, "avatar_url"),
	}, nil
}

// VerifyIdentity satisfies middleware.IdentityVerifier.
func (v *Verifier) VerifyIdentity(raw string) (*middleware.Identity, error) {
	sess, err := v.Verify(raw)
	if err != nil {
		return nil, err
	}
	return &middleware.Identity{SubjectID: sess.SubjectID, Email: sess.Email}, nil
}

func metadataString(md map[string]any, key string) string {
	if s, ok := md[key].(string); ok {
		return s
	}
	return ""
}

package auth

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"storefront/internal/domain"

	"github.com/golang-jwt/jwt/v4"
)

const (
	// SessionCookieName 会话 Cookie 名称
	SessionCookieName = "storefront_session"
	// SessionDuration 会话有效期
	SessionDuration = 30 * 24 * time.Hour
)

var ErrInvalidSession = errors.New("invalid session")

// Claims 会话 JWT 载荷；sub 为 owner id
type Claims struct {
	jwt.RegisteredClaims
	Name  string `json:"name,omitempty"`
	Email string `json:"email,omitempty"`
	Image string `json:"picture,omitempty"`
}

// Valid requires a subject on top of the registered checks.
func (c *Claims) Valid() error {
	if err := c.RegisteredClaims.Valid(); err != nil {
		return err
	}
	if c.Subject == "" {
		return fmt.Errorf("claim has no subject")
	}
	return nil
}

// Sessions issues and verifies HS256 session tokens.
type Sessions struct {
	secret   []byte
	duration time.Duration
	secure   bool
	Now      func() time.Time
}

func NewSessions(secret string, secure bool) *Sessions {
	return &Sessions{
		secret:   []byte(secret),
		duration: SessionDuration,
		secure:   secure,
		Now:      time.Now,
	}
}

func (s *Sessions) Issue(ident domain.Identity) (string, error) {
	if ident.ID == "" {
		return "", domain.ErrAuthRequired
	}
	now := s.Now().UTC()
	claims := &Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   ident.ID,
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.duration)),
		},
		Name:  ident.Name,
		Email: ident.Email,
		Image: ident.Image,
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign session: %w", err)
	}
	return token, nil
}

func (s *Sessions) Parse(token string) (domain.Identity, error) {
	claims := &Claims{}
	parser := jwt.NewParser(jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	// 时间校验使用 s.Now，见下方
	parser.SkipClaimsValidation = true
	_, err := parser.ParseWithClaims(token, claims, func(*jwt.Token) (interface{}, error) {
		return s.secret, nil
	})
	if err != nil {
		return domain.Identity{}, fmt.Errorf("%w: %v", ErrInvalidSession, err)
	}
	now := s.Now()
	if !claims.VerifyExpiresAt(now, true) || !claims.VerifyNotBefore(now, false) {
		return domain.Identity{}, fmt.Errorf("%w: token expired", ErrInvalidSession)
	}
	if claims.Subject == "" {
		return domain.Identity{}, fmt.Errorf("%w: claim has no subject", ErrInvalidSession)
	}
	return domain.Identity{
		ID:    claims.Subject,
		Name:  claims.Name,
		Email: claims.Email,
		Image: claims.Image,
	}, nil
}

// FromRequest reads the session cookie, falling back to a bearer token.
func (s *Sessions) FromRequest(r *http.Request) (domain.Identity, error) {
	token := ""
	if c, err := r.Cookie(SessionCookieName); err == nil {
		token = c.Value
	}
	if token == "" {
		if h := r.Header.Get("Authorization"); len(h) > 7 && strings.EqualFold(h[:7], "bearer ") {
			token = strings.TrimSpace(h[7:])
		}
	}
	if token == "" {
		return domain.Identity{}, domain.ErrAuthRequired
	}
	return s.Parse(token)
}

func (s *Sessions) SetCookie(w http.ResponseWriter, token string) {
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookieName,
		Value:    token,
		Path:     "/",
		Expires:  s.Now().UTC().Add(s.duration),
		MaxAge:   int(s.duration.Seconds()),
		HttpOnly: true,
		Secure:   s.secure,
		SameSite: http.SameSiteLaxMode,
	})
}

func (s *Sessions) ClearCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookieName,
		Value:    "",
		Path:     "/",
		Expires:  s.Now().UTC().Add(-time.Hour),
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   s.secure,
		SameSite: http.SameSiteLaxMode,
	})
}

type ctxKey struct{}

// WithIdentity 将已认证身份放入 context
func WithIdentity(ctx context.Context, ident domain.Identity) context.Context {
	return context.WithValue(ctx, ctxKey{}, ident)
}

func IdentityFrom(ctx context.Context) (domain.Identity, bool) {
	ident, ok := ctx.Value(ctxKey{}).(domain.Identity)
	return ident, ok && ident.ID != ""
}

// OwnerID returns the authenticated owner id or "".
func OwnerID(ctx context.Context) string {
	ident, _ := IdentityFrom(ctx)
	return ident.ID
}

package auth

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"storefront/internal/domain"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"
	"golang.org/x/oauth2"
	ogh "golang.org/x/oauth2/github"
)

const (
	stateCookieName    = "storefront_oauth_state"
	callbackCookieName = "storefront_callback"
	defaultSuccessPath = "/dashboard"
	defaultFailurePath = "/signin?error=OAuthCallback"
)

// OwnerSyncer persists the authenticated identity.
type OwnerSyncer interface {
	EnsureOwner(ctx context.Context, ident domain.Identity) (*domain.Owner, error)
}

type GitHubConfig struct {
	ClientID     string
	ClientSecret string
	// RedirectURL 回调地址，如 https://app.example.com/auth/callback/github
	RedirectURL string
	// Endpoint and APIBaseURL default to github.com.
	Endpoint   oauth2.Endpoint
	APIBaseURL string
}

// GitHub OAuth 登录与回调
type GitHub struct {
	conf     *oauth2.Config
	api      *resty.Client
	sessions *Sessions
	owners   OwnerSyncer
	logger   *zap.Logger
}

func NewGitHub(cfg GitHubConfig, sessions *Sessions, owners OwnerSyncer, logger *zap.Logger) *GitHub {
	endpoint := cfg.Endpoint
	if endpoint.AuthURL == "" {
		endpoint = ogh.Endpoint
	}
	apiBase := cfg.APIBaseURL
	if apiBase == "" {
		apiBase = "https://api.github.com"
	}
	return &GitHub{
		conf: &oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			RedirectURL:  cfg.RedirectURL,
			Scopes:       []string{"read:user", "user:email"},
			Endpoint:     endpoint,
		},
		api: resty.New().
			SetBaseURL(strings.TrimRight(apiBase, "/")).
			SetTimeout(10*time.Second).
			SetHeader("Accept", "application/vnd.github+json"),
		sessions: sessions,
		owners:   owners,
		logger:   logger,
	}
}

// Login redirects to GitHub with a random state kept in a short-lived cookie.
func (g *GitHub) Login() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		state, err := randomString(32)
		if err != nil {
			g.logger.Error("Failed to generate OAuth state", zap.Error(err))
			http.Error(w, "internal error", http.StatusInternalServerError)
			return
		}
		g.setShortCookie(w, stateCookieName, state)
		if cb := SafeCallbackURL(r.URL.Query().Get("callbackUrl")); cb != "" {
			g.setShortCookie(w, callbackCookieName, cb)
		}
		http.Redirect(w, r, g.conf.AuthCodeURL(state, oauth2.AccessTypeOnline), http.StatusTemporaryRedirect)
	}
}

// Callback exchanges the code, syncs the owner and issues the session cookie.
func (g *GitHub) Callback() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		log := g.logger.With(
			zap.String("component", "auth"),
			zap.String("remote_addr", r.RemoteAddr))

		c, err := r.Cookie(stateCookieName)
		if err != nil || c.Value == "" || c.Value != r.FormValue("state") {
			log.Warn("Invalid OAuth state received")
			http.Redirect(w, r, defaultFailurePath, http.StatusTemporaryRedirect)
			return
		}
		g.clearCookie(w, stateCookieName)

		token, err := g.conf.Exchange(r.Context(), r.FormValue("code"))
		if err != nil {
			log.Error("Unable to exchange code for token", zap.Error(err))
			http.Redirect(w, r, defaultFailurePath, http.StatusTemporaryRedirect)
			return
		}

		ident, err := g.FetchIdentity(r.Context(), token.AccessToken)
		if err != nil {
			log.Error("Unable to load GitHub profile", zap.Error(err))
			http.Redirect(w, r, defaultFailurePath, http.StatusTemporaryRedirect)
			return
		}

		if _, err := g.owners.EnsureOwner(r.Context(), ident); err != nil {
			log.Error("Unable to sync owner", zap.String("owner_id", ident.ID), zap.Error(err))
			http.Redirect(w, r, defaultFailurePath, http.StatusTemporaryRedirect)
			return
		}

		session, err := g.sessions.Issue(ident)
		if err != nil {
			log.Error("Unable to issue session", zap.Error(err))
			http.Redirect(w, r, defaultFailurePath, http.StatusTemporaryRedirect)
			return
		}
		g.sessions.SetCookie(w, session)

		target := defaultSuccessPath
		if cb, err := r.Cookie(callbackCookieName); err == nil {
			if safe := SafeCallbackURL(cb.Value); safe != "" {
				target = safe
			}
			g.clearCookie(w, callbackCookieName)
		}
		log.Info("Owner authenticated", zap.String("owner_id", ident.ID))
		http.Redirect(w, r, target, http.StatusTemporaryRedirect)
	}
}

type githubUser struct {
	ID        int64  `json:"id"`
	Login     string `json:"login"`
	Name      string `json:"name"`
	Email     string `json:"email"`
	AvatarURL string `json:"avatar_url"`
}

type githubEmail struct {
	Email    string `json:"email"`
	Primary  bool   `json:"primary"`
	Verified bool   `json:"verified"`
}

// FetchIdentity loads /user and, when the profile email is private, the
// primary verified address from /user/emails.
func (g *GitHub) FetchIdentity(ctx context.Context, accessToken string) (domain.Identity, error) {
	var u githubUser
	resp, err := g.api.R().
		SetContext(ctx).
		SetAuthToken(accessToken).
		SetResult(&u).
		Get("/user")
	if err != nil {
		return domain.Identity{}, fmt.Errorf("failed to get github user: %w", err)
	}
	if resp.IsError() {
		return domain.Identity{}, fmt.Errorf("github user request failed: %s", resp.Status())
	}
	if u.ID == 0 {
		return domain.Identity{}, fmt.Errorf("github user has no id")
	}

	ident := domain.Identity{
		ID:    strconv.FormatInt(u.ID, 10),
		Name:  u.Name,
		Email: u.Email,
		Image: u.AvatarURL,
	}
	if ident.Name == "" {
		ident.Name = u.Login
	}
	if ident.Email != "" {
		return ident, nil
	}

	var emails []githubEmail
	resp, err = g.api.R().
		SetContext(ctx).
		SetAuthToken(accessToken).
		SetResult(&emails).
		Get("/user/emails")
	if err != nil {
		return domain.Identity{}, fmt.Errorf("failed to get github emails: %w", err)
	}
	if resp.IsError() {
		return domain.Identity{}, fmt.Errorf("github emails request failed: %s", resp.Status())
	}
	for _, e := range emails {
		if e.Primary && e.Verified {
			ident.Email = e.Email
			break
		}
	}
	return ident, nil
}

// SafeCallbackURL accepts only same-site absolute paths.
func SafeCallbackURL(raw string) string {
	if raw == "" || !strings.HasPrefix(raw, "/") || strings.HasPrefix(raw, "//") || strings.HasPrefix(raw, "/\\") {
		return ""
	}
	u, err := url.Parse(raw)
	if err != nil || u.Scheme != "" || u.Host != "" {
		return ""
	}
	return raw
}

func (g *GitHub) setShortCookie(w http.ResponseWriter, name, value string) {
	http.SetCookie(w, &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/",
		MaxAge:   int((10 * time.Minute).Seconds()),
		HttpOnly: true,
		Secure:   g.sessions.secure,
		SameSite: http.SameSiteLaxMode,
	})
}

func (g *GitHub) clearCookie(w http.ResponseWriter, name string) {
	http.SetCookie(w, &http.Cookie{Name: name, Value: "", Path: "/", MaxAge: -1, HttpOnly: true})
}

func randomString(n int) (string, error) {
	b := make([]byte, n)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}

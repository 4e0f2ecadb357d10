// Package tenancy maps the Host header to a store subdomain and rewrites the
// request onto the tenant-scoped /store/<subdomain> routes.
package tenancy

import (
	"context"
	"net"
	"net/http"
	"strings"

	"go.uber.org/zap"
)

// PathPrefix is the tenant-scoped route segment.
const PathPrefix = "/store/"

type ctxKey struct{}

// Resolver 子域名解析（无状态、无 I/O）
type Resolver struct {
	apexLabel string
	reserved  map[string]struct{}
	logger    *zap.Logger
}

func NewResolver(apexLabel string, logger *zap.Logger) *Resolver {
	apexLabel = strings.ToLower(strings.TrimSpace(apexLabel))
	reserved := map[string]struct{}{"www": {}, "localhost": {}}
	if apexLabel != "" {
		reserved[apexLabel] = struct{}{}
	}
	return &Resolver{apexLabel: apexLabel, reserved: reserved, logger: logger}
}

// Resolve returns the subdomain label for host, or ok=false for the
// default application surface. Malformed hosts are non-tenant.
func (r *Resolver) Resolve(host string) (subdomain string, ok bool) {
	host = strings.ToLower(strings.TrimSpace(host))
	if h, _, err := net.SplitHostPort(host); err == nil {
		host = h
	}
	host = strings.TrimSuffix(host, ".")
	if host == "" || net.ParseIP(strings.Trim(host, "[]")) != nil {
		return "", false
	}
	labels := strings.Split(host, ".")
	if len(labels) < 2 {
		return "", false
	}
	label := labels[0]
	if label == "" {
		return "", false
	}
	if _, reserved := r.reserved[label]; reserved {
		return "", false
	}
	return label, true
}

// Rewrite returns the tenant-scoped path for subdomain, preserving path verbatim.
func Rewrite(subdomain, path string) string {
	if path == "" {
		path = "/"
	}
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	return PathPrefix + subdomain + path
}

// Middleware rewrites tenant requests in place (no redirect) before next runs.
func (r *Resolver) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		sub, ok := r.Resolve(req.Host)
		if !ok {
			r.logger.Debug("non-tenant host", zap.String("host", req.Host))
			next.ServeHTTP(w, req)
			return
		}

		req = req.WithContext(WithSubdomain(req.Context(), sub))
		original := req.URL.Path
		u := *req.URL
		u.Path = Rewrite(sub, original)
		if u.RawPath != "" {
			u.RawPath = Rewrite(sub, u.RawPath)
		}
		req.URL = &u
		req.RequestURI = u.RequestURI()
		r.logger.Debug("tenant rewrite",
			zap.String("host", req.Host),
			zap.String("subdomain", sub),
			zap.String("path", original),
			zap.String("rewritten", u.Path))
		next.ServeHTTP(w, req)
	})
}

func WithSubdomain(ctx context.Context, subdomain string) context.Context {
	return context.WithValue(ctx, ctxKey{}, subdomain)
}

// SubdomainFrom returns the subdomain resolved for this request, if any.
func SubdomainFrom(ctx context.Context) (string, bool) {
	s, ok := ctx.Value(ctxKey{}).(string)
	return s, ok && s != ""
}

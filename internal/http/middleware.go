package httpapi

import (
	"context"
	"errors"
	"net/http"
	"time"

	"storefront/internal/auth"
	"storefront/internal/domain"
	"storefront/internal/tenancy"

	chimw "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
)

type rejectedKey struct{}

// logRequests 记录 method / path / 改写后路径 / status / 耗时 / request id
func (rt *Router) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := chimw.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		fields := []zap.Field{
			zap.String("method", r.Method),
			zap.String("host", r.Host),
			zap.String("path", r.URL.Path),
			zap.Int("status", ww.Status()),
			zap.Duration("duration", time.Since(start)),
			zap.String("request_id", chimw.GetReqID(r.Context())),
		}
		if sub, ok := tenancy.SubdomainFrom(r.Context()); ok {
			fields = append(fields, zap.String("subdomain", sub), zap.String("rewritten", r.URL.Path))
		}
		rt.logger.Info("http request", fields...)
	})
}

// loadSession 解析会话并同步 owner；无会话时按匿名继续
func (rt *Router) loadSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if rt.deps.Sessions == nil {
			next.ServeHTTP(w, r)
			return
		}
		ident, err := rt.deps.Sessions.FromRequest(r)
		if err != nil {
			if errors.Is(err, auth.ErrInvalidSession) {
				rt.logger.Debug("session rejected", zap.Error(err))
				r = r.WithContext(context.WithValue(r.Context(), rejectedKey{}, true))
			}
			next.ServeHTTP(w, r)
			return
		}
		if rt.deps.Identity != nil {
			if err := rt.deps.Identity.SyncOwner(r.Context(), ident); err != nil {
				// 同步失败不阻断请求，后续 owner 查询会再试
				rt.logger.Warn("owner sync failed", zap.String("owner_id", ident.ID), zap.Error(err))
			}
		}
		next.ServeHTTP(w, r.WithContext(auth.WithIdentity(r.Context(), ident)))
	})
}

func (rt *Router) requireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := auth.IdentityFrom(r.Context()); ok {
			next.ServeHTTP(w, r)
			return
		}
		if rejected, _ := r.Context().Value(rejectedKey{}).(bool); rejected {
			writeJSON(w, http.StatusUnauthorized, expired("session expired"))
			return
		}
		writeJSON(w, http.StatusUnauthorized, Fail(domain.ErrAuthRequired.Error()))
	})
}

func requestFields(r *http.Request, err error) []zap.Field {
	return []zap.Field{
		zap.String("method", r.Method),
		zap.String("path", r.URL.Path),
		zap.String("request_id", chimw.GetReqID(r.Context())),
		zap.Error(err),
	}
}

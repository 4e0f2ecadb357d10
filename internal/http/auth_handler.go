package httpapi

import (
	"net/http"

	"storefront/internal/auth"
	"storefront/internal/domain"
)

type sessionView struct {
	User *domain.Identity `json:"user"`
}

// session 未登录时 result.user 为 null
func (rt *Router) session(w http.ResponseWriter, r *http.Request) {
	ident, ok := auth.IdentityFrom(r.Context())
	if !ok {
		writeJSON(w, http.StatusOK, Ok(sessionView{}))
		return
	}
	writeJSON(w, http.StatusOK, Ok(sessionView{User: &ident}))
}

func (rt *Router) signOut(w http.ResponseWriter, r *http.Request) {
	if rt.deps.Sessions != nil {
		rt.deps.Sessions.ClearCookie(w)
	}
	writeJSON(w, http.StatusOK, Ok(true))
}

package httpapi

import (
	"fmt"
	"net/http"

	"storefront/internal/auth"
	"storefront/internal/service"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// setupSubdomain body: {storeId} 或 {subdomain}
func (rt *Router) setupSubdomain(w http.ResponseWriter, r *http.Request) {
	var req service.SetupSubdomainRequest
	if err := readBodyJSON(r, maxBodyBytes, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, Fail("invalid request body"))
		return
	}

	res, err := rt.deps.Subdomains.Setup(r.Context(), auth.OwnerID(r.Context()), req)
	if err != nil {
		rt.writeError(w, r, err)
		return
	}
	if !res.Success {
		// DNS 失败：记录返回 200 + success=false，由前端展示 message
		rt.logger.Warn("subdomain setup failed",
			zap.String("store_id", res.Store.ID),
			zap.String("subdomain", res.Store.Subdomain),
			zap.String("message", res.Message))
	}
	writeJSON(w, http.StatusOK, Ok(res))
}

// debugRelationships ?fix=true 时执行孤儿店铺挂接
func (rt *Router) debugRelationships(w http.ResponseWriter, r *http.Request) {
	fix := parseBool(r.URL.Query().Get("fix"), false)
	report, err := rt.deps.Ownership.Inspect(r.Context(), auth.OwnerID(r.Context()), fix)
	if err != nil {
		rt.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, Ok(report))
}

func (rt *Router) exportProducts(w http.ResponseWriter, r *http.Request) {
	storeID := chi.URLParam(r, "storeId")
	data, err := rt.deps.Catalog.ExportProducts(r.Context(), auth.OwnerID(r.Context()), storeID)
	if err != nil {
		rt.writeError(w, r, err)
		return
	}
	w.Header().Set("Content-Type", xlsxContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="products-%s.xlsx"`, storeID))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

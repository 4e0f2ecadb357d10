package httpapi

import (
	"net/http"

	"storefront/internal/domain"

	"github.com/go-chi/chi/v5"
)

// storeSummaryView 公开店铺信息，不含 owner
type storeSummaryView struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Industry  string `json:"industry"`
	Subdomain string `json:"subdomain"`
}

func (rt *Router) storeSummary(w http.ResponseWriter, r *http.Request) {
	st, err := rt.deps.Storefront.Store(r.Context(), chi.URLParam(r, "subdomain"))
	if err != nil {
		rt.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, Ok(storeSummaryView{
		ID:        st.ID,
		Name:      st.Name,
		Industry:  st.Industry,
		Subdomain: st.Subdomain,
	}))
}

func (rt *Router) storeProducts(w http.ResponseWriter, r *http.Request) {
	items, err := rt.deps.Storefront.Products(r.Context(), chi.URLParam(r, "subdomain"))
	if err != nil {
		rt.writeError(w, r, err)
		return
	}
	if items == nil {
		items = []*domain.Product{}
	}
	writeJSON(w, http.StatusOK, Ok(items))
}

func (rt *Router) storeProduct(w http.ResponseWriter, r *http.Request) {
	p, err := rt.deps.Storefront.Product(r.Context(), chi.URLParam(r, "subdomain"), chi.URLParam(r, "productId"))
	if err != nil {
		rt.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, Ok(p))
}

func (rt *Router) storeBlog(w http.ResponseWriter, r *http.Request) {
	posts, err := rt.deps.Storefront.BlogPosts(r.Context(), chi.URLParam(r, "subdomain"))
	if err != nil {
		rt.writeError(w, r, err)
		return
	}
	if posts == nil {
		posts = []*domain.BlogPost{}
	}
	writeJSON(w, http.StatusOK, Ok(posts))
}

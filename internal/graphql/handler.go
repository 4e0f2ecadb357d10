package gql

import (
	"encoding/json"
	"net/http"

	"github.com/graph-gophers/graphql-go"
	"go.uber.org/zap"
)

type params struct {
	Query         string         `json:"query"`
	OperationName string         `json:"operationName"`
	Variables     map[string]any `json:"variables"`
}

// Handler serves POST JSON bodies and GET query strings; GET documents may
// not contain mutations.
type Handler struct {
	Schema *graphql.Schema
	Logger *zap.Logger
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	var p params
	switch r.Method {
	case http.MethodGet:
		q := r.URL.Query()
		p.Query = q.Get("query")
		p.OperationName = q.Get("operationName")
		if v := q.Get("variables"); v != "" {
			if err := json.Unmarshal([]byte(v), &p.Variables); err != nil {
				http.Error(w, "invalid variables", http.StatusBadRequest)
				return
			}
		}
	case http.MethodPost:
		if err := json.NewDecoder(r.Body).Decode(&p); err != nil {
			http.Error(w, "invalid request body", http.StatusBadRequest)
			return
		}
	default:
		w.Header().Set("Allow", "GET, POST")
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	if p.Query == "" {
		http.Error(w, "missing query", http.StatusBadRequest)
		return
	}

	ctx := r.Context()
	if r.Method == http.MethodGet {
		if hasMutation(p.Query) {
			http.Error(w, "mutations require POST", http.StatusMethodNotAllowed)
			return
		}
		// 兜底：扫描漏判时 mutation 解析器仍会拒绝
		ctx = withReadOnly(ctx)
	}

	resp := h.Schema.Exec(ctx, p.Query, p.OperationName, p.Variables)
	if len(resp.Errors) > 0 && h.Logger != nil {
		h.Logger.Debug("GraphQL errors",
			zap.String("operation", p.OperationName),
			zap.Int("count", len(resp.Errors)),
			zap.String("first", resp.Errors[0].Message))
	}

	b, err := json.Marshal(resp)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_, _ = w.Write(b)
}

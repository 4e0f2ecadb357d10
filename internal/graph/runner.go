// Package graph is the query-execution boundary to the graph store: a Cypher
// string plus parameters in, named-field records out.
package graph

import (
	"context"
	"fmt"
	"time"
)

// Runner executes one Cypher statement in its own transaction.
type Runner interface {
	Run(ctx context.Context, cypher string, params map[string]any) ([]Record, error)
}

// Record 一行结果，按列名取值
type Record map[string]any

func (r Record) Get(key string) (any, bool) {
	v, ok := r[key]
	return v, ok
}

func (r Record) String(key string) string {
	return AsString(r[key])
}

func (r Record) Map(key string) map[string]any {
	m, _ := r[key].(map[string]any)
	return m
}

// RunnerFunc adapts a function to Runner.
type RunnerFunc func(ctx context.Context, cypher string, params map[string]any) ([]Record, error)

func (f RunnerFunc) Run(ctx context.Context, cypher string, params map[string]any) ([]Record, error) {
	return f(ctx, cypher, params)
}

func AsString(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case fmt.Stringer:
		return t.String()
	default:
		return fmt.Sprint(t)
	}
}

func AsInt64(v any) int64 {
	switch t := v.(type) {
	case int64:
		return t
	case int:
		return int64(t)
	case int32:
		return int64(t)
	case float64:
		return int64(t)
	default:
		return 0
	}
}

func AsFloat64(v any) float64 {
	switch t := v.(type) {
	case float64:
		return t
	case float32:
		return float64(t)
	case int64:
		return float64(t)
	case int:
		return float64(t)
	default:
		return 0
	}
}

// AsTime accepts driver temporal values and RFC3339 strings.
func AsTime(v any) time.Time {
	switch t := v.(type) {
	case time.Time:
		return t
	case string:
		if ts, err := time.Parse(time.RFC3339Nano, t); err == nil {
			return ts
		}
	}
	return time.Time{}
}

func AsStrings(v any) []string {
	switch t := v.(type) {
	case []string:
		return append([]string(nil), t...)
	case []any:
		out := make([]string, 0, len(t))
		for _, x := range t {
			out = append(out, AsString(x))
		}
		return out
	default:
		return []string{}
	}
}

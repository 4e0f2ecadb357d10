package graph

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecordAccessors(t *testing.T) {
	ts := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	rec := Record{
		"id":    "s1",
		"store": map[string]any{"sales": int64(3), "conversion": 0.5},
		"tags":  []any{"a", "b"},
		"at":    ts,
	}

	v, ok := rec.Get("id")
	require.True(t, ok)
	assert.Equal(t, "s1", v)
	_, ok = rec.Get("missing")
	assert.False(t, ok)

	assert.Equal(t, "s1", rec.String("id"))
	assert.Equal(t, "", rec.String("missing"))
	assert.Equal(t, float64(3), AsFloat64(rec.Map("store")["sales"]))
	assert.Equal(t, int64(0), AsInt64(rec.Map("store")["visitors"]))
	assert.Equal(t, []string{"a", "b"}, AsStrings(rec["tags"]))
	assert.Equal(t, []string{}, AsStrings(nil))
	assert.Equal(t, ts, AsTime(rec["at"]))
	assert.Equal(t, ts, AsTime("2024-05-01T12:00:00Z"))
	assert.True(t, AsTime(42).IsZero())
	assert.Nil(t, rec.Map("id"))
}

func TestEnsureConstraints(t *testing.T) {
	var seen []string
	r := RunnerFunc(func(_ context.Context, cypher string, _ map[string]any) ([]Record, error) {
		seen = append(seen, cypher)
		return nil, nil
	})
	require.NoError(t, EnsureConstraints(context.Background(), r))
	assert.Len(t, seen, len(constraints))
	assert.Contains(t, seen[1], "s.subdomain IS UNIQUE")

	failing := RunnerFunc(func(context.Context, string, map[string]any) ([]Record, error) {
		return nil, errors.New("boom")
	})
	err := EnsureConstraints(context.Background(), failing)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to ensure constraint")
}

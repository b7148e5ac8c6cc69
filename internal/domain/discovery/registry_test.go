package discovery

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubPlugin struct {
	name        string
	configured  bool
	queryTypes  []QueryType
}

func (s *stubPlugin) Name() string                       { return s.name }
func (s *stubPlugin) Description() string                { return "stub" }
func (s *stubPlugin) RequiresAuth() bool                  { return true }
func (s *stubPlugin) SupportedQueryTypes() []QueryType    { return s.queryTypes }
func (s *stubPlugin) SupportsQueryType(t QueryType) bool {
	for _, qt := range s.queryTypes {
		if qt == t {
			return true
		}
	}
	return false
}
func (s *stubPlugin) IsConfigured() bool { return s.configured }
func (s *stubPlugin) TranslateQuery(q Query) (string, error) {
	return q.Value, nil
}
func (s *stubPlugin) Search(ctx context.Context, q Query, maxResults int) Result {
	return Result{Query: q}
}

func TestRegistry_RegisterAndGet(t *testing.T) {
	r := NewRegistry()
	p := &stubPlugin{name: "shodan", configured: true}

	require.NoError(t, r.Register(p))

	got, ok := r.Get("shodan")
	assert.True(t, ok)
	assert.Equal(t, p, got)
}

func TestRegistry_DoubleRegistrationDifferentInstanceFails(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, r.Register(&stubPlugin{name: "shodan"}))

	err := r.Register(&stubPlugin{name: "shodan"})
	assert.Error(t, err)
}

func TestRegistry_ReRegisteringSameInstanceIsIdempotent(t *testing.T) {
	r := NewRegistry()
	p := &stubPlugin{name: "shodan"}
	require.NoError(t, r.Register(p))
	require.NoError(t, r.Register(p))
}

func TestRegistry_Configured(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, r.Register(&stubPlugin{name: "shodan", configured: true}))
	require.NoError(t, r.Register(&stubPlugin{name: "censys", configured: false}))

	configured := r.Configured()
	require.Len(t, configured, 1)
	assert.Equal(t, "shodan", configured[0].Name())
}

func TestRegistry_Unregister(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, r.Register(&stubPlugin{name: "shodan"}))
	r.Unregister("shodan")

	_, ok := r.Get("shodan")
	assert.False(t, ok)
}

func TestRegistry_Clear(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, r.Register(&stubPlugin{name: "shodan"}))
	r.Clear()
	assert.Empty(t, r.All())
}

package csrf

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistryRoutesAndGroups(t *testing.T) {
	reg := NewRegistry()
	require.NoError(t, reg.MarkExempt("/webhook"))
	require.NoError(t, reg.MarkGroupExempt("/api/"))

	assert.True(t, reg.IsExempt("/webhook"))
	assert.False(t, reg.IsExempt("/webhook/other"))
	assert.True(t, reg.IsExempt("/api/endpoint", "/", "/api"))
	assert.True(t, reg.IsExempt("/api/v1/items", PathGroups("/api/v1/items")...))
	assert.False(t, reg.IsExempt("/apix/endpoint", PathGroups("/apix/endpoint")...))
	assert.False(t, reg.IsExempt("/submit", PathGroups("/submit")...))
}

func TestRegistryEmptyIdentity(t *testing.T) {
	reg := NewRegistry()
	assert.Error(t, reg.MarkExempt(""))
	assert.Error(t, reg.MarkGroupExempt(""))
	assert.False(t, reg.IsExempt(""))
}

func TestRegistryFreeze(t *testing.T) {
	reg := NewRegistry()
	require.NoError(t, reg.MarkExempt("/before"))
	assert.False(t, reg.Frozen())

	reg.Freeze()
	reg.Freeze()
	assert.True(t, reg.Frozen())

	assert.ErrorIs(t, reg.MarkExempt("/after"), ErrRegistryFrozen)
	assert.ErrorIs(t, reg.MarkGroupExempt("/late"), ErrRegistryFrozen)
	assert.True(t, reg.IsExempt("/before"), "exemptions survive the freeze")
	assert.False(t, reg.IsExempt("/after"))
}

func TestNilRegistryExemptsNothing(t *testing.T) {
	var reg *Registry
	assert.False(t, reg.IsExempt("/anything", "/"))
}

func TestRootGroupExemptsEverything(t *testing.T) {
	reg := NewRegistry()
	require.NoError(t, reg.MarkGroupExempt("/"))
	assert.True(t, reg.IsExempt("/deep/path", PathGroups("/deep/path")...))
}

func TestPathGroups(t *testing.T) {
	assert.Equal(t, []string{"/", "/api", "/api/v1", "/api/v1/items"}, PathGroups("/api/v1/items"))
	assert.Equal(t, []string{"/", "/api"}, PathGroups("/api/*"))
	assert.Equal(t, []string{"/", "/api"}, PathGroups("/api/"))
	assert.Equal(t, []string{"/", "/api"}, PathGroups("/api"))
	assert.Equal(t, []string{"/", "/submit"}, PathGroups("/submit"))
	assert.Equal(t, []string{"/"}, PathGroups("/"))
	assert.Equal(t, []string{"/"}, PathGroups("/*"))
	assert.Nil(t, PathGroups("relative"))
}

func TestGroupCoversItsBasePath(t *testing.T) {
	reg := NewRegistry()
	require.NoError(t, reg.MarkGroupExempt("/hooks"))

	assert.True(t, reg.IsExempt("/hooks", PathGroups("/hooks")...))
	assert.True(t, reg.IsExempt("/hooks/", PathGroups("/hooks/")...))
	assert.True(t, reg.IsExempt("/hooks/x", PathGroups("/hooks/x")...))
	assert.False(t, reg.IsExempt("/hooksx", PathGroups("/hooksx")...))
}

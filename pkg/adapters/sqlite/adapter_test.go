package sqlite_test

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/aretw0/vanity/pkg/adapters/sqlite"
	"github.com/aretw0/vanity/pkg/connection"
	"github.com/aretw0/vanity/pkg/domain"
	"github.com/aretw0/vanity/pkg/ports"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSQLiteAdapter_Contract_InMemory(t *testing.T) {
	adapter, err := sqlite.Open(context.Background(), "", "test")
	require.NoError(t, err)
	ports.RunAdapterContract(t, adapter)
}

func TestSQLiteAdapter_Contract_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "vanity.db")
	adapter, err := sqlite.Open(context.Background(), path, "test")
	require.NoError(t, err)
	ports.RunAdapterContract(t, adapter)
}

func TestSQLiteAdapter_NamespacesAreIsolated(t *testing.T) {
	path := filepath.Join(t.TempDir(), "vanity.db")
	ctx := context.Background()

	a, err := sqlite.Open(ctx, path, "one")
	require.NoError(t, err)
	defer a.Disconnect()
	b, err := sqlite.Open(ctx, path, "two")
	require.NoError(t, err)
	defer b.Disconnect()

	day := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	require.NoError(t, a.MetricTrack(ctx, "signups", day, "", 3))

	values, err := b.MetricValues(ctx, "signups", day, day)
	require.NoError(t, err)
	assert.Equal(t, []int{0}, values)

	require.NoError(t, b.Flush(ctx))
	values, err = a.MetricValues(ctx, "signups", day, day)
	require.NoError(t, err)
	assert.Equal(t, []int{3}, values)
}

func TestSQLiteAdapter_EstablishedThroughManager(t *testing.T) {
	path := filepath.Join(t.TempDir(), "vanity.db")
	m := connection.NewManager()

	adapter, err := m.Establish(context.Background(), "sqlite://"+path)
	require.NoError(t, err)
	assert.IsType(t, &sqlite.Adapter{}, adapter)
	assert.True(t, m.Connected())

	spec, ok := m.Spec()
	require.True(t, ok)
	assert.Equal(t, path, spec.Path)

	require.NoError(t, m.Disconnect())
}

func TestSQLiteAdapter_RejectsHost(t *testing.T) {
	m := connection.NewManager()

	_, err := m.Establish(context.Background(), "sqlite://vanity.db")
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrConfiguration)
	assert.ErrorContains(t, err, "vanity.db")
	assert.False(t, m.Connected())

	adapter, err := m.Establish(context.Background(), "sqlite:")
	require.NoError(t, err)
	assert.IsType(t, &sqlite.Adapter{}, adapter)
	require.NoError(t, m.Disconnect())
}

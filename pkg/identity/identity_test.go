package identity_test

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/aretw0/vanity/pkg/identity"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromContext_Empty(t *testing.T) {
	_, ok := identity.FromContext(context.Background())
	assert.False(t, ok)
	assert.Equal(t, "", identity.IDFromContext(context.Background()))
	assert.Equal(t, "", identity.IDFromContext(nil)) //nolint:staticcheck // nil context is tolerated
}

func TestWithIdentity_RoundTrip(t *testing.T) {
	ctx := identity.WithIdentity(context.Background(), identity.ID("visitor-1"))

	id, ok := identity.FromContext(ctx)
	require.True(t, ok)
	assert.Equal(t, "visitor-1", id.ID())

	child, cancel := context.WithCancel(ctx)
	defer cancel()
	assert.Equal(t, "visitor-1", identity.IDFromContext(child), "descendants inherit the identity")
}

func TestClear(t *testing.T) {
	ctx := identity.WithIdentity(context.Background(), identity.ID("visitor-1"))
	cleared := identity.Clear(ctx)

	_, ok := identity.FromContext(cleared)
	assert.False(t, ok)
	assert.Equal(t, "visitor-1", identity.IDFromContext(ctx), "parent is untouched")
}

func TestAnonymous_Unique(t *testing.T) {
	a, b := identity.Anonymous(), identity.Anonymous()
	assert.NotEmpty(t, a.ID())
	assert.NotEqual(t, a, b)
}

func TestIsolation_ConcurrentUnits(t *testing.T) {
	const units = 50
	base := context.Background()

	var wg sync.WaitGroup
	errs := make(chan error, units)
	for i := 0; i < units; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			marker := fmt.Sprintf("unit-%d", i)
			ctx := identity.WithIdentity(base, identity.ID(marker))

			time.Sleep(time.Duration(i%5) * time.Millisecond)

			if got := identity.IDFromContext(ctx); got != marker {
				errs <- fmt.Errorf("unit %d observed %q", i, got)
			}
		}(i)
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		t.Error(err)
	}
	_, ok := identity.FromContext(base)
	assert.False(t, ok, "shared parent never receives a unit's identity")
}

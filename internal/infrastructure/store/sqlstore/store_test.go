package sqlstore

import (
	"context"
	"testing"

	"foodshare-backend/internal/infrastructure/store/storetest"

	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) storetest.Store {
	s, err := Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestStoreContract(t *testing.T) {
	storetest.Run(t, newTestStore)
}

func TestPing(t *testing.T) {
	s, err := Open(":memory:")
	require.NoError(t, err)
	defer s.Close()
	require.NoError(t, s.Ping(context.Background()))
}

package records_test

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/kiln/internal/adapters/records"
	"go.trai.ch/kiln/internal/core/domain"
)

func TestStore_PutGet(t *testing.T) {
	t.Parallel()

	store, err := records.Open(records.Config{InMemory: true})
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	target := domain.MustBuildTarget("//pkg:lib")
	rec := &domain.BuildRecord{
		Target:      target.String(),
		RuleKey:     domain.RuleKey{1},
		ManifestKey: domain.RuleKey{2},
		DepFileKey:  domain.RuleKey{3},
		UsedInputs:  []string{"pkg/a.h"},
		OutputHash:  "0123456789abcdef",
		Timestamp:   time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC),
	}

	t.Run("put and get", func(t *testing.T) {
		t.Parallel()
		require.NoError(t, store.Put(rec))
		got, err := store.Get(target)
		require.NoError(t, err)
		require.NotNil(t, got)
		assert.Equal(t, rec, got)
		assert.True(t, got.HasDepFile())
	})

	t.Run("get missing", func(t *testing.T) {
		t.Parallel()
		got, err := store.Get(domain.MustBuildTarget("//missing:missing"))
		require.NoError(t, err)
		assert.Nil(t, got)
	})
}

func TestStore_Delete(t *testing.T) {
	t.Parallel()

	store, err := records.Open(records.Config{InMemory: true})
	require.NoError(t, err)
	defer func() { _ = store.Close() }()

	target := domain.MustBuildTarget("//a:a")
	require.NoError(t, store.Put(&domain.BuildRecord{Target: target.String(), RuleKey: domain.RuleKey{9}}))
	require.NoError(t, store.Delete(target))

	got, err := store.Get(target)
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestStore_Persistent(t *testing.T) {
	t.Parallel()

	dir := filepath.Join(t.TempDir(), "records")
	target := domain.MustBuildTarget("//a:a")

	store, err := records.Open(records.Config{Path: dir})
	require.NoError(t, err)
	require.NoError(t, store.Put(&domain.BuildRecord{Target: target.String(), RuleKey: domain.RuleKey{7}}))
	require.NoError(t, store.Close())

	reopened, err := records.Open(records.Config{Path: dir})
	require.NoError(t, err)
	defer func() { _ = reopened.Close() }()
	got, err := reopened.Get(target)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, domain.RuleKey{7}, got.RuleKey)
}

func TestStore_InvalidTarget(t *testing.T) {
	t.Parallel()

	store, err := records.Open(records.Config{InMemory: true})
	require.NoError(t, err)
	defer func() { _ = store.Close() }()

	err = store.Put(&domain.BuildRecord{Target: "not a target"})
	require.ErrorContains(t, err, domain.ErrRecordWriteFailed.Error())

	_, err = records.Open(records.Config{})
	require.ErrorContains(t, err, domain.ErrRecordStoreOpenFailed.Error())
}

package store

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/mikey/newsletter-funnels/internal/core"
)

type repository interface {
	core.CatalogRepository
	core.FunnelRepository
	Stop()
}

var base = time.Date(2024, 5, 1, 8, 30, 0, 0, time.UTC)

func TestMemoryStore(t *testing.T) {
	t.Parallel()
	runRepositoryTests(t, func(t *testing.T) repository {
		return NewMemoryStore(zap.NewNop())
	})
}

func TestSQLiteStore(t *testing.T) {
	t.Parallel()
	runRepositoryTests(t, func(t *testing.T) repository {
		s, err := NewSQLiteStore(filepath.Join(t.TempDir(), "funnels.db"), zap.NewNop())
		require.NoError(t, err)
		return s
	})
}

func TestDiskStore(t *testing.T) {
	t.Parallel()
	runRepositoryTests(t, func(t *testing.T) repository {
		s, err := NewDiskStore(filepath.Join(t.TempDir(), "store"), 1024, zap.NewNop())
		require.NoError(t, err)
		return s
	})
}

func TestMySQLStore(t *testing.T) {
	dsn := os.Getenv("FUNNEL_BUILDER_TEST_MYSQL_DSN")
	if dsn == "" {
		t.Skip("FUNNEL_BUILDER_TEST_MYSQL_DSN not set")
	}
	runRepositoryTests(t, func(t *testing.T) repository {
		s, err := NewMySQLStore(dsn, zap.NewNop())
		require.NoError(t, err)
		return s
	})
}

func TestMySQLStoreRejectsBadDSN(t *testing.T) {
	t.Parallel()

	_, err := NewMySQLStore("not a dsn", zap.NewNop())
	require.Error(t, err)
}

func runRepositoryTests(t *testing.T, open func(t *testing.T) repository) {
	t.Run("ItemsNewestFirst", func(t *testing.T) {
		repo := open(t)
		defer repo.Stop()
		ctx := context.Background()

		// ids are unique per run so a shared MySQL database does not collide
		prefix := uuid.NewString()[:8] + "-"
		items := []core.Item{
			{ID: prefix + "old", SenderEmail: "a@acme.io", Subject: "Welcome", Timestamp: base},
			{ID: prefix + "new", SenderEmail: "a@acme.io", SenderName: "Acme", Subject: "Sale", Category: "promo", Timestamp: base.Add(48 * time.Hour), BodyRef: "<m2@acme.io>", Preview: "Everything must go"},
			{ID: prefix + "mid", SenderEmail: "b@globex.com", Subject: "Tips", Timestamp: base.Add(24 * time.Hour)},
		}
		for i := range items {
			require.NoError(t, repo.SaveItem(ctx, &items[i]))
		}

		listed, err := repo.ListItems(ctx)
		require.NoError(t, err)

		var ids []string
		for _, item := range listed {
			if len(item.ID) > len(prefix) && item.ID[:len(prefix)] == prefix {
				ids = append(ids, item.ID)
			}
		}
		assert.Equal(t, []string{prefix + "new", prefix + "mid", prefix + "old"}, ids)

		got, err := repo.GetItem(ctx, prefix+"new")
		require.NoError(t, err)
		assert.True(t, got.Timestamp.Equal(items[1].Timestamp))
		got.Timestamp = items[1].Timestamp
		if diff := cmp.Diff(items[1], *got); diff != "" {
			t.Errorf("item mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("MissingRecords", func(t *testing.T) {
		repo := open(t)
		defer repo.Stop()
		ctx := context.Background()

		_, err := repo.GetItem(ctx, "does-not-exist")
		require.ErrorIs(t, err, core.ErrNotFound)

		_, err = repo.GetFunnel(ctx, "does-not-exist")
		require.ErrorIs(t, err, core.ErrNotFound)

		require.ErrorIs(t, repo.SaveItem(ctx, &core.Item{}), ErrMissingID)
		require.ErrorIs(t, repo.SaveFunnel(ctx, &core.Funnel{}), ErrMissingID)
	})

	t.Run("FunnelUpsert", func(t *testing.T) {
		repo := open(t)
		defer repo.Stop()
		ctx := context.Background()

		avg, days := 48, 2
		funnel := &core.Funnel{
			ID: uuid.NewString(),
			FunnelDraft: core.FunnelDraft{
				Name:              "Acme onboarding",
				Color:             "#6366f1",
				SelectedIDs:       []string{"a", "b"},
				SenderEmail:       "a@acme.io",
				TotalEmails:       2,
				FirstEmailAt:      base,
				LastEmailAt:       base.Add(48 * time.Hour),
				AvgIntervalHours:  &avg,
				TotalDurationDays: &days,
			},
			CreatedAt: base,
			UpdatedAt: base,
		}
		require.NoError(t, repo.SaveFunnel(ctx, funnel))

		got, err := repo.GetFunnel(ctx, funnel.ID)
		require.NoError(t, err)
		assert.Equal(t, "Acme onboarding", got.Name)
		assert.Equal(t, []string{"a", "b"}, got.SelectedIDs)
		require.NotNil(t, got.AvgIntervalHours)
		assert.Equal(t, 48, *got.AvgIntervalHours)
		assert.True(t, got.LastEmailAt.Equal(funnel.LastEmailAt))

		funnel.Name = "Acme onboarding v2"
		funnel.SelectedIDs = []string{"b"}
		funnel.AvgIntervalHours = nil
		funnel.TotalDurationDays = nil
		funnel.UpdatedAt = base.Add(time.Hour)
		require.NoError(t, repo.SaveFunnel(ctx, funnel))

		got, err = repo.GetFunnel(ctx, funnel.ID)
		require.NoError(t, err)
		assert.Equal(t, "Acme onboarding v2", got.Name)
		assert.Equal(t, []string{"b"}, got.SelectedIDs)
		assert.Nil(t, got.AvgIntervalHours)
		assert.Nil(t, got.TotalDurationDays)
		assert.True(t, got.CreatedAt.Equal(base))

		listed, err := repo.ListFunnels(ctx)
		require.NoError(t, err)
		found := 0
		for i, f := range listed {
			if f.ID == funnel.ID {
				found++
				listed[i].SelectedIDs[0] = "changed"
			}
		}
		assert.Equal(t, 1, found)

		// edits to a listed copy stay out of the stored record
		got, err = repo.GetFunnel(ctx, funnel.ID)
		require.NoError(t, err)
		assert.Equal(t, []string{"b"}, got.SelectedIDs)
		relisted, err := repo.ListFunnels(ctx)
		require.NoError(t, err)
		for _, f := range relisted {
			if f.ID == funnel.ID {
				assert.Equal(t, []string{"b"}, f.SelectedIDs)
			}
		}
	})
}

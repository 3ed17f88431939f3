package catalog_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mind-engage/mockprep/internal/catalog"
	"github.com/mind-engage/mockprep/internal/db"
)

func TestSQLStore_ImportLoad(t *testing.T) {
	ctx := context.Background()
	dbh, err := db.Open(ctx, db.DriverSQLite, ":memory:")
	require.NoError(t, err)
	defer dbh.Close()

	store := catalog.NewSQLStore(dbh, db.DriverSQLite)

	empty, err := store.Load(ctx)
	require.NoError(t, err)
	assert.Empty(t, empty.ListTests())

	require.NoError(t, store.Import(ctx, catalog.Sample()))
	got, err := store.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, catalog.NewMemoryCatalog(catalog.Sample()).Seed(), got.Seed())

	t.Run("reimport replaces rows and keeps order", func(t *testing.T) {
		seed := catalog.Sample()
		seed.Tests[0].Title = "Renamed"
		require.NoError(t, store.Import(ctx, seed))

		got, err := store.Load(ctx)
		require.NoError(t, err)
		tests := got.ListTests()
		require.Len(t, tests, 4)
		assert.Equal(t, "Renamed", tests[0].Title)
		assert.Equal(t, "4", tests[3].ID)
	})

	t.Run("invalid seed is rejected", func(t *testing.T) {
		seed := catalog.Sample()
		seed.Questions[0].CorrectChoiceID = "nope"
		assert.Error(t, store.Import(ctx, seed))
	})
}

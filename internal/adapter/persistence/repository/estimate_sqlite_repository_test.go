package repository

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"construction_estimator/internal/domain/entities"
	"construction_estimator/internal/infrastructure/database"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestSQLiteRepo(t *testing.T) *EstimateSQLiteRepository {
	t.Helper()
	db, err := database.OpenSQLite(filepath.Join(t.TempDir(), "estimates.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return NewEstimateSQLiteRepository(db)
}

func sampleEstimate(now time.Time) entities.Estimate {
	return entities.Estimate{
		ProjectName: "Maple St",
		Source:      entities.EstimateSourceRooms,
		Status:      entities.EstimateStatusFinal,
		Subtotal:    50400,
		Currency:    "USD",
		Items: []entities.Item{
			{Name: "Kitchen", Scope: "Room finish", Quantity: 150, Unit: "sqft", Finish: "premium", UnitCost: 240, TotalCost: 36000},
			{Name: "Bath", Scope: "Room finish", Quantity: 80, Unit: "sqft", Finish: "standard", UnitCost: 180, TotalCost: 14400},
		},
		Assumptions: []entities.Assumption{{Topic: "Global", Statement: "Rates per sqft", Confidence: 0.9}},
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

func TestSQLiteCreateAndGetRoundTrip(t *testing.T) {
	repo := newTestSQLiteRepo(t)
	ctx := context.Background()
	now := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

	created, err := repo.Create(ctx, sampleEstimate(now))
	require.NoError(t, err)
	require.NotZero(t, created.ID)

	got, err := repo.GetByID(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, created.ID, got.ID)
	assert.Equal(t, "Maple St", got.ProjectName)
	assert.Equal(t, entities.EstimateStatusFinal, got.Status)
	assert.Equal(t, 50400.0, got.Subtotal)
	assert.Equal(t, created.Items, got.Items)
	assert.Equal(t, created.Assumptions, got.Assumptions)
	assert.Empty(t, got.Questions)
	assert.True(t, now.Equal(got.CreatedAt))
}

func TestSQLiteGetByIDNotFoundReturnsZeroValue(t *testing.T) {
	repo := newTestSQLiteRepo(t)

	got, err := repo.GetByID(context.Background(), 42)
	require.NoError(t, err)
	assert.Zero(t, got.ID)
}

func TestSQLiteReplaceStoresSnapshotAndChange(t *testing.T) {
	repo := newTestSQLiteRepo(t)
	ctx := context.Background()
	now := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

	created, err := repo.Create(ctx, sampleEstimate(now))
	require.NoError(t, err)

	next := created
	next.Items = next.Items[:1]
	next.Subtotal = 36000
	next.Questions = []string{"Is the island included?"}
	next.Status = entities.EstimateStatusNeedsClarification
	next.UpdatedAt = now.Add(time.Hour)

	replaced, err := repo.Replace(ctx, created.ID, next, "drop the bathroom")
	require.NoError(t, err)
	assert.Equal(t, created.ID, replaced.ID)
	assert.True(t, now.Equal(replaced.CreatedAt))

	got, err := repo.GetByID(ctx, created.ID)
	require.NoError(t, err)
	require.Len(t, got.Items, 1)
	assert.Equal(t, 36000.0, got.Subtotal)
	assert.Equal(t, []string{"Is the island included?"}, got.Questions)
	assert.Equal(t, entities.EstimateStatusNeedsClarification, got.Status)

	changes, err := repo.ListChanges(ctx, created.ID)
	require.NoError(t, err)
	require.Len(t, changes, 1)
	assert.NotEmpty(t, changes[0].ID)
	assert.Equal(t, "drop the bathroom", changes[0].Input)
	assert.Equal(t, 36000.0, changes[0].Snapshot.Subtotal)
	assert.Len(t, changes[0].Snapshot.Items, 1)
}

func TestSQLiteListChangesOldestFirstWithinOneSecond(t *testing.T) {
	repo := newTestSQLiteRepo(t)
	ctx := context.Background()
	base := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

	created, err := repo.Create(ctx, sampleEstimate(base))
	require.NoError(t, err)

	steps := []struct {
		at    time.Duration
		input string
	}{
		{time.Second, "first"},
		{time.Second + 100*time.Millisecond, "second"},
		{time.Second + 120*time.Millisecond, "third"},
	}
	for _, s := range steps {
		next := created
		next.UpdatedAt = base.Add(s.at)
		_, err := repo.Replace(ctx, created.ID, next, s.input)
		require.NoError(t, err)
	}

	changes, err := repo.ListChanges(ctx, created.ID)
	require.NoError(t, err)
	require.Len(t, changes, 3)
	for i, s := range steps {
		assert.Equal(t, s.input, changes[i].Input)
		assert.True(t, base.Add(s.at).Equal(changes[i].CreatedAt))
	}
}

func TestSQLiteReplaceUnknownIDLeavesStoreUntouched(t *testing.T) {
	repo := newTestSQLiteRepo(t)
	ctx := context.Background()

	got, err := repo.Replace(ctx, 7, sampleEstimate(time.Now()), "anything")
	require.NoError(t, err)
	assert.Zero(t, got.ID)

	changes, err := repo.ListChanges(ctx, 7)
	require.NoError(t, err)
	assert.Empty(t, changes)
}

func TestSQLiteConcurrentReplaceKeepsOneConsistentSnapshot(t *testing.T) {
	repo := newTestSQLiteRepo(t)
	ctx := context.Background()
	now := time.Now().UTC()

	created, err := repo.Create(ctx, sampleEstimate(now))
	require.NoError(t, err)

	const writers = 8
	var wg sync.WaitGroup
	errs := make(chan error, writers)
	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			next := sampleEstimate(now)
			next.Items = []entities.Item{{Name: fmt.Sprintf("Room %d", n), Quantity: float64(n + 1), UnitCost: 100, TotalCost: float64(n+1) * 100}}
			next.Subtotal = float64(n+1) * 100
			_, err := repo.Replace(ctx, created.ID, next, fmt.Sprintf("revision %d", n))
			errs <- err
		}(i)
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		require.NoError(t, err)
	}

	got, err := repo.GetByID(ctx, created.ID)
	require.NoError(t, err)
	require.Len(t, got.Items, 1)
	assert.Equal(t, got.Items[0].TotalCost, got.Subtotal)

	changes, err := repo.ListChanges(ctx, created.ID)
	require.NoError(t, err)
	assert.Len(t, changes, writers)
}

func TestSQLiteListRecentNewestFirst(t *testing.T) {
	repo := newTestSQLiteRepo(t)
	ctx := context.Background()

	var ids []int64
	for i := 0; i < 3; i++ {
		e := sampleEstimate(time.Now())
		e.ProjectName = fmt.Sprintf("p%d", i)
		created, err := repo.Create(ctx, e)
		require.NoError(t, err)
		ids = append(ids, created.ID)
	}

	recent, err := repo.ListRecent(ctx, 2)
	require.NoError(t, err)
	require.Len(t, recent, 2)
	assert.Equal(t, ids[2], recent[0].ID)
	assert.Equal(t, ids[1], recent[1].ID)
	assert.Nil(t, recent[0].Items)
}

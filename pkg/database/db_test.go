package database

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/arnavshah/advent-allocator/pkg/allocator"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T, ttl time.Duration) *Store {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := InitDB(dsn)
	require.NoError(t, err)
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	})
	return NewStore(db, ttl)
}

func testResult(t *testing.T) *allocator.Result {
	t.Helper()
	res, err := allocator.New(allocator.DefaultPolicy(), allocator.NewSource(1)).
		Allocate([]string{"Alice", "Bob", "Carol"})
	require.NoError(t, err)
	return res
}

func TestSaveAndGetRun(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t, 0)
	res := testResult(t)

	run, err := s.SaveRun(ctx, res, 2025)
	require.NoError(t, err)
	assert.Len(t, run.ID, 36)

	loaded, err := s.GetRun(ctx, run.ID)
	require.NoError(t, err)
	assert.Equal(t, 2025, loaded.Year)
	assert.Equal(t, 3, loaded.PoolSize)
	assert.Equal(t, string(allocator.RegimeUnderFilled), loaded.Regime)
	assert.Equal(t, res.Bags, loaded.ModelBags())
}

func TestGetRun_NotFound(t *testing.T) {
	s := newTestStore(t, 0)
	_, err := s.GetRun(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrRunNotFound)
}

func TestPurgeOnSave(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t, time.Hour)

	start := time.Date(2025, 12, 1, 9, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return start }
	old, err := s.SaveRun(ctx, testResult(t), 2025)
	require.NoError(t, err)

	s.now = func() time.Time { return start.Add(2 * time.Hour) }
	fresh, err := s.SaveRun(ctx, testResult(t), 2025)
	require.NoError(t, err)

	_, err = s.GetRun(ctx, old.ID)
	assert.ErrorIs(t, err, ErrRunNotFound)
	_, err = s.GetRun(ctx, fresh.ID)
	assert.NoError(t, err)

	var orphans int64
	require.NoError(t, s.DB.Model(&RunBag{}).Where("run_id = ?", old.ID).Count(&orphans).Error)
	assert.Zero(t, orphans)
}

func TestPurgeBefore(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t, 0)
	s.now = func() time.Time { return time.Date(2025, 11, 30, 12, 0, 0, 0, time.UTC) }
	_, err := s.SaveRun(ctx, testResult(t), 2025)
	require.NoError(t, err)

	n, err := s.PurgeBefore(ctx, time.Date(2025, 11, 1, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.Zero(t, n)

	n, err = s.PurgeBefore(ctx, time.Date(2025, 12, 1, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
}

func TestRecordUsage(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t, 0)

	s.now = func() time.Time { return time.Date(2025, 12, 1, 10, 0, 0, 0, time.UTC) }
	require.NoError(t, s.RecordUsage(ctx, 3))
	require.NoError(t, s.RecordUsage(ctx, 5))
	s.now = func() time.Time { return time.Date(2025, 12, 2, 10, 0, 0, 0, time.UTC) }
	require.NoError(t, s.RecordUsage(ctx, 30))

	usage, err := s.UsageHistory(ctx, 30)
	require.NoError(t, err)
	require.Len(t, usage, 2)
	assert.Equal(t, "2025-12-02", usage[0].Date)
	assert.Equal(t, 1, usage[0].Allocations)
	assert.Equal(t, "2025-12-01", usage[1].Date)
	assert.Equal(t, 2, usage[1].Allocations)
	assert.Equal(t, 8, usage[1].Participants)
}

func TestRecordUsage_UsesUTCDay(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t, 0)

	// 23:30 on Dec 1 in UTC-5 is already Dec 2 in UTC
	s.now = func() time.Time { return time.Date(2025, 12, 1, 23, 30, 0, 0, time.FixedZone("EST", -5*3600)) }
	run, err := s.SaveRun(ctx, testResult(t), 2025)
	require.NoError(t, err)
	require.NoError(t, s.RecordUsage(ctx, run.PoolSize))

	usage, err := s.UsageHistory(ctx, 1)
	require.NoError(t, err)
	require.Len(t, usage, 1)
	assert.Equal(t, "2025-12-02", usage[0].Date)
	assert.Equal(t, run.CreatedAt.Format("2006-01-02"), usage[0].Date)
}

func TestConcurrentSaves(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t, time.Hour)
	s.now = func() time.Time { return time.Date(2025, 12, 3, 12, 0, 0, 0, time.UTC) }
	res := testResult(t)

	const workers = 16
	var wg sync.WaitGroup
	errs := make(chan error, workers*2)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := s.SaveRun(ctx, res, 2025); err != nil {
				errs <- err
			}
			if err := s.RecordUsage(ctx, res.PoolSize); err != nil {
				errs <- err
			}
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		assert.NoError(t, err)
	}

	var runs int64
	require.NoError(t, s.DB.Model(&Run{}).Count(&runs).Error)
	assert.Equal(t, int64(workers), runs)

	usage, err := s.UsageHistory(ctx, 1)
	require.NoError(t, err)
	require.Len(t, usage, 1)
	assert.Equal(t, workers, usage[0].Allocations)
}

package quota_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/magabrotheeeer/phone-cleaner/internal/models"
	"github.com/magabrotheeeer/phone-cleaner/internal/services/quota"
)

func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

func ptr(t time.Time) *time.Time { return &t }

func TestTracker_ResetIfNewDay(t *testing.T) {
	loc := time.UTC
	now := time.Date(2026, 5, 10, 0, 0, 1, 0, loc)

	tests := []struct {
		name        string
		profile     models.UserProfile
		wantCount   int
		wantChanged bool
	}{
		{
			name:        "yesterday exhausted resets after midnight",
			profile:     models.UserProfile{FilesDeletedToday: 50, LastCleanupDate: ptr(time.Date(2026, 5, 9, 23, 59, 0, 0, loc))},
			wantCount:   0,
			wantChanged: true,
		},
		{
			name:        "same day keeps counter",
			profile:     models.UserProfile{FilesDeletedToday: 12, LastCleanupDate: ptr(time.Date(2026, 5, 10, 0, 0, 0, 0, loc))},
			wantCount:   12,
			wantChanged: false,
		},
		{
			name:        "absent date counts as new day",
			profile:     models.UserProfile{FilesDeletedToday: 7},
			wantCount:   0,
			wantChanged: true,
		},
		{
			name:        "nothing to reset",
			profile:     models.UserProfile{},
			wantCount:   0,
			wantChanged: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tr := quota.NewTracker(fixedClock(now), loc)
			got, changed := tr.ResetIfNewDay(tt.profile)
			assert.Equal(t, tt.wantCount, got.FilesDeletedToday)
			assert.Equal(t, tt.wantChanged, changed)

			again, changedAgain := tr.ResetIfNewDay(got)
			assert.Equal(t, got, again)
			assert.False(t, changedAgain)
		})
	}
}

func TestTracker_DayBoundaryUsesLocation(t *testing.T) {
	moscow := time.FixedZone("MSK", 3*60*60)
	// 22:30 UTC 9 мая: уже 01:30 10 мая по Москве.
	last := time.Date(2026, 5, 9, 20, 0, 0, 0, time.UTC)
	now := time.Date(2026, 5, 9, 22, 30, 0, 0, time.UTC)
	p := models.UserProfile{FilesDeletedToday: 30, LastCleanupDate: &last}

	got, changed := quota.NewTracker(fixedClock(now), moscow).ResetIfNewDay(p)
	assert.True(t, changed)
	assert.Zero(t, got.FilesDeletedToday)

	got, changed = quota.NewTracker(fixedClock(now), time.UTC).ResetIfNewDay(p)
	assert.False(t, changed)
	assert.Equal(t, 30, got.FilesDeletedToday)
}

func TestTracker_RecordDeletions(t *testing.T) {
	now := time.Date(2026, 5, 10, 12, 0, 0, 0, time.UTC)
	tr := quota.NewTracker(fixedClock(now), time.UTC)

	p, err := tr.RecordDeletions(models.DefaultProfile(), 10)
	require.NoError(t, err)
	assert.Equal(t, 10, p.FilesDeletedToday)
	require.NotNil(t, p.LastCleanupDate)
	assert.True(t, now.Equal(*p.LastCleanupDate))
	assert.Equal(t, 40, tr.Remaining(p))

	p, err = tr.RecordDeletions(p, 0)
	require.NoError(t, err)
	assert.Equal(t, 10, p.FilesDeletedToday)

	_, err = tr.RecordDeletions(p, -1)
	assert.ErrorIs(t, err, models.ErrNegativeCount)
}

func TestTracker_RecordAfterMidnight(t *testing.T) {
	now := time.Date(2026, 5, 10, 0, 0, 1, 0, time.UTC)
	tr := quota.NewTracker(fixedClock(now), time.UTC)
	p := models.UserProfile{FilesDeletedToday: 50, LastCleanupDate: ptr(now.Add(-2 * time.Second))}

	p, err := tr.RecordDeletions(p, 5)
	require.NoError(t, err)
	assert.Equal(t, 5, p.FilesDeletedToday)
	assert.Equal(t, 45, tr.Remaining(p))
}

func TestTracker_RemainingNeverNegative(t *testing.T) {
	tr := quota.NewTracker(nil, nil)
	assert.Zero(t, tr.Remaining(models.UserProfile{FilesDeletedToday: 80}))
}

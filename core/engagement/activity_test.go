package engagement

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"echofm/model"
	"echofm/repository"
)

func TestWeeklyWindowAnchorsToCalendarDay(t *testing.T) {
	loc := time.FixedZone("UTC+8", 8*3600)
	morning := time.Date(2026, 8, 31, 0, 30, 0, 0, loc)
	evening := time.Date(2026, 8, 31, 23, 45, 0, 0, loc)

	fromA, toA := weeklyWindow(morning)
	fromB, toB := weeklyWindow(evening)

	// Two queries on the same calendar day share the same boundaries.
	assert.True(t, fromA.Equal(fromB))
	assert.True(t, toA.Equal(toB))

	assert.Equal(t, time.Date(2026, 8, 25, 0, 0, 0, 0, loc), fromA)
	assert.Equal(t, time.Date(2026, 9, 1, 0, 0, 0, 0, loc), toA)
}

func TestBuildWeeklySeriesZeroFills(t *testing.T) {
	from := time.Date(2026, 8, 25, 0, 0, 0, 0, time.UTC)
	series := buildWeeklySeries(from, nil, nil)

	require.Len(t, series, 7)
	assert.Equal(t, "2026-08-25", series[0].Date)
	assert.Equal(t, "2026-08-31", series[6].Date)
	for _, point := range series {
		assert.Zero(t, point.Plays)
		assert.Zero(t, point.Downloads)
	}
}

func TestBuildWeeklySeriesPlacesCounts(t *testing.T) {
	from := time.Date(2026, 8, 25, 0, 0, 0, 0, time.UTC)
	plays := map[string]int64{"2026-08-28": 1}
	downloads := map[string]int64{"2026-08-31": 3}

	series := buildWeeklySeries(from, plays, downloads)

	require.Len(t, series, 7)
	wantPlays := []int64{0, 0, 0, 1, 0, 0, 0}
	for i, point := range series {
		assert.Equal(t, wantPlays[i], point.Plays, point.Date)
	}
	assert.Equal(t, int64(3), series[6].Downloads)
}

func TestWeeklyActivityAscendingDates(t *testing.T) {
	events := newFakeEngagementRepo()
	events.playsByDay = map[string]int64{"2026-08-27": 5}
	svc := newTestService(newFakeTrackRepo(), events, newFakeFavoriteRepo(), &fakeAssetStore{})
	svc.now = func() time.Time { return time.Date(2026, 8, 31, 12, 0, 0, 0, time.UTC) }

	series, err := svc.WeeklyActivity(context.Background(), repository.ActivityScope{TrackID: 1})
	require.NoError(t, err)
	require.Len(t, series, 7)
	for i := 1; i < len(series); i++ {
		assert.Less(t, series[i-1].Date, series[i].Date)
	}
	assert.Equal(t, model.ActivityPoint{Date: "2026-08-27", Plays: 5}, series[2])
}

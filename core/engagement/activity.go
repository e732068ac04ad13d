package engagement

import (
	"context"
	"time"

	"echofm/model"
	"echofm/repository"
)

// weeklyDays is the fixed span of the activity report: today plus the six
// preceding calendar days.
const weeklyDays = 7

const dayFormat = "2006-01-02"

// weeklyWindow returns the [from, to) bounds of the report anchored to the
// calendar day containing now, in now's location. Two queries issued on the
// same calendar day share the same boundaries.
func weeklyWindow(now time.Time) (time.Time, time.Time) {
	year, month, day := now.Date()
	today := time.Date(year, month, day, 0, 0, 0, 0, now.Location())
	from := today.AddDate(0, 0, -(weeklyDays - 1))
	to := today.AddDate(0, 0, 1)
	return from, to
}

// buildWeeklySeries zero-fills the per-day aggregates into exactly seven
// points in ascending date order. Days with no events are never omitted.
func buildWeeklySeries(from time.Time, plays, downloads map[string]int64) []model.ActivityPoint {
	series := make([]model.ActivityPoint, 0, weeklyDays)
	for i := 0; i < weeklyDays; i++ {
		day := from.AddDate(0, 0, i).Format(dayFormat)
		series = append(series, model.ActivityPoint{
			Date:      day,
			Plays:     plays[day],
			Downloads: downloads[day],
		})
	}
	return series
}

// WeeklyActivity produces the 7-day daily series for one track or one user.
func (s *Service) WeeklyActivity(ctx context.Context, scope repository.ActivityScope) ([]model.ActivityPoint, error) {
	from, to := weeklyWindow(s.now())

	plays, err := s.events.PlaysByDay(ctx, scope, from, to)
	if err != nil {
		return nil, err
	}
	downloads, err := s.events.DownloadsByDay(ctx, scope, from, to)
	if err != nil {
		return nil, err
	}
	return buildWeeklySeries(from, plays, downloads), nil
}

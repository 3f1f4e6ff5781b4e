package service

import (
	"time"

	"github.com/marwo/buddyfit/pkg/entity"
)

// Streaks and rollups are pure calendar math over workout dates, computed on
// demand. Dates compare by calendar day in the timezone the workout was
// recorded with.

const (
	streakLookbackDays = 365
	rollupWidthDays    = 7
	rollupPeriods      = 4
)

func dayOf(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

func workoutDaySet(workouts []entity.WorkoutRecord) map[time.Time]struct{} {
	days := make(map[time.Time]struct{}, len(workouts))
	for _, w := range workouts {
		days[dayOf(w.Date)] = struct{}{}
	}
	return days
}

// computeStreak walks backward from today. A missing today does not zero the
// current streak while yesterday is present (one day of grace). Max is the
// longest consecutive run anywhere in the set.
func computeStreak(days map[time.Time]struct{}, today time.Time) entity.StreakInfo {
	if len(days) == 0 {
		return entity.StreakInfo{}
	}
	start := dayOf(today)
	if _, ok := days[start]; !ok {
		start = start.AddDate(0, 0, -1)
	}
	current := 0
	for d := start; ; d = d.AddDate(0, 0, -1) {
		if _, ok := days[d]; !ok {
			break
		}
		current++
	}

	max := 0
	for d := range days {
		if _, prev := days[d.AddDate(0, 0, -1)]; prev {
			continue // not a run start
		}
		run := 0
		for cur := d; ; cur = cur.AddDate(0, 0, 1) {
			if _, ok := days[cur]; !ok {
				break
			}
			run++
		}
		if run > max {
			max = run
		}
	}
	return entity.StreakInfo{Current: current, Max: max}
}

// buildRollups partitions the trailing periods*width days into contiguous
// non-overlapping windows, newest window ending today, output oldest→newest.
func buildRollups(workouts []entity.WorkoutRecord, today time.Time, widthDays, periods int) []entity.PeriodRollup {
	day := dayOf(today)
	rollups := make([]entity.PeriodRollup, 0, periods)
	for i := periods - 1; i >= 0; i-- {
		start := day.AddDate(0, 0, -(i+1)*widthDays+1)
		end := start.AddDate(0, 0, widthDays-1)
		rollups = append(rollups, entity.PeriodRollup{Start: start, End: end})
	}
	for _, w := range workouts {
		d := dayOf(w.Date)
		for i := range rollups {
			if !d.Before(rollups[i].Start) && !d.After(rollups[i].End) {
				rollups[i].Workouts++
				rollups[i].DurationMin += w.DurationMin
				rollups[i].Calories += w.Calories
				break
			}
		}
	}
	return rollups
}

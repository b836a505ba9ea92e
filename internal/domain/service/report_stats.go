package service

import (
	"fmt"
	"math"
	"strings"
	"time"

	"lostfound/internal/domain/entity"
)

const (
	// UnknownCategory groups reports without a kategori.
	UnknownCategory = "Tidak Diketahui"
	// UnknownPeriod is the trend bucket for reports carrying neither tanggal
	// nor returnedAt.
	UnknownPeriod = "Tidak Diketahui"
)

// CategoryPalette is cycled by position when colouring the category chart.
var CategoryPalette = []string{"#10b981", "#ef4444", "#3b82f6", "#f59e0b"}

// MonthlyTrend buckets lost and returned reports by month ("M/YYYY" in loc).
// Lost reports are dated by tanggal, returned ones by returnedAt, falling back
// to the other date when their own is missing. Buckets are ordered by first
// appearance, lost reports first.
func MonthlyTrend(lost, returned []*entity.Report, loc *time.Location) []entity.TrendPoint {
	if loc == nil {
		loc = time.UTC
	}

	points := make([]entity.TrendPoint, 0)
	index := make(map[string]int)

	add := func(r *entity.Report, primary, fallback *time.Time, isLost bool) {
		key := bucketKey(primary, fallback, loc)
		i, ok := index[key]
		if !ok {
			i = len(points)
			index[key] = i
			points = append(points, entity.TrendPoint{Name: key})
		}
		if isLost {
			points[i].Lost++
		} else {
			points[i].Returned++
		}
	}

	for _, r := range lost {
		add(r, r.Tanggal, r.ReturnedAt, true)
	}
	for _, r := range returned {
		add(r, r.ReturnedAt, r.Tanggal, false)
	}

	return points
}

func bucketKey(primary, fallback *time.Time, loc *time.Location) string {
	t := primary
	if !hasTime(t) {
		t = fallback
	}
	if !hasTime(t) {
		return UnknownPeriod
	}
	local := t.In(loc)
	return fmt.Sprintf("%d/%d", int(local.Month()), local.Year())
}

func hasTime(t *time.Time) bool {
	return t != nil && !t.IsZero()
}

// CategoryDistribution counts lost and returned reports per kategori.
func CategoryDistribution(lost, returned []*entity.Report) []entity.CategoryCount {
	counts := make([]entity.CategoryCount, 0)
	index := make(map[string]int)

	for _, set := range [][]*entity.Report{lost, returned} {
		for _, r := range set {
			name := strings.TrimSpace(r.Kategori)
			if name == "" {
				name = UnknownCategory
			}
			i, ok := index[name]
			if !ok {
				i = len(counts)
				index[name] = i
				counts = append(counts, entity.CategoryCount{
					Name:  name,
					Color: CategoryPalette[i%len(CategoryPalette)],
				})
			}
			counts[i].Value++
		}
	}

	return counts
}

// Summarize computes the headline numbers. ReturnRate is a percentage rounded
// to two decimals and is 0 when there are no lost or returned reports.
func Summarize(lost, returned, history []*entity.Report) entity.Summary {
	total := len(lost) + len(returned)

	rate := 0.0
	if total > 0 {
		rate = math.Round(float64(len(returned))/float64(total)*100*100) / 100
	}

	return entity.Summary{
		TotalReports:  total,
		LostCount:     len(lost),
		ReturnedCount: len(returned),
		HistoryCount:  len(history),
		ReturnRate:    rate,
	}
}

func BuildDashboard(sets entity.ReportSets, loc *time.Location, now time.Time) entity.DashboardStats {
	return entity.DashboardStats{
		Summary:     Summarize(sets.Lost, sets.Returned, sets.History),
		Trend:       MonthlyTrend(sets.Lost, sets.Returned, loc),
		Categories:  CategoryDistribution(sets.Lost, sets.Returned),
		GeneratedAt: now,
	}
}

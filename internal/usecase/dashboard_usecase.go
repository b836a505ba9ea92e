package usecase

import (
	"sort"
	"time"

	"lostfound/internal/domain/entity"
	"lostfound/internal/domain/service"
)

// ReportRow is one line of the admin report table.
type ReportRow struct {
	ID         string            `json:"id"`
	NamaBarang string            `json:"namaBarang"`
	Kategori   string            `json:"kategori"`
	Foto       string            `json:"foto,omitempty"`
	Type       entity.ReportType `json:"type"`
	Collection entity.Collection `json:"collection"`
	Date       *time.Time        `json:"date,omitempty"`
	CanConfirm bool              `json:"canConfirm"`
}

// DashboardView is what the live dashboard renders in one go.
type DashboardView struct {
	Stats        entity.DashboardStats `json:"stats"`
	Reports      []ReportRow           `json:"reports"`
	HistoryCount int                   `json:"history_count"`
}

type DashboardUseCase struct {
	reports  ReportSource
	location *time.Location
	clock    func() time.Time
}

func NewDashboardUseCase(reports ReportSource, location *time.Location) *DashboardUseCase {
	if location == nil {
		location = time.UTC
	}
	return &DashboardUseCase{
		reports:  reports,
		location: location,
		clock:    time.Now,
	}
}

func (uc *DashboardUseCase) Stats() entity.DashboardStats {
	return service.BuildDashboard(uc.reports.Sets(), uc.location, uc.clock())
}

// ReportRows lists lost reports followed by returned ones.
func (uc *DashboardUseCase) ReportRows() []ReportRow {
	return reportRows(uc.reports.Sets())
}

// History returns one page of archived reports, most recently taken first,
// and the total number of history records.
func (uc *DashboardUseCase) History(offset, limit int) ([]*entity.Report, int) {
	history := uc.reports.Sets().History
	sort.SliceStable(history, func(i, j int) bool {
		return takenAfter(history[i], history[j])
	})

	total := len(history)
	if offset > total {
		offset = total
	}
	end := offset + limit
	if limit <= 0 || end > total {
		end = total
	}
	return history[offset:end], total
}

// View builds the dashboard from sets already in hand, as delivered to feed
// listeners.
func (uc *DashboardUseCase) View(sets entity.ReportSets) DashboardView {
	return DashboardView{
		Stats:        service.BuildDashboard(sets, uc.location, uc.clock()),
		Reports:      reportRows(sets),
		HistoryCount: len(sets.History),
	}
}

func (uc *DashboardUseCase) CurrentView() DashboardView {
	return uc.View(uc.reports.Sets())
}

func reportRows(sets entity.ReportSets) []ReportRow {
	rows := make([]ReportRow, 0, len(sets.Lost)+len(sets.Returned))
	for _, c := range []entity.Collection{entity.CollectionLost, entity.CollectionReturned} {
		for _, r := range sets.Of(c) {
			r.Type = c.ReportType()
			kategori := r.Kategori
			if kategori == "" {
				kategori = "-"
			}
			rows = append(rows, ReportRow{
				ID:         r.ID,
				NamaBarang: r.DisplayName(),
				Kategori:   kategori,
				Foto:       r.Foto,
				Type:       r.Type,
				Collection: c,
				Date:       r.EventTime(),
				CanConfirm: c == entity.CollectionLost,
			})
		}
	}
	return rows
}

func takenAfter(a, b *entity.Report) bool {
	switch {
	case a.TakenAt == nil:
		return false
	case b.TakenAt == nil:
		return true
	}
	return a.TakenAt.After(*b.TakenAt)
}

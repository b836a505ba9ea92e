package entity

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestAsReturnedKeepsRecordAndAddsConfirmation(t *testing.T) {
	tanggal := time.Date(2025, 3, 4, 10, 0, 0, 0, time.UTC)
	lost := &Report{
		ID:         "r1",
		NamaBarang: "Dompet",
		Kategori:   "Aksesoris",
		Tanggal:    &tanggal,
		Type:       ReportTypeLost,
	}

	returned := lost.AsReturned("A1")

	assert.Equal(t, "r1", returned.ID)
	assert.Equal(t, "Dompet", returned.NamaBarang)
	assert.Equal(t, "A1", returned.ConfirmedBy)
	assert.True(t, IsServerTime(returned.ReturnedAt))
	assert.Empty(t, returned.Type, "type is derived, never persisted on returned records")
	assert.Equal(t, tanggal, *returned.Tanggal)

	// the source must not be mutated
	assert.Nil(t, lost.ReturnedAt)
	assert.Equal(t, ReportTypeLost, lost.Type)
}

func TestAsHistoryDropsReturnedFields(t *testing.T) {
	returnedAt := time.Date(2025, 3, 5, 9, 0, 0, 0, time.UTC)
	returned := &Report{
		ID:          "r1",
		NamaBarang:  "Dompet",
		ReturnedAt:  &returnedAt,
		ConfirmedBy: "A1",
		Type:        ReportTypeReturned,
	}

	history := returned.AsHistory(CollectionReturned)

	assert.Empty(t, history.ID)
	assert.Equal(t, "r1", history.SourceID)
	assert.Equal(t, StatusTaken, history.Status)
	assert.Equal(t, ReportTypeReturned, history.Type)
	assert.True(t, IsServerTime(history.TakenAt))
	assert.Nil(t, history.ReturnedAt)
	assert.Empty(t, history.ConfirmedBy)
}

func TestCloneIsDeep(t *testing.T) {
	ts := time.Now()
	r := &Report{ID: "x", Tanggal: &ts}
	c := r.Clone()
	*c.Tanggal = c.Tanggal.Add(time.Hour)

	assert.True(t, r.Tanggal.Equal(ts))
}

func TestReportSetsFind(t *testing.T) {
	sets := ReportSets{Returned: []*Report{{ID: "a"}, {ID: "b"}}}

	r, ok := sets.Find(CollectionReturned, "b")
	assert.True(t, ok)
	assert.Equal(t, "b", r.ID)

	_, ok = sets.Find(CollectionLost, "b")
	assert.False(t, ok)
}

func TestDisplayHelpers(t *testing.T) {
	ts := time.Now()
	assert.Equal(t, "-", (&Report{}).DisplayName())
	assert.Equal(t, &ts, (&Report{Type: ReportTypeReturned, ReturnedAt: &ts}).EventTime())
	assert.Nil(t, (&Report{Type: ReportTypeLost, ReturnedAt: &ts}).EventTime())
	assert.False(t, Collection("users").Valid())
}

func TestParseCollection(t *testing.T) {
	for in, want := range map[string]Collection{
		"lost":           CollectionLost,
		"returned":       CollectionReturned,
		"history":        CollectionHistory,
		"returned_items": CollectionReturned,
	} {
		got, ok := ParseCollection(in)
		assert.True(t, ok, in)
		assert.Equal(t, want, got, in)
	}

	_, ok := ParseCollection("users")
	assert.False(t, ok)
}

package entity

import (
	"time"
)

// Collection names one of the persisted record sets.
type Collection string

const (
	CollectionLost     Collection = "lost_items"
	CollectionReturned Collection = "returned_items"
	CollectionHistory  Collection = "history_items"
)

// ReportCollections lists the record sets in lifecycle order.
var ReportCollections = []Collection{CollectionLost, CollectionReturned, CollectionHistory}

func (c Collection) Valid() bool {
	switch c {
	case CollectionLost, CollectionReturned, CollectionHistory:
		return true
	}
	return false
}

// ParseCollection accepts a collection name or its short form ("lost",
// "returned", "history").
func ParseCollection(s string) (Collection, bool) {
	c := Collection(s)
	switch s {
	case "lost":
		c = CollectionLost
	case "returned":
		c = CollectionReturned
	case "history":
		c = CollectionHistory
	}
	return c, c.Valid()
}

// ReportType is the UI classification of a record. For lost and returned
// records it is derived from the collection at read time; history records
// persist the classification they had when archived.
type ReportType string

const (
	ReportTypeLost     ReportType = "lost"
	ReportTypeReturned ReportType = "returned"
)

func (c Collection) ReportType() ReportType {
	switch c {
	case CollectionLost:
		return ReportTypeLost
	case CollectionReturned:
		return ReportTypeReturned
	}
	return ""
}

const StatusTaken = "taken"

type Report struct {
	ID         string     `json:"id" firestore:"-"`
	NamaBarang string     `json:"namaBarang,omitempty" firestore:"namaBarang,omitempty"`
	Kategori   string     `json:"kategori,omitempty" firestore:"kategori,omitempty"`
	Foto       string     `json:"foto,omitempty" firestore:"foto,omitempty"`
	Deskripsi  string     `json:"deskripsi,omitempty" firestore:"deskripsi,omitempty"`
	Lokasi     string     `json:"lokasi,omitempty" firestore:"lokasi,omitempty"`
	Tanggal    *time.Time `json:"tanggal,omitempty" firestore:"tanggal,omitempty"`
	CreatedAt  *time.Time `json:"createdAt,omitempty" firestore:"createdAt,omitempty"`

	// Returned variant
	ReturnedAt  *time.Time `json:"returnedAt,omitempty" firestore:"returnedAt,omitempty"`
	ConfirmedBy string     `json:"confirmedBy,omitempty" firestore:"confirmedBy,omitempty"`

	// History variant
	TakenAt  *time.Time `json:"takenAt,omitempty" firestore:"takenAt,omitempty"`
	Status   string     `json:"status,omitempty" firestore:"status,omitempty"`
	SourceID string     `json:"sourceId,omitempty" firestore:"sourceId,omitempty"`

	Type ReportType `json:"type,omitempty" firestore:"type,omitempty"`
}

// ServerTime marks a timestamp field to be filled by the store with its own
// clock when the record is written. It is a non-nil pointer to the zero time.
func ServerTime() *time.Time {
	return &time.Time{}
}

// IsServerTime reports whether t is a pending server timestamp.
func IsServerTime(t *time.Time) bool {
	return t != nil && t.IsZero()
}

func (r *Report) Clone() *Report {
	if r == nil {
		return nil
	}
	c := *r
	c.Tanggal = cloneTime(r.Tanggal)
	c.CreatedAt = cloneTime(r.CreatedAt)
	c.ReturnedAt = cloneTime(r.ReturnedAt)
	c.TakenAt = cloneTime(r.TakenAt)
	return &c
}

// AsReturned builds the returned variant written on found-confirmation: the
// record unchanged plus returnedAt and confirmedBy, keyed by the same id.
func (r *Report) AsReturned(adminUID string) *Report {
	c := r.Clone()
	c.ReturnedAt = ServerTime()
	c.ConfirmedBy = adminUID
	c.TakenAt = nil
	c.Status = ""
	c.SourceID = ""
	c.Type = ""
	return c
}

// AsHistory builds the history variant written on archival. returnedAt and
// confirmedBy only live in the returned collection, so they are dropped.
func (r *Report) AsHistory(from Collection) *Report {
	c := r.Clone()
	c.ID = ""
	c.SourceID = r.ID
	c.TakenAt = ServerTime()
	c.Status = StatusTaken
	c.Type = from.ReportType()
	c.ReturnedAt = nil
	c.ConfirmedBy = ""
	return c
}

// DisplayName returns the item name, or "-" when the reporter left it empty.
func (r *Report) DisplayName() string {
	if r.NamaBarang == "" {
		return "-"
	}
	return r.NamaBarang
}

// EventTime is the date shown in the report table: tanggal for lost records,
// returnedAt for returned ones.
func (r *Report) EventTime() *time.Time {
	if r.Type == ReportTypeReturned {
		return r.ReturnedAt
	}
	return r.Tanggal
}

// Snapshot is the complete content of one collection at a point in time.
type Snapshot struct {
	Collection Collection
	Reports    []*Report
	ReadAt     time.Time
}

// ReportSets is a copy of the three live record sets.
type ReportSets struct {
	Lost     []*Report `json:"lost"`
	Returned []*Report `json:"returned"`
	History  []*Report `json:"history"`
}

func (s ReportSets) Of(c Collection) []*Report {
	switch c {
	case CollectionLost:
		return s.Lost
	case CollectionReturned:
		return s.Returned
	case CollectionHistory:
		return s.History
	}
	return nil
}

// Find returns the record with the given id in collection c.
func (s ReportSets) Find(c Collection, id string) (*Report, bool) {
	for _, r := range s.Of(c) {
		if r.ID == id {
			return r, true
		}
	}
	return nil, false
}

func cloneTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	v := *t
	return &v
}

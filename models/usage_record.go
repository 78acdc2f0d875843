package models

import "time"

// UsageRecord is the per-user, per-day generation counter.
// Collection: usage_records, unique (user_id, date). Rows are never deleted.
//
//	count:   dispatches that were published successfully; only increases within a day
//	pending: reservations taken but not yet committed or released
//	reserved: count + pending
type UsageRecord struct {
	UserID    string    `bson:"user_id" json:"user_id"`
	Date      string    `bson:"date" json:"date"` // YYYY-MM-DD (UTC)
	Count     int       `bson:"count" json:"count"`
	Pending   int       `bson:"pending" json:"pending"`
	Reserved  int       `bson:"reserved" json:"-"`
	CreatedAt time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time `bson:"updated_at" json:"updated_at"`
}

// DayKey formats t as the UTC calendar day used by usage records.
func DayKey(t time.Time) string {
	return t.UTC().Format("2006-01-02")
}

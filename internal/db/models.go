package db

import (
	"encoding/json"
	"fmt"
	"time"
)

// Score is one submitted game result. Rows are written once and never
// updated; CreatedAt is filled by the database default.
type Score struct {
	ID            uint      `gorm:"primaryKey" json:"id"`
	Name          string    `gorm:"not null" json:"name"`
	Classe        string    `gorm:"not null;default:''" json:"classe"`
	StudentNumber string    `gorm:"not null;default:''" json:"student_number"`
	TimeSeconds   int       `gorm:"not null" json:"time_seconds"`
	Errors        int       `gorm:"not null" json:"errors"`
	GameType      string    `gorm:"not null;default:''" json:"game_type"`
	CreatedAt     time.Time `gorm:"autoCreateTime:false;default:CURRENT_TIMESTAMP" json:"created_at"`
}

// Columns lists the record fields in export order.
var Columns = []string{
	"id",
	"name",
	"classe",
	"student_number",
	"time_seconds",
	"errors",
	"game_type",
	"created_at",
}

// TimestampLayout matches SQLite's CURRENT_TIMESTAMP text form.
const TimestampLayout = "2006-01-02 15:04:05"

// MarshalJSON renders created_at in TimestampLayout, the same text the
// CSV export and the database use.
func (s Score) MarshalJSON() ([]byte, error) {
	type plain Score
	created := ""
	if !s.CreatedAt.IsZero() {
		created = FormatTimestamp(s.CreatedAt)
	}
	return json.Marshal(struct {
		plain
		CreatedAt string `json:"created_at"`
	}{plain: plain(s), CreatedAt: created})
}

// UnmarshalJSON accepts TimestampLayout and RFC 3339 for created_at.
func (s *Score) UnmarshalJSON(data []byte) error {
	type plain Score
	aux := struct {
		*plain
		CreatedAt string `json:"created_at"`
	}{plain: (*plain)(s)}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	s.CreatedAt = time.Time{}
	if aux.CreatedAt == "" {
		return nil
	}
	created, err := time.ParseInLocation(TimestampLayout, aux.CreatedAt, time.UTC)
	if err != nil {
		if created, err = time.Parse(time.RFC3339Nano, aux.CreatedAt); err != nil {
			return fmt.Errorf("created_at: %w", err)
		}
	}
	s.CreatedAt = created
	return nil
}

package models

import (
	"time"
)

// Fixture statuses.
const (
	FixtureScheduled = "scheduled"
	FixtureLive      = "live"
	FixtureFinished  = "finished"
	FixtureCancelled = "cancelled"
)

// Fixture is a scheduled race event. Date and Location are the two
// fields every public listing carries; the rest enrich the calendar.
type Fixture struct {
	ID        int64     `json:"-" db:"id"`
	UUID      string    `json:"uuid" db:"uuid"`
	Round     int       `json:"round" db:"round"`
	Date      time.Time `json:"date" db:"date"`
	Location  string    `json:"location" db:"location"`
	Circuit   string    `json:"circuit,omitempty" db:"circuit"`
	Status    string    `json:"status" db:"status"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// ValidStatus reports whether s is one of the fixture statuses.
func ValidStatus(s string) bool {
	switch s {
	case FixtureScheduled, FixtureLive, FixtureFinished, FixtureCancelled:
		return true
	}
	return false
}

// Result is one classified finisher of a fixture.
type Result struct {
	ID        int64     `json:"-" db:"id"`
	FixtureID int64     `json:"-" db:"fixture_id"`
	Position  int       `json:"position" db:"position"`
	Driver    string    `json:"driver" db:"driver"`
	Team      string    `json:"team" db:"team"`
	Points    int       `json:"points" db:"points"`
	CreatedAt time.Time `json:"-" db:"created_at"`
}

// Standing is a driver's aggregated points over recorded results.
type Standing struct {
	Driver string `json:"driver" db:"driver"`
	Team   string `json:"team" db:"team"`
	Points int    `json:"points" db:"points"`
}

// Article is a marketing news item. Only published articles show on the
// public routes.
type Article struct {
	ID          int64      `json:"-" db:"id"`
	Slug        string     `json:"slug" db:"slug"`
	Title       string     `json:"title" db:"title"`
	Body        string     `json:"body" db:"body"`
	Published   bool       `json:"published" db:"published"`
	PublishedAt *time.Time `json:"published_at,omitempty" db:"published_at"`
	CreatedAt   time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at" db:"updated_at"`
}

// Reminder links a fan to a fixture they want to be nudged about.
type Reminder struct {
	ID        int64      `json:"-" db:"id"`
	FanID     int64      `json:"-" db:"fan_id"`
	Mobile    string     `json:"mobile" db:"mobile"`
	FixtureID int64      `json:"-" db:"fixture_id"`
	SentAt    *time.Time `json:"sent_at,omitempty" db:"sent_at"`
	CreatedAt time.Time  `json:"created_at" db:"created_at"`
}

// Notification is a stored engagement message for a fan, listed on
// /fans/notifications and broadcast over the live hub when created.
type Notification struct {
	ID        int64     `json:"-" db:"id"`
	UUID      string    `json:"uuid" db:"uuid"`
	Mobile    string    `json:"-" db:"mobile"`
	Title     string    `json:"title" db:"title"`
	Body      string    `json:"body" db:"body"`
	CreatedAt time.Time `json:"date" db:"created_at"`
}

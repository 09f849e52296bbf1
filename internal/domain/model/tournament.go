// Package model contains domain models passed between layers.
package model

import (
	"strings"
	"time"
)

// Known division identifiers.
const (
	DivisionMasters = "masters"
	DivisionSeniors = "seniors"
	DivisionJuniors = "juniors"
)

// Divisions lists every known division in display order.
func Divisions() []string {
	return []string{DivisionMasters, DivisionSeniors, DivisionJuniors}
}

// IsDivision reports whether name is a known division.
func IsDivision(name string) bool {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case DivisionMasters, DivisionSeniors, DivisionJuniors:
		return true
	default:
		return false
	}
}

// TournamentListing is a tournament discovered on the standings index.
// Immutable once discovered.
type TournamentListing struct {
	ID       string
	Name     string
	Date     time.Time // zero when DateText could not be parsed
	DateText string
	// Divisions offered by the tournament; nil when the tournament page
	// could not be read, in which case every requested division is tried.
	Divisions []string
	URL       string
}

// HasDivision reports whether the tournament offers division d.
func (t TournamentListing) HasDivision(d string) bool {
	if t.Divisions == nil {
		return true
	}
	for _, have := range t.Divisions {
		if have == d {
			return true
		}
	}
	return false
}

// DateString renders the listing date as YYYY-MM-DD, falling back to the
// raw label.
func (t TournamentListing) DateString() string {
	if t.Date.IsZero() {
		return t.DateText
	}
	return t.Date.Format(time.DateOnly)
}

// Record is a player's win/loss/tie tally.
type Record struct {
	Wins   int `json:"wins"`
	Losses int `json:"losses"`
	Ties   int `json:"ties"`
}

// Player identifies a competitor within a division.
type Player struct {
	Name    string
	Country string
	Placing int
	Record  *Record
}

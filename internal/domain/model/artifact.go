package model

import "time"

// Artifact is the run output consumed by downstream tools.
type Artifact struct {
	Meta        Meta               `json:"meta"`
	Tournaments []TournamentResult `json:"tournaments"`
	Errors      []UnitError        `json:"errors"`
}

// Meta describes the run that produced an artifact.
type Meta struct {
	GeneratedAt     time.Time `json:"generatedAt"`
	Limit           *int      `json:"limit"` // nil when unbounded
	Divisions       []string  `json:"divisions"`
	Refreshed       bool      `json:"refreshed"`
	RunID           string    `json:"runId,omitempty"`
	Format          string    `json:"format,omitempty"`
	SnapshotVersion string    `json:"snapshotVersion,omitempty"`
	Workers         int       `json:"workers,omitempty"`
}

// TournamentResult holds the players of one tournament division.
type TournamentResult struct {
	ID       string         `json:"id"`
	Name     string         `json:"name,omitempty"`
	Division string         `json:"division"`
	Date     string         `json:"date"`
	Stale    bool           `json:"stale,omitempty"`
	Players  []PlayerResult `json:"players"`
}

// PlayerResult is a player's resolved team and its legality. ShowdownTeam
// is the team in export text, ready to import into a simulator.
type PlayerResult struct {
	Name         string         `json:"name"`
	Country      string         `json:"country,omitempty"`
	Placing      int            `json:"placing,omitempty"`
	Record       *Record        `json:"record,omitempty"`
	ShowdownTeam string         `json:"showdownTeam"`
	Team         []PokemonBuild `json:"team"`
	Legality     Legality       `json:"legality"`
}

// Legality is the serialized form of a ValidationReport.
type Legality struct {
	Legal  bool            `json:"legal"`
	Issues []LegalityIssue `json:"issues"`
}

// UnitError records a failed processing unit.
type UnitError struct {
	Unit   UnitKey `json:"unit"`
	Stage  State   `json:"stage"`
	Reason string  `json:"reason"`
}

// NewLegality converts a report, keeping an empty issue list non-nil.
func NewLegality(r ValidationReport) Legality {
	issues := r.Issues
	if issues == nil {
		issues = []LegalityIssue{}
	}
	return Legality{Legal: r.Legal(), Issues: issues}
}

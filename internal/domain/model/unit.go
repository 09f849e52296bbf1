package model

import "fmt"

// State is a processing unit's position in its lifecycle.
type State string

// Unit states in lifecycle order. Failed is reachable from any non-terminal
// state.
const (
	StateQueued     State = "Queued"
	StateFetching   State = "Fetching"
	StateParsing    State = "Parsing"
	StateResolving  State = "Resolving"
	StateValidating State = "Validating"
	StateDone       State = "Done"
	StateFailed     State = "Failed"
)

var nextState = map[State]State{
	StateQueued:     StateFetching,
	StateFetching:   StateParsing,
	StateParsing:    StateResolving,
	StateResolving:  StateValidating,
	StateValidating: StateDone,
}

// UnitKey identifies a processing unit.
type UnitKey struct {
	TournamentID string `json:"tournamentId"`
	Division     string `json:"division"`
	Player       string `json:"player"`
}

func (k UnitKey) String() string {
	return k.TournamentID + "/" + k.Division + "/" + k.Player
}

// ProcessingUnit is one player's roster within one tournament division.
// A unit is owned by exactly one worker at a time; its scratch fields are
// never shared.
type ProcessingUnit struct {
	Key   UnitKey
	Index int // position of the player on the division page

	state       State
	failedStage State
	reason      string

	// Scratch state filled in as the unit advances.
	Player     Player
	RosterText string
	Team       Team
	Report     ValidationReport
}

// NewUnit creates a queued unit.
func NewUnit(key UnitKey, index int) *ProcessingUnit {
	return &ProcessingUnit{Key: key, Index: index, state: StateQueued}
}

// State returns the current state.
func (u *ProcessingUnit) State() State { return u.state }

// Terminal reports whether the unit is Done or Failed.
func (u *ProcessingUnit) Terminal() bool {
	return u.state == StateDone || u.state == StateFailed
}

// Advance moves the unit to next, which must be the immediate successor of
// the current state.
func (u *ProcessingUnit) Advance(next State) error {
	if want, ok := nextState[u.state]; !ok || want != next {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, u.state, next)
	}
	u.state = next
	return nil
}

// Fail records a failure at the current stage.
func (u *ProcessingUnit) Fail(reason string) error {
	if u.Terminal() {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, u.state, StateFailed)
	}
	u.failedStage = u.state
	u.reason = reason
	u.state = StateFailed
	return nil
}

// Failure returns the stage and reason of a failed unit.
func (u *ProcessingUnit) Failure() (stage State, reason string, ok bool) {
	if u.state != StateFailed {
		return "", "", false
	}
	return u.failedStage, u.reason, true
}

// Package artifact serializes run results for downstream consumers.
package artifact

import (
	"bytes"
	"errors"
	"fmt"
	"os"

	json "github.com/goccy/go-json"

	"github.com/okian/rosterpipe/internal/atomicfile"
	"github.com/okian/rosterpipe/internal/domain/model"
)

// DefaultPath is where the artifact is written when no path is configured.
const DefaultPath = "tournament_teams.json"

// ErrEmptyPath is returned when no output path is given.
var ErrEmptyPath = errors.New("artifact path is empty")

// Encode renders a as indented JSON. Nil slices are emitted as empty arrays
// so consumers can always iterate.
func Encode(a model.Artifact) ([]byte, error) {
	normalize(&a)
	data, err := json.MarshalIndent(a, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encode artifact: %w", err)
	}
	return append(data, '\n'), nil
}

// Write encodes a and replaces the file at path atomically.
func Write(path string, a model.Artifact) error {
	if path == "" {
		return ErrEmptyPath
	}
	data, err := Encode(a)
	if err != nil {
		return err
	}
	if err := atomicfile.Write(path, data, 0o644); err != nil {
		return fmt.Errorf("write artifact %s: %w", path, err)
	}
	return nil
}

// Read loads an artifact written by Write.
func Read(path string) (model.Artifact, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return model.Artifact{}, fmt.Errorf("read artifact %s: %w", path, err)
	}
	var a model.Artifact
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&a); err != nil {
		return model.Artifact{}, fmt.Errorf("decode artifact %s: %w", path, err)
	}
	return a, nil
}

// normalize replaces nil slices with empty ones. Nested slices are copied
// before they are touched so the caller's artifact is left as is.
func normalize(a *model.Artifact) {
	if a.Meta.Divisions == nil {
		a.Meta.Divisions = []string{}
	}
	if a.Errors == nil {
		a.Errors = []model.UnitError{}
	}
	tournaments := make([]model.TournamentResult, len(a.Tournaments))
	copy(tournaments, a.Tournaments)
	for i := range tournaments {
		players := make([]model.PlayerResult, len(tournaments[i].Players))
		copy(players, tournaments[i].Players)
		for j := range players {
			p := &players[j]
			team := make([]model.PokemonBuild, len(p.Team))
			copy(team, p.Team)
			for k := range team {
				if team[k].Moves == nil {
					team[k].Moves = []string{}
				}
				if team[k].ValidFormats == nil {
					team[k].ValidFormats = []string{}
				}
			}
			p.Team = team
			if p.Legality.Issues == nil {
				p.Legality.Issues = []model.LegalityIssue{}
			}
		}
		tournaments[i].Players = players
	}
	a.Tournaments = tournaments
}

package pokedata

import (
	"regexp"
	"strings"

	json "github.com/goccy/go-json"

	"github.com/okian/rosterpipe/internal/domain/model"
	"github.com/okian/rosterpipe/internal/errs"
)

const (
	opDecode = "pokedata.decode"

	// Standings are played at level 50.
	standingsLevel = 50
)

var countrySuffix = regexp.MustCompile(`^(.+?)\s*\[([A-Z]{2})\]$`)

// DecklistSlot is one Pokémon as listed on a standings page.
type DecklistSlot struct {
	Name     string   `json:"name"`
	TeraType string   `json:"teratype"`
	Ability  string   `json:"ability"`
	Item     string   `json:"item"`
	Badges   []string `json:"badges"`
}

// Standing is one player row of a division document.
type Standing struct {
	Name     string         `json:"name"`
	Placing  int            `json:"placing"`
	Record   *model.Record  `json:"record"`
	Decklist []DecklistSlot `json:"decklist"`
}

// DecodeDivision parses a division standings document.
func DecodeDivision(payload []byte) ([]Standing, error) {
	var rows []Standing
	if err := json.Unmarshal(payload, &rows); err != nil {
		return nil, errs.Parse(opDecode, "division", err)
	}
	return rows, nil
}

// Player splits "Name [CC]" into name and country.
func (s Standing) Player() model.Player {
	name, country := SplitPlayerName(s.Name)
	return model.Player{Name: name, Country: country, Placing: s.Placing, Record: s.Record}
}

// Team converts the decklist into builds. Empty move badges are skipped.
func (s Standing) Team() model.Team {
	team := model.Team{Builds: make([]model.PokemonBuild, 0, len(s.Decklist))}
	for _, slot := range s.Decklist {
		b := model.PokemonBuild{
			Species:  strings.TrimSpace(slot.Name),
			Item:     strings.TrimSpace(slot.Item),
			Ability:  strings.TrimSpace(slot.Ability),
			TeraType: strings.TrimSpace(slot.TeraType),
			Level:    standingsLevel,
		}
		for _, m := range slot.Badges {
			if m = strings.TrimSpace(m); m != "" {
				b.Moves = append(b.Moves, m)
			}
		}
		team.Builds = append(team.Builds, b)
	}
	return team
}

// SplitPlayerName separates a trailing two-letter country code.
func SplitPlayerName(raw string) (name, country string) {
	raw = strings.TrimSpace(raw)
	if m := countrySuffix.FindStringSubmatch(raw); m != nil {
		return strings.TrimSpace(m[1]), m[2]
	}
	return raw, ""
}

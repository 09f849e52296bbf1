package model

// Team bounds.
const (
	MinTeamSize = 1
	MaxTeamSize = 6
	MaxMoves    = 4
)

// Stats maps a stat abbreviation (HP, Atk, Def, SpA, SpD, Spe) to a value.
type Stats map[string]int

// PokemonBuild is one team slot. Before resolution the name fields hold the
// text found in the roster; after resolution they hold canonical names and
// the *ID fields are populated.
type PokemonBuild struct {
	Species  string   `json:"species"`
	Item     string   `json:"item"`
	Ability  string   `json:"ability"`
	Moves    []string `json:"moves"`
	TeraType string   `json:"teraType,omitempty"`
	Nature   string   `json:"nature,omitempty"`
	EVs      Stats    `json:"evs,omitempty"`
	IVs      Stats    `json:"ivs,omitempty"`
	Level    int      `json:"level,omitempty"`

	// ValidFormats lists the formats the species is not banned from.
	ValidFormats []string `json:"validFormats"`

	SpeciesID string   `json:"-"`
	ItemID    string   `json:"-"`
	AbilityID string   `json:"-"`
	MoveIDs   []string `json:"-"`
}

// Team is an ordered sequence of builds plus the format it is played in.
type Team struct {
	Format string
	Builds []PokemonBuild
}

// Size returns the number of builds.
func (t Team) Size() int { return len(t.Builds) }

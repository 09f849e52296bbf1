// Package roster turns loosely formatted roster text into structured teams.
//
// Rosters follow the Showdown export layout: one entry per Pokémon, entries
// separated by blank lines, a "Species @ Item" header followed by attribute
// lines and "- Move" lines. Every line is classified by exactly one token
// rule; decorative tokens are discarded, unknown "Label: value" lines are
// dropped and logged, and anything that cannot be attributed to an entry is
// a parse error.
package roster

import (
	"context"
	"fmt"
	"strings"

	"github.com/okian/rosterpipe/internal/domain/ident"
	"github.com/okian/rosterpipe/internal/domain/model"
	"github.com/okian/rosterpipe/internal/errs"
	"github.com/okian/rosterpipe/pkg/logger"
)

const opParse = "roster.parse"

// Resolver parses roster text.
type Resolver struct {
	defaultFormat string
	logger        logger.Logger
}

// New creates a Resolver.
func New(opts ...Option) *Resolver {
	r := &Resolver{logger: logger.Nop()}

	// Apply all options
	for _, opt := range opts {
		opt(r)
	}

	return r
}

// entry accumulates one Pokémon while its lines are read.
type entry struct {
	build   model.PokemonBuild
	line    int
	seen    map[TokenClass]bool
	moveIDs map[string]bool
}

func newEntry(line int, species, item string) *entry {
	e := &entry{
		build:   model.PokemonBuild{Species: species, Item: item},
		line:    line,
		seen:    map[TokenClass]bool{TokenSpecies: true},
		moveIDs: map[string]bool{},
	}
	if item != "" {
		e.seen[TokenItem] = true
	}
	return e
}

// ParseRoster splits raw into entries and returns the team. It fails with a
// parse error when an entry has no species, when a single-valued attribute
// is given twice, when a line inside an entry cannot be placed, when an entry
// declares more than four distinct moves, or when the team size falls outside
// [1,6].
func (r *Resolver) ParseRoster(ctx context.Context, raw string) (model.Team, error) {
	team := model.Team{Format: r.defaultFormat}
	var (
		cur     *entry
		entries []*entry
	)
	closeEntry := func() {
		if cur != nil {
			entries = append(entries, cur)
			cur = nil
		}
	}

	lines := strings.Split(strings.ReplaceAll(raw, "\r\n", "\n"), "\n")
	for i, rawLine := range lines {
		lineNo := i + 1
		line := strings.TrimSpace(rawLine)
		if line == "" {
			closeEntry()
			continue
		}

		tok := Classify(line)
		if tok.Class == TokenTeamHeader {
			closeEntry()
			if tok.Value != "" {
				team.Format = ident.ToID(tok.Value)
			}
			continue
		}

		if tok.Class == TokenUnknown {
			// A header opens a new entry when nothing is open, when the open
			// entry already has its moves, or when it names an item.
			if cur == nil || len(cur.build.Moves) > 0 || strings.Contains(line, "@") {
				head, ok := MatchSpecies(line)
				if !ok {
					return model.Team{}, errs.Parsef(opParse, "line %d: entry header %q has no species", lineNo, line)
				}
				closeEntry()
				cur = newEntry(lineNo, head.Value, head.Item)
				continue
			}
			// Unknown "Label: value" attributes are dropped. Anything else
			// could be a header and cannot be placed.
			if !isAttributeLine(line) {
				return model.Team{}, errs.Parsef(opParse, "line %d: %q inside the %s entry is neither an attribute nor a move", lineNo, line, cur.build.Species)
			}
			r.logger.Debug(ctx, "dropping unrecognised roster attribute",
				logger.Int("line", lineNo), logger.String("text", line))
			continue
		}

		if cur == nil {
			return model.Team{}, errs.Parsef(opParse, "line %d: %s line %q appears before any species", lineNo, tok.Class, line)
		}
		if err := cur.apply(tok, lineNo); err != nil {
			return model.Team{}, err
		}
	}
	closeEntry()

	n := len(entries)
	if n < model.MinTeamSize || n > model.MaxTeamSize {
		return model.Team{}, errs.Parsef(opParse, "roster has %d entries; team size must be within [%d,%d]", n, model.MinTeamSize, model.MaxTeamSize)
	}

	team.Builds = make([]model.PokemonBuild, 0, n)
	for _, e := range entries {
		if len(e.moveIDs) > model.MaxMoves {
			return model.Team{}, errs.Parsef(opParse, "line %d: %s declares %d distinct moves; at most %d allowed", e.line, e.build.Species, len(e.moveIDs), model.MaxMoves)
		}
		team.Builds = append(team.Builds, e.build)
	}

	r.logger.Debug(ctx, "parsed roster", logger.Int("entries", n), logger.String("format", team.Format))
	return team, nil
}

// apply folds a classified token into the entry.
func (e *entry) apply(tok Token, lineNo int) error {
	switch tok.Class {
	case TokenMove:
		id := ident.ToID(tok.Value)
		if id == "" || e.moveIDs[id] {
			return nil
		}
		e.moveIDs[id] = true
		e.build.Moves = append(e.build.Moves, tok.Value)
		return nil
	case TokenGender, TokenShiny, TokenIgnored:
		return nil
	}

	if e.seen[tok.Class] {
		return errs.Parsef(opParse, "line %d: %s given twice for %s", lineNo, tok.Class, e.build.Species)
	}
	e.seen[tok.Class] = true

	switch tok.Class {
	case TokenAbility:
		e.build.Ability = tok.Value
	case TokenItem:
		e.build.Item = tok.Value
	case TokenTera:
		e.build.TeraType = tok.Value
	case TokenNature:
		e.build.Nature = tok.Value
	case TokenEVs:
		e.build.EVs = tok.Stats
	case TokenIVs:
		e.build.IVs = tok.Stats
	case TokenLevel:
		e.build.Level = tok.Level
	default:
		return errs.Parsef(opParse, "line %d: unexpected %s token", lineNo, tok.Class)
	}
	return nil
}

// Export renders a team in the export layout ParseRoster reads. Species
// labels with a parenthesized descriptor are written with brackets so the
// descriptor is not mistaken for a nickname.
func Export(team model.Team) string {
	var b strings.Builder
	for i, p := range team.Builds {
		if i > 0 {
			b.WriteString("\n")
		}
		species := p.Species
		if base, desc, ok := ident.SplitDescriptor(species); ok && strings.HasSuffix(species, ")") {
			species = fmt.Sprintf("%s [%s]", base, desc)
		}
		b.WriteString(species)
		if p.Item != "" {
			b.WriteString(" @ " + p.Item)
		}
		b.WriteString("\n")
		if p.Ability != "" {
			b.WriteString("Ability: " + p.Ability + "\n")
		}
		if p.Level > 0 {
			fmt.Fprintf(&b, "Level: %d\n", p.Level)
		}
		if p.TeraType != "" {
			b.WriteString("Tera Type: " + p.TeraType + "\n")
		}
		if len(p.EVs) > 0 {
			b.WriteString("EVs: " + spread(p.EVs) + "\n")
		}
		if p.Nature != "" {
			b.WriteString(p.Nature + " Nature\n")
		}
		if len(p.IVs) > 0 {
			b.WriteString("IVs: " + spread(p.IVs) + "\n")
		}
		for _, m := range p.Moves {
			b.WriteString("- " + m + "\n")
		}
	}
	return b.String()
}

var statOrder = []string{"HP", "Atk", "Def", "SpA", "SpD", "Spe"}

func spread(s model.Stats) string {
	parts := make([]string, 0, len(s))
	for _, k := range statOrder {
		if v, ok := s[k]; ok {
			parts = append(parts, fmt.Sprintf("%d %s", v, k))
		}
	}
	return strings.Join(parts, " / ")
}

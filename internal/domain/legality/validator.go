// Package legality checks teams against a format's rule set.
package legality

import (
	"fmt"
	"strings"

	"github.com/okian/rosterpipe/internal/domain/ident"
	"github.com/okian/rosterpipe/internal/domain/model"
)

// Dex answers the species questions validation needs.
type Dex interface {
	CanLearn(speciesID, moveID string, rules model.FormatRuleSet) bool
	SpeciesTags(speciesID string) []string
	SpeciesAbilities(speciesID string) []string
	SpeciesNonstandard(speciesID string) string
	// SpeciesNum is the National Dex number shared by every forme of a
	// species, zero when unknown.
	SpeciesNum(speciesID string) int
}

var defaultTeraTypes = []string{
	"Normal", "Fire", "Water", "Electric", "Grass", "Ice", "Fighting", "Poison", "Ground",
	"Flying", "Psychic", "Bug", "Rock", "Ghost", "Dragon", "Dark", "Steel", "Fairy", "Stellar",
}

// Validator is stateless apart from its configuration and safe for
// concurrent use.
type Validator struct {
	dex       Dex
	teraTypes map[string]bool
}

// New creates a Validator backed by dex.
func New(dex Dex, opts ...Option) *Validator {
	v := &Validator{dex: dex}
	WithTeraTypes(defaultTeraTypes...)(v)

	// Apply all options
	for _, opt := range opts {
		opt(v)
	}

	return v
}

// Validate runs every check in a fixed order and returns the issues found.
// Builds are expected to carry resolved ids; a build whose id is missing is
// skipped by the checks that need it.
func (v *Validator) Validate(team model.Team, rules model.FormatRuleSet) model.ValidationReport {
	c := &check{v: v, rules: rules, builds: team.Builds, format: formatName(rules)}
	c.speciesBans()
	c.moves()
	c.items()
	c.speciesClause()
	c.teamSize()
	c.abilities()
	c.restricted()
	c.availability()
	c.teraTypes()
	return model.ValidationReport{Team: &team, Issues: c.issues}
}

type check struct {
	v      *Validator
	rules  model.FormatRuleSet
	builds []model.PokemonBuild
	format string
	issues []model.LegalityIssue
}

func (c *check) add(code string, sev model.Severity, format string, args ...any) {
	c.issues = append(c.issues, model.LegalityIssue{Code: code, Message: fmt.Sprintf(format, args...), Severity: sev})
}

func (c *check) errorf(code, format string, args ...any) {
	c.add(code, model.SeverityError, format, args...)
}

func (c *check) speciesBans() {
	for _, b := range c.builds {
		id := b.SpeciesID
		if id == "" {
			continue
		}
		if c.rules.Bans(id) {
			c.errorf(model.CodeSpeciesBanned, "%s is banned in %s", b.Species, c.format)
			continue
		}
		if c.rules.Unbanlist[id] {
			continue
		}
		if tag := firstShared(c.v.dex.SpeciesTags(id), c.rules.BannedTags); tag != "" {
			c.errorf(model.CodeSpeciesBanned, "%s is banned in %s (%s)", b.Species, c.format, tag)
		}
	}
}

func (c *check) moves() {
	for _, b := range c.builds {
		sid := b.SpeciesID
		for i, name := range b.Moves {
			id := moveID(b, i)
			if id == "" {
				continue
			}
			switch {
			case c.rules.Bans(id):
				c.errorf(model.CodeMoveBanned, "%s is banned in %s", name, c.format)
			case sid != "" && !c.v.dex.CanLearn(sid, id, c.rules):
				c.errorf(model.CodeMoveIllegal, "%s cannot learn %s in %s", b.Species, name, c.format)
			}
		}
	}
}

func (c *check) items() {
	held := map[string]bool{}
	for _, b := range c.builds {
		id := b.ItemID
		if id == "" {
			continue
		}
		if c.rules.Bans(id) {
			c.errorf(model.CodeItemBanned, "%s is banned in %s", b.Item, c.format)
		}
		if c.rules.ItemClause {
			if held[id] {
				c.errorf(model.CodeItemDuplicate, "%s is held by more than one Pokémon", b.Item)
			}
			held[id] = true
		}
	}
}

// dexKey identifies a species for the species clause: formes share a
// National Dex number, and the id stands in when the number is unknown.
type dexKey struct {
	num int
	id  string
}

// speciesClause reports one issue per repeated occurrence beyond the first.
func (c *check) speciesClause() {
	if !c.rules.SpeciesClause {
		return
	}
	seen := map[dexKey]bool{}
	for _, b := range c.builds {
		if b.SpeciesID == "" {
			continue
		}
		key := dexKey{id: b.SpeciesID}
		if n := c.v.dex.SpeciesNum(b.SpeciesID); n > 0 {
			key = dexKey{num: n}
		}
		if seen[key] {
			c.errorf(model.CodeSpeciesDuplicate, "%s appears more than once", b.Species)
		}
		seen[key] = true
	}
}

func (c *check) teamSize() {
	if n := len(c.builds); n < model.MinTeamSize || n > model.MaxTeamSize {
		c.errorf(model.CodeTeamSize, "team has %d Pokémon; must be within [%d,%d]", n, model.MinTeamSize, model.MaxTeamSize)
	}
}

func (c *check) abilities() {
	for _, b := range c.builds {
		id := b.AbilityID
		if id == "" {
			continue
		}
		if c.rules.Bans(id) {
			c.errorf(model.CodeAbilityBanned, "%s is banned in %s", b.Ability, c.format)
			continue
		}
		sid := b.SpeciesID
		if sid == "" {
			continue
		}
		if legal := c.v.dex.SpeciesAbilities(sid); len(legal) > 0 && !contains(legal, id) {
			c.errorf(model.CodeAbilityIllegal, "%s cannot have %s", b.Species, b.Ability)
		}
	}
}

func (c *check) restricted() {
	if c.rules.RestrictedLimit <= 0 {
		return
	}
	var names []string
	for _, b := range c.builds {
		id := b.SpeciesID
		if id == "" {
			continue
		}
		if contains(c.rules.RestrictedTags, id) || firstShared(c.v.dex.SpeciesTags(id), c.rules.RestrictedTags) != "" {
			names = append(names, b.Species)
		}
	}
	if len(names) > c.rules.RestrictedLimit {
		c.errorf(model.CodeRestrictedLimit, "%d restricted Pokémon (%s); at most %d allowed",
			len(names), strings.Join(names, ", "), c.rules.RestrictedLimit)
	}
}

func (c *check) availability() {
	for _, b := range c.builds {
		id := b.SpeciesID
		if id == "" || c.rules.Unbanlist[id] {
			continue
		}
		if flag := c.v.dex.SpeciesNonstandard(id); flag != "" {
			c.errorf(model.CodeSpeciesUnavailable, "%s is not obtainable in %s (%s)", b.Species, c.format, flag)
		}
	}
}

func (c *check) teraTypes() {
	for _, b := range c.builds {
		if b.TeraType == "" {
			continue
		}
		if !c.v.teraTypes[ident.ToID(b.TeraType)] {
			c.add(model.CodeTeraTypeUnknown, model.SeverityWarning, "%s has unknown Tera Type %q", b.Species, b.TeraType)
		}
	}
}

func moveID(b model.PokemonBuild, i int) string {
	if len(b.MoveIDs) == len(b.Moves) {
		return b.MoveIDs[i]
	}
	return ""
}

func formatName(rules model.FormatRuleSet) string {
	if rules.Name != "" {
		return rules.Name
	}
	return rules.ID
}

func firstShared(have, want []string) string {
	for _, w := range want {
		if contains(have, w) {
			return w
		}
	}
	return ""
}

func contains(list []string, s string) bool {
	for _, x := range list {
		if x == s {
			return true
		}
	}
	return false
}

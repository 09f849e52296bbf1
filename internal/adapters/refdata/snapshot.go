package refdata

import (
	"regexp"
	"slices"
	"sort"
	"strings"

	"github.com/okian/rosterpipe/internal/domain/ident"
	"github.com/okian/rosterpipe/internal/domain/model"
	"github.com/okian/rosterpipe/internal/errs"
)

const (
	opResolveSpecies = "refdata.species"
	opResolveMove    = "refdata.move"
	opResolveItem    = "refdata.item"
	opResolveAbility = "refdata.ability"
	opFormat         = "refdata.format"
	opDecode         = "refdata.decode"

	maxLearnChain = 8
)

// Species is a resolved pokedex record.
type Species struct {
	ID          string
	Num         int
	Name        string
	BaseSpecies string
	Forme       string
	Types       []string
	Abilities   []string // ability ids
	Tags        []string
	Nonstandard string

	prevo       string
	changesFrom string
}

// Entry is a resolved move, item or ability.
type Entry struct {
	ID          string
	Name        string
	Nonstandard string
}

// Snapshot is one immutable version of the reference data. All methods are
// safe for concurrent use.
type Snapshot struct {
	version string

	species   map[string]*Species
	moves     map[string]Entry
	items     map[string]Entry
	abilities map[string]Entry
	learnsets map[string]map[string][]string
	formats   map[string]model.FormatRuleSet

	speciesAlias map[string]string
	moveAlias    map[string]string
	itemAlias    map[string]string
	abilityAlias map[string]string
	descriptors  map[string]string
}

// NewSnapshot indexes decoded datasets. A nil alias table uses the
// compiled-in one.
func NewSnapshot(version string, ds Datasets, aliases *AliasTable) *Snapshot {
	if aliases == nil {
		aliases = DefaultAliases()
	}
	s := &Snapshot{
		version:      version,
		species:      make(map[string]*Species, len(ds.Pokedex)),
		moves:        make(map[string]Entry, len(ds.Moves)),
		items:        make(map[string]Entry, len(ds.Items)),
		abilities:    make(map[string]Entry, len(ds.Abilities)),
		learnsets:    make(map[string]map[string][]string, len(ds.Learnsets)),
		formats:      make(map[string]model.FormatRuleSet, len(ds.Formats)),
		speciesAlias: map[string]string{},
		moveAlias:    map[string]string{},
		itemAlias:    map[string]string{},
		abilityAlias: map[string]string{},
		descriptors:  aliases.Descriptors,
	}
	if s.descriptors == nil {
		s.descriptors = map[string]string{}
	}

	s.indexSpecies(ds)
	for id, m := range ds.Moves {
		s.moves[id] = Entry{ID: id, Name: m.Name, Nonstandard: m.IsNonstandard}
	}
	for id, it := range ds.Items {
		s.items[id] = Entry{ID: id, Name: it.Name}
	}
	for id, a := range ds.Abilities {
		s.abilities[id] = Entry{ID: id, Name: a.Name}
	}
	for id, l := range ds.Learnsets {
		if len(l.Learnset) > 0 {
			s.learnsets[id] = l.Learnset
		}
	}
	for _, f := range ds.Formats {
		if f.Name == "" {
			continue
		}
		rs := buildRuleSet(f)
		s.formats[rs.ID] = rs
	}

	addAliases(s.speciesAlias, aliases.Species, func(id string) bool { return s.species[id] != nil })
	addAliases(s.moveAlias, aliases.Moves, func(id string) bool { _, ok := s.moves[id]; return ok })
	addAliases(s.itemAlias, aliases.Items, func(id string) bool { _, ok := s.items[id]; return ok })
	addAliases(s.abilityAlias, aliases.Abilities, func(id string) bool { _, ok := s.abilities[id]; return ok })
	return s
}

func (s *Snapshot) indexSpecies(ds Datasets) {
	ids := make([]string, 0, len(ds.Pokedex))
	for id := range ds.Pokedex {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	for _, id := range ids {
		d := ds.Pokedex[id]
		sp := &Species{
			ID:          id,
			Num:         d.Num,
			Name:        d.Name,
			BaseSpecies: d.BaseSpecies,
			Forme:       d.Forme,
			Types:       d.Types,
			Tags:        d.Tags,
			Nonstandard: d.IsNonstandard,
			prevo:       ident.ToID(d.Prevo),
			changesFrom: ident.ToID(d.ChangesFrom),
		}
		if sp.Nonstandard == "" {
			sp.Nonstandard = ds.FormatsData[id].IsNonstandard
		}
		slots := make([]string, 0, len(d.Abilities))
		for slot := range d.Abilities {
			slots = append(slots, slot)
		}
		sort.Strings(slots)
		for _, slot := range slots {
			sp.Abilities = append(sp.Abilities, ident.ToID(d.Abilities[slot]))
		}
		s.species[id] = sp
		s.speciesAlias[id] = id
	}

	// Derived spellings never shadow a real id.
	for _, id := range ids {
		sp := s.species[id]
		setOnce(s.speciesAlias, ident.ToID(sp.Name), id)
		if sp.BaseSpecies != "" && sp.Forme != "" {
			setOnce(s.speciesAlias, ident.ToID(sp.BaseSpecies+sp.Forme), id)
		}
		for _, c := range ds.Pokedex[id].CosmeticFormes {
			setOnce(s.speciesAlias, ident.ToID(c), id)
		}
	}
}

func setOnce(m map[string]string, k, v string) {
	if _, ok := m[k]; !ok && k != "" {
		m[k] = v
	}
}

// addAliases maps each alias id to the id of its canonical name. Aliases whose
// canonical name is absent from this snapshot are ignored.
func addAliases(dst map[string]string, table map[string]string, known func(string) bool) {
	for alias, canonical := range table {
		target := ident.ToID(canonical)
		if resolved, ok := dst[target]; ok {
			target = resolved
		}
		if !known(target) {
			continue
		}
		dst[ident.ToID(alias)] = target
	}
}

// Version returns the snapshot version.
func (s *Snapshot) Version() string { return s.version }

// ResolveSpecies maps a display name to its species record. Lookup order is
// alias table, descriptor folding ("Calyrex [Shadow Rider]" to
// Calyrex-Shadow, "Galarian Slowbro" to Slowbro-Galar), then the base species
// of a qualified label.
func (s *Snapshot) ResolveSpecies(name string) (Species, error) {
	if sp, ok := s.lookupSpecies(name); ok {
		return *sp, nil
	}

	if base, desc, ok := ident.SplitDescriptor(name); ok {
		if sp, ok := s.lookupSpecies(s.fold(base, ident.Words(desc))); ok {
			return *sp, nil
		}
		if sp, ok := s.lookupSpecies(base); ok {
			return *sp, nil
		}
	}

	// Leading regional adjective.
	if words := strings.Fields(name); len(words) > 1 {
		if suffix := s.descriptors[ident.ToID(words[0])]; suffix != "" {
			if sp, ok := s.lookupSpecies(strings.Join(words[1:], " ") + "-" + suffix); ok {
				return *sp, nil
			}
		}
	}
	return Species{}, errs.NotFound(opResolveSpecies, name)
}

func (s *Snapshot) lookupSpecies(name string) (*Species, bool) {
	id, ok := s.speciesAlias[ident.ToID(name)]
	if !ok {
		return nil, false
	}
	sp := s.species[id]
	return sp, sp != nil
}

// fold builds "Base-Suffix-Suffix" from descriptor words. Words naming the
// base species itself are dropped ("Rotom [Wash Rotom]").
func (s *Snapshot) fold(base string, words []string) string {
	baseID := ident.ToID(base)
	parts := []string{base}
	for _, w := range words {
		if ident.ToID(w) == baseID {
			continue
		}
		suffix, mapped := s.descriptors[ident.ToID(w)]
		if !mapped {
			suffix = ident.Title(w)
		}
		if suffix != "" {
			parts = append(parts, suffix)
		}
	}
	return strings.Join(parts, "-")
}

var (
	parenthetical = regexp.MustCompile(`\s*[\[(][^\])]*[\])]`)
	moveFiller    = map[string]bool{"doubles": true, "singles": true, "battle": true, "mode": true, "form": true}
)

// ResolveMove maps a display name to its move record. Qualifiers such as
// "(Doubles)" are ignored when the plain name does not match.
func (s *Snapshot) ResolveMove(name string) (Entry, error) {
	if e, ok := lookup(s.moves, s.moveAlias, name); ok {
		return e, nil
	}
	stripped := parenthetical.ReplaceAllString(name, "")
	var kept []string
	for _, w := range strings.Fields(stripped) {
		if !moveFiller[strings.ToLower(w)] {
			kept = append(kept, w)
		}
	}
	if e, ok := lookup(s.moves, s.moveAlias, strings.Join(kept, " ")); ok {
		return e, nil
	}
	return Entry{}, errs.NotFound(opResolveMove, name)
}

// ResolveItem maps a display name to its item record.
func (s *Snapshot) ResolveItem(name string) (Entry, error) {
	if e, ok := lookup(s.items, s.itemAlias, name); ok {
		return e, nil
	}
	return Entry{}, errs.NotFound(opResolveItem, name)
}

// ResolveAbility maps a display name to its ability record.
func (s *Snapshot) ResolveAbility(name string) (Entry, error) {
	if e, ok := lookup(s.abilities, s.abilityAlias, name); ok {
		return e, nil
	}
	return Entry{}, errs.NotFound(opResolveAbility, name)
}

func lookup(entries map[string]Entry, aliases map[string]string, name string) (Entry, bool) {
	id := ident.ToID(name)
	if id == "" {
		return Entry{}, false
	}
	if e, ok := entries[id]; ok {
		return e, true
	}
	if target, ok := aliases[id]; ok {
		e, ok := entries[target]
		return e, ok
	}
	return Entry{}, false
}

// FormatRules returns the rule set of a format by name or id.
func (s *Snapshot) FormatRules(format string) (model.FormatRuleSet, error) {
	rs, ok := s.formats[ident.ToID(format)]
	if !ok {
		return model.FormatRuleSet{}, errs.NotFound(opFormat, format)
	}
	return rs, nil
}

// Formats lists the ids of every known format, sorted.
func (s *Snapshot) Formats() []string {
	out := make([]string, 0, len(s.formats))
	for id := range s.formats {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}

// CanLearn reports whether a species can know a move under the generation
// bounds of rules. Formes without their own learnset inherit from the base
// species, and every species inherits from its pre-evolutions.
func (s *Snapshot) CanLearn(speciesID, moveID string, rules model.FormatRuleSet) bool {
	seen := map[string]bool{}
	queue := []string{speciesID}
	for len(queue) > 0 && len(seen) < maxLearnChain {
		id := queue[0]
		queue = queue[1:]
		if id == "" || seen[id] {
			continue
		}
		seen[id] = true

		for _, src := range s.learnsets[id][moveID] {
			if sourceAllowed(src, rules) {
				return true
			}
		}
		sp := s.species[id]
		if sp == nil {
			continue
		}
		if sp.changesFrom != "" {
			queue = append(queue, sp.changesFrom)
		}
		if sp.Forme != "" && sp.BaseSpecies != "" {
			queue = append(queue, ident.ToID(sp.BaseSpecies))
		}
		queue = append(queue, sp.prevo)
	}
	return false
}

// sourceAllowed checks the generation prefix of a learnset source such as
// "9M" against the format's bounds.
func sourceAllowed(src string, rules model.FormatRuleSet) bool {
	gen := 0
	for i := 0; i < len(src) && src[i] >= '0' && src[i] <= '9'; i++ {
		gen = gen*10 + int(src[i]-'0')
	}
	if gen == 0 {
		return false
	}
	if rules.Generation > 0 && gen > rules.Generation {
		return false
	}
	return gen >= rules.MinSourceGen
}

// SpeciesTags returns the category tags of a species.
func (s *Snapshot) SpeciesTags(speciesID string) []string {
	if sp := s.species[speciesID]; sp != nil {
		return sp.Tags
	}
	return nil
}

// SpeciesAbilities returns the ability ids a species may have.
func (s *Snapshot) SpeciesAbilities(speciesID string) []string {
	if sp := s.species[speciesID]; sp != nil {
		return sp.Abilities
	}
	return nil
}

// SpeciesNonstandard returns the non-standard flag of a species ("Past",
// "Unobtainable", ...), empty when the species is available.
func (s *Snapshot) SpeciesNonstandard(speciesID string) string {
	if sp := s.species[speciesID]; sp != nil {
		return sp.Nonstandard
	}
	return ""
}

// SpeciesNum returns the National Dex number of a species, zero when unknown.
func (s *Snapshot) SpeciesNum(speciesID string) int {
	if sp := s.species[speciesID]; sp != nil {
		return sp.Num
	}
	return 0
}

// unavailable lists the non-standard flags that keep a species out of every
// format.
var unavailable = map[string]bool{"Past": true, "Future": true, "Unobtainable": true}

// ValidFormats lists, sorted, the VGC doubles formats a species is not banned
// from, either by name or by one of its category tags. A species flagged as
// past, future or unobtainable has none.
func (s *Snapshot) ValidFormats(speciesID string) []string {
	sp := s.species[speciesID]
	if sp == nil || unavailable[sp.Nonstandard] {
		return []string{}
	}
	out := []string{}
	for id, rs := range s.formats {
		if !strings.Contains(strings.ToLower(rs.Name), "vgc") {
			continue
		}
		if rs.GameType != "" && rs.GameType != "doubles" {
			continue
		}
		if rs.Bans(speciesID) || (!rs.Unbanlist[speciesID] && hasAnyTag(sp.Tags, rs.BannedTags)) {
			continue
		}
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}

func hasAnyTag(tags, banned []string) bool {
	for _, t := range tags {
		if slices.Contains(banned, t) {
			return true
		}
	}
	return false
}

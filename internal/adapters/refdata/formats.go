package refdata

import (
	"strconv"
	"strings"

	"github.com/okian/rosterpipe/internal/domain/ident"
	"github.com/okian/rosterpipe/internal/domain/model"
)

// Species categories that can be banned or restricted as a group.
var categoryTags = map[string]string{
	"restrictedlegendary": "Restricted Legendary",
	"sublegendary":        "Sub-Legendary",
	"mythical":            "Mythical",
	"paradox":             "Paradox",
	"ultrabeast":          "Ultra Beast",
}

// Rule names implying a species clause; the bool is whether they also imply
// an item clause.
var standardRules = map[string]bool{
	"flatrules":          true,
	"standardgbu":        true,
	"standardgbudoubles": true,
	"standard":           false,
	"standarddoubles":    false,
	"standardnatdex":     false,
}

// buildRuleSet derives a rule set from a format definition. Rules apply in
// order, so a later "!Species Clause" undoes an earlier "Flat Rules".
func buildRuleSet(f FormatEntry) model.FormatRuleSet {
	rs := model.FormatRuleSet{
		ID:         ident.ToID(f.Name),
		Name:       f.Name,
		Generation: generation(f),
		GameType:   f.GameType,
		Banlist:    map[string]bool{},
		Unbanlist:  map[string]bool{},
	}

	for _, rule := range f.Ruleset {
		r := strings.TrimSpace(rule)
		negated := false
		switch {
		case strings.HasPrefix(r, "!!"):
			r = r[2:]
		case strings.HasPrefix(r, "!"):
			negated = true
			r = r[1:]
		}
		name, value, _ := strings.Cut(r, "=")
		id := ident.ToID(name)

		if item, ok := standardRules[id]; ok {
			if !negated {
				rs.SpeciesClause = true
				rs.ItemClause = rs.ItemClause || item
			}
			continue
		}
		switch id {
		case "speciesclause":
			rs.SpeciesClause = !negated
		case "itemclause":
			rs.ItemClause = !negated
		case "minsourcegen":
			if n, err := strconv.Atoi(strings.TrimSpace(value)); err == nil && !negated {
				rs.MinSourceGen = n
			}
		case "limitonerestricted":
			rs.RestrictedLimit = limit(negated, 1)
		case "limittworestricted":
			rs.RestrictedLimit = limit(negated, 2)
		}
	}

	for _, b := range f.Banlist {
		if tag, ok := categoryTags[ident.ToID(b)]; ok {
			rs.BannedTags = append(rs.BannedTags, tag)
			continue
		}
		// Combination bans ("Species + Move") are out of scope.
		if strings.Contains(b, "+") {
			continue
		}
		rs.Banlist[ident.ToID(b)] = true
	}
	for _, u := range f.Unbanlist {
		rs.Unbanlist[ident.ToID(u)] = true
	}

	for _, r := range f.Restricted {
		if tag, ok := categoryTags[ident.ToID(r)]; ok {
			rs.RestrictedTags = append(rs.RestrictedTags, tag)
		} else {
			rs.RestrictedTags = append(rs.RestrictedTags, ident.ToID(r))
		}
	}
	if rs.RestrictedLimit > 0 && len(rs.RestrictedTags) == 0 {
		rs.RestrictedTags = []string{categoryTags["restrictedlegendary"]}
	}
	return rs
}

func limit(negated bool, n int) int {
	if negated {
		return 0
	}
	return n
}

// generation reads "genN" from the mod, falling back to the "[Gen N]" name
// prefix.
func generation(f FormatEntry) int {
	for _, s := range []string{f.Mod, f.Name} {
		id := ident.ToID(s)
		if !strings.HasPrefix(id, "gen") {
			continue
		}
		digits := id[3:]
		end := 0
		for end < len(digits) && digits[end] >= '0' && digits[end] <= '9' {
			end++
		}
		if n, err := strconv.Atoi(digits[:end]); err == nil {
			return n
		}
	}
	return 0
}

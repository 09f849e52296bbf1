package roster

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/okian/rosterpipe/internal/domain/model"
)

// TokenClass is the kind of a roster line.
type TokenClass int

// Token classes recognised by the tokenizer.
const (
	TokenUnknown TokenClass = iota
	TokenTeamHeader
	TokenSpecies
	TokenItem
	TokenAbility
	TokenMove
	TokenNature
	TokenTera
	TokenGender
	TokenShiny
	TokenEVs
	TokenIVs
	TokenLevel
	TokenIgnored
)

var tokenNames = map[TokenClass]string{
	TokenUnknown:    "unknown",
	TokenTeamHeader: "team-header",
	TokenSpecies:    "species",
	TokenItem:       "item",
	TokenAbility:    "ability",
	TokenMove:       "move",
	TokenNature:     "nature",
	TokenTera:       "tera",
	TokenGender:     "gender",
	TokenShiny:      "shiny",
	TokenEVs:        "evs",
	TokenIVs:        "ivs",
	TokenLevel:      "level",
	TokenIgnored:    "ignored",
}

func (c TokenClass) String() string { return tokenNames[c] }

// Token is one classified roster line.
type Token struct {
	Class TokenClass
	Value string
	// Item is set on species tokens whose line carried "@ Item".
	Item  string
	Stats model.Stats
	Level int
}

// Rule classifies a single trimmed line.
type Rule func(line string) (Token, bool)

// attributeRules are tried in order before a line is considered a species
// header. Each rule owns one token class.
var attributeRules = []Rule{
	MatchTeamHeader,
	MatchAbility,
	MatchItem,
	MatchTera,
	MatchMove,
	MatchNature,
	MatchGender,
	MatchShiny,
	MatchEVs,
	MatchIVs,
	MatchLevel,
	MatchIgnored,
}

// Classify runs the attribute rules over line and reports the first match,
// or TokenUnknown.
func Classify(line string) Token {
	for _, rule := range attributeRules {
		if tok, ok := rule(line); ok {
			return tok
		}
	}
	return Token{Class: TokenUnknown, Value: line}
}

var teamHeaderRe = regexp.MustCompile(`^===\s*(?:\[([^\]]*)\])?\s*(.*?)\s*===$`)

// MatchTeamHeader matches "=== [gen9vgc2025regh] Team Name ===".
func MatchTeamHeader(line string) (Token, bool) {
	m := teamHeaderRe.FindStringSubmatch(line)
	if m == nil {
		return Token{}, false
	}
	return Token{Class: TokenTeamHeader, Value: strings.TrimSpace(m[1])}, true
}

// labelled matches "Label: value" case-insensitively.
func labelled(line string, labels ...string) (string, bool) {
	i := strings.IndexByte(line, ':')
	if i < 0 {
		return "", false
	}
	key := strings.ToLower(strings.TrimSpace(line[:i]))
	for _, l := range labels {
		if key == l {
			return strings.TrimSpace(line[i+1:]), true
		}
	}
	return "", false
}

// isAttributeLine reports whether line has the "Label: value" shape.
func isAttributeLine(line string) bool {
	label, _, ok := strings.Cut(line, ":")
	return ok && strings.TrimSpace(label) != ""
}

// MatchAbility matches "Ability: Intimidate".
func MatchAbility(line string) (Token, bool) {
	v, ok := labelled(line, "ability")
	return Token{Class: TokenAbility, Value: v}, ok
}

// MatchItem matches "Item: Sitrus Berry".
func MatchItem(line string) (Token, bool) {
	v, ok := labelled(line, "item", "held item")
	return Token{Class: TokenItem, Value: v}, ok
}

// MatchTera matches "Tera Type: Water".
func MatchTera(line string) (Token, bool) {
	v, ok := labelled(line, "tera type", "tera", "teratype")
	return Token{Class: TokenTera, Value: v}, ok
}

var moveRe = regexp.MustCompile(`^[-~•]\s*(\S.*)$`)

// MatchMove matches "- Fake Out" and the older "~ Fake Out".
func MatchMove(line string) (Token, bool) {
	m := moveRe.FindStringSubmatch(line)
	if m == nil {
		return Token{}, false
	}
	return Token{Class: TokenMove, Value: strings.TrimSpace(m[1])}, true
}

var natureRe = regexp.MustCompile(`(?i)^([a-z]+)\s+nature$`)

// MatchNature matches "Adamant Nature" and "Nature: Adamant".
func MatchNature(line string) (Token, bool) {
	if v, ok := labelled(line, "nature"); ok {
		return Token{Class: TokenNature, Value: titleWord(v)}, true
	}
	m := natureRe.FindStringSubmatch(line)
	if m == nil {
		return Token{}, false
	}
	return Token{Class: TokenNature, Value: titleWord(m[1])}, true
}

// MatchGender matches "Gender: F".
func MatchGender(line string) (Token, bool) {
	v, ok := labelled(line, "gender")
	return Token{Class: TokenGender, Value: v}, ok
}

// MatchShiny matches "Shiny: Yes" and a bare shiny glyph line.
func MatchShiny(line string) (Token, bool) {
	if v, ok := labelled(line, "shiny"); ok {
		return Token{Class: TokenShiny, Value: v}, true
	}
	if strings.Trim(line, "★✨ ") == "" {
		return Token{Class: TokenShiny, Value: "yes"}, true
	}
	return Token{}, false
}

// MatchEVs matches "EVs: 252 HP / 4 Def / 252 Spe".
func MatchEVs(line string) (Token, bool) {
	v, ok := labelled(line, "evs")
	if !ok {
		return Token{}, false
	}
	return Token{Class: TokenEVs, Value: v, Stats: parseSpread(v)}, true
}

// MatchIVs matches "IVs: 0 Atk".
func MatchIVs(line string) (Token, bool) {
	v, ok := labelled(line, "ivs")
	if !ok {
		return Token{}, false
	}
	return Token{Class: TokenIVs, Value: v, Stats: parseSpread(v)}, true
}

// MatchLevel matches "Level: 50".
func MatchLevel(line string) (Token, bool) {
	v, ok := labelled(line, "level")
	if !ok {
		return Token{}, false
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return Token{}, false
	}
	return Token{Class: TokenLevel, Value: v, Level: n}, true
}

// MatchIgnored matches known attributes that carry nothing the pipeline keeps.
func MatchIgnored(line string) (Token, bool) {
	v, ok := labelled(line, "happiness", "friendship", "dynamax level", "gigantamax", "pokeball", "ball", "hidden power")
	return Token{Class: TokenIgnored, Value: v}, ok
}

var statNames = map[string]string{
	"hp": "HP", "atk": "Atk", "def": "Def", "spa": "SpA", "spd": "SpD", "spe": "Spe",
}

// parseSpread reads "252 HP / 4 Def" into Stats, skipping malformed parts.
func parseSpread(v string) model.Stats {
	out := model.Stats{}
	for _, part := range strings.Split(v, "/") {
		fields := strings.Fields(part)
		if len(fields) != 2 {
			continue
		}
		n, err := strconv.Atoi(fields[0])
		if err != nil {
			continue
		}
		name, ok := statNames[strings.ToLower(fields[1])]
		if !ok {
			continue
		}
		out[name] = n
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

// titleWord lower-cases a single word and upper-cases its first letter.
func titleWord(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

var (
	genderMarkerRe = regexp.MustCompile(`\s*\((?:M|F)\)\s*$`)
	shinyMarkerRe  = regexp.MustCompile(`(?i)\s*\(shiny\)|[★✨]`)
	nicknameRe     = regexp.MustCompile(`^(.*\S)\s*\(([^()]+)\)$`)
)

// StripGenderMarker removes a trailing "(M)" or "(F)".
func StripGenderMarker(s string) (string, bool) {
	out := genderMarkerRe.ReplaceAllString(s, "")
	return out, out != s
}

// StripShinyMarker removes shiny glyphs and "(Shiny)".
func StripShinyMarker(s string) (string, bool) {
	out := strings.TrimSpace(shinyMarkerRe.ReplaceAllString(s, ""))
	return out, out != strings.TrimSpace(s)
}

// SplitNickname separates "Nickname (Species)" into its parts. Bracketed
// species descriptors are not nicknames.
func SplitNickname(s string) (nickname, species string) {
	m := nicknameRe.FindStringSubmatch(s)
	if m == nil {
		return "", s
	}
	inner := strings.TrimSpace(m[2])
	if len(inner) <= 1 {
		return "", s
	}
	return strings.TrimSpace(m[1]), inner
}

// MatchSpecies decomposes a header line "Nick (Species) (F) @ Item" into the
// species and item, discarding decorative tokens. It fails when no species
// remains.
func MatchSpecies(line string) (Token, bool) {
	head, item := line, ""
	if i := strings.LastIndexByte(line, '@'); i >= 0 {
		head, item = line[:i], strings.TrimSpace(line[i+1:])
	}
	head = strings.TrimSpace(head)
	head, _ = StripShinyMarker(head)
	head, _ = StripGenderMarker(head)
	_, species := SplitNickname(head)
	species = strings.TrimSpace(species)
	if species == "" {
		return Token{}, false
	}
	return Token{Class: TokenSpecies, Value: species, Item: item}, true
}

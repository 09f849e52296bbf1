package model

// Severity grades a legality issue.
type Severity string

// Severities.
const (
	SeverityError   Severity = "error"
	SeverityWarning Severity = "warning"
)

// Issue codes.
const (
	CodeSpeciesBanned      = "species_banned"
	CodeSpeciesUnavailable = "species_unavailable"
	CodeMoveBanned         = "move_banned"
	CodeMoveIllegal        = "move_illegal"
	CodeItemBanned         = "item_banned"
	CodeItemDuplicate      = "item_duplicate"
	CodeSpeciesDuplicate   = "species_duplicate"
	CodeTeamSize           = "team_size"
	CodeAbilityBanned      = "ability_banned"
	CodeAbilityIllegal     = "ability_illegal"
	CodeRestrictedLimit    = "restricted_limit"
	CodeTeraTypeUnknown    = "tera_type_unknown"
	CodeUnknownMove        = "unknown_move"
	CodeUnknownItem        = "unknown_item"
	CodeUnknownAbility     = "unknown_ability"
)

// LegalityIssue is one finding against a team.
type LegalityIssue struct {
	Code     string   `json:"code"`
	Message  string   `json:"message"`
	Severity Severity `json:"severity"`
}

// ValidationReport lists the issues found for a team, in check order.
type ValidationReport struct {
	Team   *Team
	Issues []LegalityIssue
}

// Legal reports whether the report holds no error-severity issue.
func (r ValidationReport) Legal() bool {
	for _, is := range r.Issues {
		if is.Severity == SeverityError {
			return false
		}
	}
	return true
}

// Errors counts error-severity issues.
func (r ValidationReport) Errors() int {
	n := 0
	for _, is := range r.Issues {
		if is.Severity == SeverityError {
			n++
		}
	}
	return n
}

// FormatRuleSet is the rule set of one competitive format.
type FormatRuleSet struct {
	ID         string
	Name       string
	Generation int // 0 means any
	// MinSourceGen is the oldest generation a move source may come from.
	MinSourceGen int
	GameType     string

	// Banlist holds banned species, move, item and ability ids.
	Banlist map[string]bool
	// Unbanlist overrides tag bans for specific ids.
	Unbanlist map[string]bool
	// BannedTags are species categories banned outright.
	BannedTags []string

	SpeciesClause bool
	ItemClause    bool

	RestrictedTags  []string
	RestrictedLimit int // 0 means no limit
}

// Bans reports whether id is explicitly banned.
func (r FormatRuleSet) Bans(id string) bool { return r.Banlist[id] }

package refdata

import (
	_ "embed"
	"fmt"

	"gopkg.in/yaml.v3"

	"github.com/okian/rosterpipe/internal/domain/ident"
)

//go:embed aliases.yaml
var embeddedAliases []byte

// AliasTable maps names found on standings pages to the names used by the
// reference datasets.
type AliasTable struct {
	// Descriptors maps a descriptor word to a forme suffix; an empty value
	// drops the word.
	Descriptors map[string]string `yaml:"descriptors"`
	Species     map[string]string `yaml:"species"`
	Moves       map[string]string `yaml:"moves"`
	Items       map[string]string `yaml:"items"`
	Abilities   map[string]string `yaml:"abilities"`
}

// ParseAliasTable decodes a YAML alias table.
func ParseAliasTable(data []byte) (*AliasTable, error) {
	var t AliasTable
	if err := yaml.Unmarshal(data, &t); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidAliases, err)
	}
	// Descriptor keys are matched against lower-cased words.
	desc := make(map[string]string, len(t.Descriptors))
	for k, v := range t.Descriptors {
		desc[ident.ToID(k)] = v
	}
	t.Descriptors = desc
	return &t, nil
}

// DefaultAliases returns the alias table compiled into the binary.
func DefaultAliases() *AliasTable {
	t, err := ParseAliasTable(embeddedAliases)
	if err != nil {
		panic(err)
	}
	return t
}

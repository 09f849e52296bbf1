package refdata

import (
	"bytes"
	"fmt"
	"path"

	json "github.com/goccy/go-json"
	"github.com/yosuke-furukawa/json5/encoding/json5"

	"github.com/okian/rosterpipe/internal/errs"
)

type encoding int

const (
	encJSON encoding = iota
	encJSON5
	// encJS is a CommonJS module whose single export is a JSON5 literal.
	encJS
)

type dataset struct {
	name string
	path string // relative to the data host
	enc  encoding
}

// file is the name the dataset is stored under inside a snapshot.
func (d dataset) file() string { return path.Base(d.path) }

// Dataset names.
const (
	DatasetPokedex     = "pokedex"
	DatasetMoves       = "moves"
	DatasetLearnsets   = "learnsets"
	DatasetItems       = "items"
	DatasetAbilities   = "abilities"
	DatasetFormatsData = "formats-data"
	DatasetFormats     = "formats"
)

var datasets = []dataset{
	{name: DatasetPokedex, path: "pokedex.json", enc: encJSON},
	{name: DatasetMoves, path: "moves.json", enc: encJSON},
	{name: DatasetLearnsets, path: "learnsets.json", enc: encJSON},
	{name: DatasetItems, path: "text/items.json5", enc: encJSON5},
	{name: DatasetAbilities, path: "text/abilities.json5", enc: encJSON5},
	{name: DatasetFormatsData, path: "formats-data.js", enc: encJS},
	{name: DatasetFormats, path: "formats.js", enc: encJS},
}

// DatasetPaths returns the upstream paths of every dataset, relative to the
// data host.
func DatasetPaths() []string {
	out := make([]string, len(datasets))
	for i, d := range datasets {
		out[i] = d.path
	}
	return out
}

// SpeciesData is a pokedex entry.
type SpeciesData struct {
	Num            int               `json:"num"`
	Name           string            `json:"name"`
	BaseSpecies    string            `json:"baseSpecies"`
	Forme          string            `json:"forme"`
	Types          []string          `json:"types"`
	Abilities      map[string]string `json:"abilities"`
	Tags           []string          `json:"tags"`
	Prevo          string            `json:"prevo"`
	ChangesFrom    string            `json:"changesFrom"`
	CosmeticFormes []string          `json:"cosmeticFormes"`
	IsNonstandard  string            `json:"isNonstandard"`
}

// MoveData is a move entry.
type MoveData struct {
	Name          string `json:"name"`
	Type          string `json:"type"`
	Category      string `json:"category"`
	IsNonstandard string `json:"isNonstandard"`
}

// LearnsetData lists, per move id, the sources a species learns it from,
// e.g. "9M" or "8L20".
type LearnsetData struct {
	Learnset map[string][]string `json:"learnset"`
}

// TextData is an item or ability description entry.
type TextData struct {
	Name string `json:"name"`
}

// FormatsDataEntry carries the tier placement of a species.
type FormatsDataEntry struct {
	Tier          string `json:"tier"`
	DoublesTier   string `json:"doublesTier"`
	IsNonstandard string `json:"isNonstandard"`
}

// FormatEntry is one format definition.
type FormatEntry struct {
	Name       string   `json:"name"`
	Section    string   `json:"section"`
	Mod        string   `json:"mod"`
	GameType   string   `json:"gameType"`
	Ruleset    []string `json:"ruleset"`
	Banlist    []string `json:"banlist"`
	Unbanlist  []string `json:"unbanlist"`
	Restricted []string `json:"restricted"`
}

// Datasets holds every decoded reference dataset.
type Datasets struct {
	Pokedex     map[string]SpeciesData
	Moves       map[string]MoveData
	Learnsets   map[string]LearnsetData
	Items       map[string]TextData
	Abilities   map[string]TextData
	FormatsData map[string]FormatsDataEntry
	Formats     []FormatEntry
}

// DecodeDatasets decodes raw dataset bodies keyed by dataset name.
func DecodeDatasets(raw map[string][]byte) (Datasets, error) {
	var ds Datasets
	targets := map[string]any{
		DatasetPokedex:     &ds.Pokedex,
		DatasetMoves:       &ds.Moves,
		DatasetLearnsets:   &ds.Learnsets,
		DatasetItems:       &ds.Items,
		DatasetAbilities:   &ds.Abilities,
		DatasetFormatsData: &ds.FormatsData,
		DatasetFormats:     &ds.Formats,
	}
	for _, d := range datasets {
		body, ok := raw[d.name]
		if !ok {
			return Datasets{}, errs.Parse(opDecode, d.name, ErrMissingDataset)
		}
		if err := decode(d.enc, body, targets[d.name]); err != nil {
			return Datasets{}, errs.Parse(opDecode, d.name, err)
		}
	}
	return ds, nil
}

func decode(enc encoding, body []byte, v any) error {
	switch enc {
	case encJSON:
		return json.Unmarshal(body, v)
	case encJS:
		lit, err := exportLiteral(body)
		if err != nil {
			return err
		}
		body = lit
	}
	// JSON5 allows comments, unquoted keys and trailing commas. It is read
	// into a generic tree and re-encoded so the typed decode stays on one
	// codec.
	var tree any
	if err := json5.Unmarshal(body, &tree); err != nil {
		return err
	}
	canon, err := json.Marshal(tree)
	if err != nil {
		return err
	}
	return json.Unmarshal(canon, v)
}

// exportLiteral extracts the value assigned by "exports.Name = {...};".
func exportLiteral(body []byte) ([]byte, error) {
	i := bytes.IndexByte(body, '=')
	if i < 0 {
		return nil, fmt.Errorf("no export assignment")
	}
	lit := bytes.TrimSpace(body[i+1:])
	lit = bytes.TrimSpace(bytes.TrimSuffix(lit, []byte(";")))
	if len(lit) == 0 || (lit[0] != '{' && lit[0] != '[') {
		return nil, fmt.Errorf("export is not an object or array literal")
	}
	return lit, nil
}

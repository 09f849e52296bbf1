package testutil

// ShowdownBaseURL is the data host the Showdown fixtures are served from.
const ShowdownBaseURL = "https://showdown.test/data"

// Formats defined by the fixtures.
const (
	FormatRegH  = "gen9vgc2025regh"
	FormatRegG  = "gen9vgc2025regg"
	FormatVGC22 = "gen8vgc2022"
)

// ShowdownFiles returns the fixture datasets keyed by upstream path.
func ShowdownFiles() map[string][]byte {
	return map[string][]byte{
		"pokedex.json":         []byte(pokedexJSON),
		"moves.json":           []byte(movesJSON),
		"learnsets.json":       []byte(learnsetsJSON),
		"text/items.json5":     []byte(itemsJSON5),
		"text/abilities.json5": []byte(abilitiesJSON5),
		"formats-data.js":      []byte(formatsDataJS),
		"formats.js":           []byte(formatsJS),
	}
}

// ServeShowdown registers the fixture datasets on f under base.
func ServeShowdown(f *FakeFetcher, base string) *FakeFetcher {
	for p, body := range ShowdownFiles() {
		f.SetWithETag(base+"/"+p, body, `"`+p+`-v1"`)
	}
	return f
}

const pokedexJSON = `{
  "litten": {"num": 725, "name": "Litten", "types": ["Fire"], "abilities": {"0": "Blaze", "H": "Intimidate"}},
  "torracat": {"num": 726, "name": "Torracat", "types": ["Fire"], "abilities": {"0": "Blaze", "H": "Intimidate"}, "prevo": "Litten"},
  "incineroar": {"num": 727, "name": "Incineroar", "types": ["Fire", "Dark"], "abilities": {"0": "Blaze", "H": "Intimidate"}, "prevo": "Torracat"},
  "fluttermane": {"num": 987, "name": "Flutter Mane", "types": ["Ghost", "Fairy"], "abilities": {"0": "Protosynthesis"}, "tags": ["Paradox"]},
  "calyrex": {"num": 898, "name": "Calyrex", "types": ["Psychic", "Grass"], "abilities": {"0": "Unnerve"}, "tags": ["Restricted Legendary"], "otherFormes": ["Calyrex-Ice", "Calyrex-Shadow"]},
  "calyrexshadow": {"num": 898, "name": "Calyrex-Shadow", "baseSpecies": "Calyrex", "forme": "Shadow", "types": ["Psychic", "Ghost"], "abilities": {"0": "As One (Spectrier)"}, "tags": ["Restricted Legendary"], "changesFrom": "Calyrex"},
  "miraidon": {"num": 1008, "name": "Miraidon", "types": ["Electric", "Dragon"], "abilities": {"0": "Hadron Engine"}, "tags": ["Restricted Legendary"]},
  "slowbro": {"num": 80, "name": "Slowbro", "types": ["Water", "Psychic"], "abilities": {"0": "Oblivious", "1": "Own Tempo", "H": "Regenerator"}},
  "slowpokegalar": {"num": 79, "name": "Slowpoke-Galar", "baseSpecies": "Slowpoke", "forme": "Galar", "types": ["Psychic"], "abilities": {"0": "Gluttony", "1": "Own Tempo", "H": "Regenerator"}},
  "slowbrogalar": {"num": 80, "name": "Slowbro-Galar", "baseSpecies": "Slowbro", "forme": "Galar", "types": ["Poison", "Psychic"], "abilities": {"0": "Quick Draw", "1": "Own Tempo", "H": "Regenerator"}, "prevo": "Slowpoke-Galar"},
  "urshifu": {"num": 892, "name": "Urshifu", "types": ["Fighting", "Dark"], "abilities": {"0": "Unseen Fist"}, "tags": ["Sub-Legendary"]},
  "urshifurapidstrike": {"num": 892, "name": "Urshifu-Rapid-Strike", "baseSpecies": "Urshifu", "forme": "Rapid-Strike", "types": ["Fighting", "Water"], "abilities": {"0": "Unseen Fist"}, "tags": ["Sub-Legendary"]},
  "amoonguss": {"num": 591, "name": "Amoonguss", "types": ["Grass", "Poison"], "abilities": {"0": "Effect Spore", "H": "Regenerator"}},
  "rillaboom": {"num": 812, "name": "Rillaboom", "types": ["Grass"], "abilities": {"0": "Overgrow", "H": "Grassy Surge"}},
  "cottonee": {"num": 546, "name": "Cottonee", "types": ["Grass", "Fairy"], "abilities": {"0": "Prankster", "1": "Infiltrator", "H": "Chlorophyll"}},
  "whimsicott": {"num": 547, "name": "Whimsicott", "types": ["Grass", "Fairy"], "abilities": {"0": "Prankster", "1": "Infiltrator", "H": "Chlorophyll"}, "prevo": "Cottonee"},
  "ogerpon": {"num": 1017, "name": "Ogerpon", "types": ["Grass"], "abilities": {"0": "Defiant"}, "tags": ["Sub-Legendary"]},
  "ogerponwellspring": {"num": 1017, "name": "Ogerpon-Wellspring", "baseSpecies": "Ogerpon", "forme": "Wellspring", "types": ["Grass", "Water"], "abilities": {"0": "Water Absorb"}, "tags": ["Sub-Legendary"]},
  "dracovish": {"num": 882, "name": "Dracovish", "types": ["Water", "Dragon"], "abilities": {"0": "Water Absorb", "1": "Strong Jaw", "H": "Sand Rush"}, "isNonstandard": "Past"},
  "vivillon": {"num": 666, "name": "Vivillon", "types": ["Bug", "Flying"], "abilities": {"0": "Shield Dust", "1": "Compound Eyes", "H": "Friend Guard"}, "cosmeticFormes": ["Vivillon-Fancy", "Vivillon-Polar"]},
  "flabebe": {"num": 669, "name": "Flabébé", "types": ["Fairy"], "abilities": {"0": "Flower Veil", "H": "Symbiosis"}}
}`

const movesJSON = `{
  "protect": {"name": "Protect", "type": "Normal", "category": "Status"},
  "fakeout": {"name": "Fake Out", "type": "Normal", "category": "Physical"},
  "flareblitz": {"name": "Flare Blitz", "type": "Fire", "category": "Physical"},
  "partingshot": {"name": "Parting Shot", "type": "Dark", "category": "Status"},
  "knockoff": {"name": "Knock Off", "type": "Dark", "category": "Physical"},
  "uturn": {"name": "U-turn", "type": "Bug", "category": "Physical"},
  "moonblast": {"name": "Moonblast", "type": "Fairy", "category": "Special"},
  "shadowball": {"name": "Shadow Ball", "type": "Ghost", "category": "Special"},
  "dazzlinggleam": {"name": "Dazzling Gleam", "type": "Fairy", "category": "Special"},
  "icywind": {"name": "Icy Wind", "type": "Ice", "category": "Special"},
  "astralbarrage": {"name": "Astral Barrage", "type": "Ghost", "category": "Special"},
  "trickroom": {"name": "Trick Room", "type": "Psychic", "category": "Status"},
  "nastyplot": {"name": "Nasty Plot", "type": "Dark", "category": "Status"},
  "electrodrift": {"name": "Electro Drift", "type": "Electric", "category": "Special"},
  "dracometeor": {"name": "Draco Meteor", "type": "Dragon", "category": "Special"},
  "spore": {"name": "Spore", "type": "Grass", "category": "Status"},
  "ragepowder": {"name": "Rage Powder", "type": "Bug", "category": "Status"},
  "pollenpuff": {"name": "Pollen Puff", "type": "Bug", "category": "Special"},
  "woodhammer": {"name": "Wood Hammer", "type": "Grass", "category": "Physical"},
  "grassyglide": {"name": "Grassy Glide", "type": "Grass", "category": "Physical"},
  "closecombat": {"name": "Close Combat", "type": "Fighting", "category": "Physical"},
  "wickedblow": {"name": "Wicked Blow", "type": "Dark", "category": "Physical"},
  "surgingstrikes": {"name": "Surging Strikes", "type": "Water", "category": "Physical"},
  "aquajet": {"name": "Aqua Jet", "type": "Water", "category": "Physical"},
  "tailwind": {"name": "Tailwind", "type": "Flying", "category": "Status"},
  "encore": {"name": "Encore", "type": "Normal", "category": "Status"},
  "ivycudgel": {"name": "Ivy Cudgel", "type": "Grass", "category": "Physical"},
  "followme": {"name": "Follow Me", "type": "Normal", "category": "Status"},
  "spikyshield": {"name": "Spiky Shield", "type": "Grass", "category": "Status"},
  "batonpass": {"name": "Baton Pass", "type": "Normal", "category": "Status"},
  "highjumpkick": {"name": "High Jump Kick", "type": "Fighting", "category": "Physical"},
  "fishiousrend": {"name": "Fishious Rend", "type": "Water", "category": "Physical", "isNonstandard": "Past"},
  "hiddenpowerfire": {"name": "Hidden Power Fire", "type": "Fire", "category": "Special", "isNonstandard": "Past"},
  "psychicnoise": {"name": "Psychic Noise", "type": "Psychic", "category": "Special"},
  "sludgebomb": {"name": "Sludge Bomb", "type": "Poison", "category": "Special"},
  "helpinghand": {"name": "Helping Hand", "type": "Normal", "category": "Status"}
}`

// Incineroar's U-turn is a generation 8 source only; Litten carries Fake
// Out so Incineroar must inherit it.
const learnsetsJSON = `{
  "litten": {"learnset": {"fakeout": ["9E", "8E"], "flareblitz": ["9M"], "protect": ["9M"]}},
  "torracat": {"learnset": {"flareblitz": ["9M"], "protect": ["9M"]}},
  "incineroar": {"learnset": {"flareblitz": ["9M", "8M"], "partingshot": ["9L1"], "knockoff": ["9M"], "protect": ["9M"], "uturn": ["8M"], "helpinghand": ["9M"]}},
  "fluttermane": {"learnset": {"moonblast": ["9L1"], "shadowball": ["9M"], "dazzlinggleam": ["9M"], "icywind": ["9M"], "protect": ["9M"], "trickroom": ["9M"]}},
  "calyrex": {"learnset": {"protect": ["9M", "8M"], "trickroom": ["9M"], "pollenpuff": ["9M"], "helpinghand": ["9M"]}},
  "calyrexshadow": {"learnset": {"astralbarrage": ["9R", "8R"], "nastyplot": ["9M"], "psychicnoise": ["9M"]}},
  "miraidon": {"learnset": {"electrodrift": ["9L1"], "dracometeor": ["9M"], "protect": ["9M"], "dazzlinggleam": ["9M"]}},
  "slowbro": {"learnset": {"trickroom": ["9M"], "protect": ["9M"]}},
  "slowpokegalar": {"learnset": {"trickroom": ["9M"], "protect": ["9M"], "sludgebomb": ["9M"]}},
  "urshifu": {"learnset": {"closecombat": ["9L1"], "wickedblow": ["9R"], "protect": ["9M"], "uturn": ["9M"]}},
  "urshifurapidstrike": {"learnset": {"surgingstrikes": ["9R"], "aquajet": ["9L1"]}},
  "amoonguss": {"learnset": {"spore": ["9L1"], "ragepowder": ["9L1"], "pollenpuff": ["9M"], "protect": ["9M"], "sludgebomb": ["9M"]}},
  "rillaboom": {"learnset": {"fakeout": ["9L1"], "woodhammer": ["9L1"], "grassyglide": ["9M"], "uturn": ["9M"], "protect": ["9M"], "knockoff": ["9M"]}},
  "cottonee": {"learnset": {"encore": ["9M"], "protect": ["9M"], "moonblast": ["9M"], "tailwind": ["9M"]}},
  "whimsicott": {"learnset": {"tailwind": ["9M"], "protect": ["9M"], "helpinghand": ["9M"]}},
  "ogerpon": {"learnset": {"ivycudgel": ["9L1"], "followme": ["9L1"], "spikyshield": ["9L1"], "protect": ["9M"]}},
  "dracovish": {"learnset": {"fishiousrend": ["8L1"], "protect": ["8M"]}},
  "vivillon": {"learnset": {"protect": ["9M"]}}
}`

// Item and ability text tables are JSON5: comments, unquoted keys and
// trailing commas.
const itemsJSON5 = `// items
{
  focussash: {name: "Focus Sash", desc: "Survives one hit at full HP."},
  sitrusberry: {name: "Sitrus Berry"},
  assaultvest: {name: "Assault Vest"},
  choicespecs: {name: "Choice Specs"},
  choicescarf: {name: "Choice Scarf"},
  lifeorb: {name: "Life Orb"},
  boosterenergy: {name: "Booster Energy"},
  covertcloak: {name: "Covert Cloak"},
  safetygoggles: {name: "Safety Goggles"},
  clearamulet: {name: "Clear Amulet"},
  rockyhelmet: {name: "Rocky Helmet"},
  mysticwater: {name: "Mystic Water"},
  leftovers: {name: "Leftovers"},
  kingsrock: {name: "King's Rock"},
  brightpowder: {name: "Bright Powder"},
  wellspringmask: {name: "Wellspring Mask"},
  // trailing comma
  mentalherb: {name: "Mental Herb"},
}`

const abilitiesJSON5 = `{
  blaze: {name: "Blaze"},
  intimidate: {name: "Intimidate"},
  protosynthesis: {name: "Protosynthesis"},
  unnerve: {name: "Unnerve"},
  asonespectrier: {name: "As One (Spectrier)"},
  hadronengine: {name: "Hadron Engine"},
  oblivious: {name: "Oblivious"},
  owntempo: {name: "Own Tempo"},
  regenerator: {name: "Regenerator"},
  gluttony: {name: "Gluttony"},
  quickdraw: {name: "Quick Draw"},
  unseenfist: {name: "Unseen Fist"},
  effectspore: {name: "Effect Spore"},
  overgrow: {name: "Overgrow"},
  grassysurge: {name: "Grassy Surge"},
  prankster: {name: "Prankster"},
  infiltrator: {name: "Infiltrator"},
  chlorophyll: {name: "Chlorophyll"},
  defiant: {name: "Defiant"},
  waterabsorb: {name: "Water Absorb"},
  strongjaw: {name: "Strong Jaw"},
  sandrush: {name: "Sand Rush"},
  shielddust: {name: "Shield Dust"},
  compoundeyes: {name: "Compound Eyes"},
  friendguard: {name: "Friend Guard"},
  flowerveil: {name: "Flower Veil"},
  symbiosis: {name: "Symbiosis"},
  moody: {name: "Moody"},
}`

const formatsDataJS = `exports.BattleFormatsData = {
	fluttermane: {tier: "OU", doublesTier: "DOU"},
	incineroar: {tier: "NU", doublesTier: "DOU"},
	dracovish: {isNonstandard: "Past", tier: "Illegal"},
	calyrexshadow: {tier: "Uber", doublesTier: "DUber"},
};
`

const formatsJS = `exports.Formats = [
	{section: "S/V Doubles"},
	{
		name: "[Gen 9] VGC 2025 Reg H",
		mod: 'gen9',
		gameType: 'doubles',
		bestOfDefault: true,
		ruleset: ['Flat Rules', '!! Adjust Level = 50', 'Min Source Gen = 9', 'VGC Timer', 'Open Team Sheets'],
		banlist: ['Sub-Legendary', 'Paradox', 'Restricted Legendary', 'Mythical'],
	},
	{
		name: "[Gen 9] VGC 2025 Reg G",
		mod: 'gen9',
		gameType: 'doubles',
		ruleset: ['Flat Rules', '!! Adjust Level = 50', 'Min Source Gen = 9', 'VGC Timer', 'Limit One Restricted'],
		restricted: ['Restricted Legendary'],
		banlist: ['Mythical', "King's Rock", 'Baton Pass', 'Moody', 'Urshifu + Baton Pass'],
	},
	{
		name: "[Gen 8] VGC 2022",
		mod: 'gen8',
		gameType: 'doubles',
		ruleset: ['Flat Rules', '!! Adjust Level = 50', 'Min Source Gen = 8', 'Limit Two Restricted'],
		restricted: ['Restricted Legendary'],
		banlist: ['Mythical'],
	},
	{
		name: "[Gen 9] Doubles Custom Game",
		mod: 'gen9',
		gameType: 'doubles',
		ruleset: ['Standard Doubles', '!Species Clause'],
		unbanlist: ['Flutter Mane'],
	},
];
`

package testutil

// PokeDataBaseURL is the standings host the pokedata fixtures are served
// from.
const PokeDataBaseURL = "https://pokedata.test/standingsVGC"

// Tournament ids in the fixture index, newest first.
const (
	TournamentNAIC   = "0000101"
	TournamentLille  = "0000099"
	TournamentDallas = "0000090"
)

// The index lists tournaments out of date order.
const indexHTML = `<!DOCTYPE html>
<html><head><title>VGC Standings</title></head>
<body>
<div class="flex-parent jc-center">
    <button onclick="location.href='0000099/'" type="button">Regional Championship Lille
     - May 3-4, 2025</button>
    <button onclick="location.href='0000101/'" type="button">North America International Championships
     - June 13-15, 2025</button>
    <button onclick="location.href='0000090/'" type="button">Regional Championship Dallas &amp; Fort Worth
     - February 1-2, 2025</button>
    <button onclick="history.back()" type="button">Back</button>
</div>
</body></html>`

func tournamentHTML(divisions ...string) string {
	s := `<html><body><div class="flex-parent">`
	for _, d := range divisions {
		s += `<button onclick="location.href='` + d + `/'" type="button">` + d + `</button>`
	}
	return s + `</div></body></html>`
}

// Alice brings a legal team, Bob an illegal one and Carol a roster with too
// many moves on one entry.
const naicMastersJSON = `[
  {
    "name": "Alice Example [US]",
    "placing": 1,
    "record": {"wins": 12, "losses": 2, "ties": 0},
    "decklist": [
      {"name": "Incineroar", "teratype": "Grass", "ability": "Intimidate", "item": "Sitrus Berry", "badges": ["Fake Out", "Flare Blitz", "Parting Shot", "Knock Off"]},
      {"name": "Rillaboom", "teratype": "Fire", "ability": "Grassy Surge", "item": "Assault Vest", "badges": ["Fake Out", "Wood Hammer", "Grassy Glide", "U-turn"]},
      {"name": "Amoonguss", "teratype": "Water", "ability": "Regenerator", "item": "Rocky Helmet", "badges": ["Spore", "Rage Powder", "Pollen Puff", "Protect"]},
      {"name": "Whimsicott", "teratype": "Ghost", "ability": "Prankster", "item": "Covert Cloak", "badges": ["Tailwind", "Moonblast", "Encore", "Protect"]},
      {"name": "Slowbro [Galarian Form]", "teratype": "Fairy", "ability": "Regenerator", "item": "Mental Herb", "badges": ["Trick Room", "Sludge Bomb", "Protect"]}
    ]
  },
  {
    "name": "Carol Sample [DE]",
    "placing": 3,
    "record": {"wins": 10, "losses": 4, "ties": 0},
    "decklist": [
      {"name": "Amoonguss", "teratype": "Water", "ability": "Regenerator", "item": "Rocky Helmet", "badges": ["Spore", "Rage Powder", "Pollen Puff", "Protect", "Sludge Bomb"]},
      {"name": "Incineroar", "teratype": "Grass", "ability": "Intimidate", "item": "Sitrus Berry", "badges": ["Fake Out", "Flare Blitz"]}
    ]
  },
  {
    "name": "Bob Tester [JP]",
    "placing": 2,
    "record": {"wins": 11, "losses": 3, "ties": 1},
    "decklist": [
      {"name": "Flutter Mane", "teratype": "Fairy", "ability": "Protosynthesis", "item": "Booster Energy", "badges": ["Moonblast", "Shadow Ball", "Icy Wind", "Protect"]},
      {"name": "Incineroar", "teratype": "Ghost", "ability": "Intimidate", "item": "Sitrus Berry", "badges": ["Fake Out", "U-turn", "Knock Off", "Protect"]},
      {"name": "Rillaboom", "teratype": "Fire", "ability": "Grassy Surge", "item": "Sitrus Berry", "badges": ["Fake Out", "Wood Hammer"]},
      {"name": "Rillaboom", "teratype": "Stellar", "ability": "Grassy Surge", "item": "Choice Scarf", "badges": ["Wood Hammer", "U-turn"]}
    ]
  }
]`

const naicSeniorsJSON = `[
  {
    "name": "Erin Junior [CA]",
    "placing": 1,
    "decklist": [
      {"name": "Amoonguss", "teratype": "Water", "ability": "Regenerator", "item": "Sitrus Berry", "badges": ["Spore", "Rage Powder", "Protect"]}
    ]
  }
]`

const lilleMastersJSON = `[
  {
    "name": "Dave Player [FR]",
    "placing": 1,
    "record": {"wins": 8, "losses": 1, "ties": 0},
    "decklist": [
      {"name": "Amoonguss", "teratype": "Water", "ability": "Regenerator", "item": "Sitrus Berry", "badges": ["Spore", "Rage Powder", "Pollen Puff", "Protect"]},
      {"name": "Rillaboom", "teratype": "Fire", "ability": "Grassy Surge", "item": "Assault Vest", "badges": ["Fake Out", "Wood Hammer", "Grassy Glide", "U-turn"]}
    ]
  }
]`

// IndexURL is the fixture standings index.
func IndexURL() string { return PokeDataBaseURL + "/" }

// TournamentURL is a fixture tournament page.
func TournamentURL(id string) string { return PokeDataBaseURL + "/" + id + "/" }

// DivisionURL is a fixture division standings document.
func DivisionURL(id, division string) string {
	return PokeDataBaseURL + "/" + id + "/" + division + "/" + id + "_" + capitalize(division) + ".json"
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	b := []byte(s)
	if b[0] >= 'a' && b[0] <= 'z' {
		b[0] -= 'a' - 'A'
	}
	return string(b)
}

// ServePokeData registers the fixture index, tournament pages and division
// documents on f. Dallas lists a masters division whose document is missing.
func ServePokeData(f *FakeFetcher) *FakeFetcher {
	f.Set(IndexURL(), []byte(indexHTML))
	f.Set(TournamentURL(TournamentNAIC), []byte(tournamentHTML("masters", "seniors")))
	f.Set(TournamentURL(TournamentLille), []byte(tournamentHTML("masters")))
	f.Set(TournamentURL(TournamentDallas), []byte(tournamentHTML("masters")))
	f.SetWithETag(DivisionURL(TournamentNAIC, "masters"), []byte(naicMastersJSON), `"naic-masters-v1"`)
	f.Set(DivisionURL(TournamentNAIC, "seniors"), []byte(naicSeniorsJSON))
	f.Set(DivisionURL(TournamentLille, "masters"), []byte(lilleMastersJSON))
	return f
}

// NAICMastersJSON returns the fixture division document of the newest
// tournament.
func NAICMastersJSON() []byte { return []byte(naicMastersJSON) }

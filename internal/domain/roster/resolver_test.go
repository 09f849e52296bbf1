package roster_test

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/okian/rosterpipe/internal/domain/model"
	"github.com/okian/rosterpipe/internal/domain/roster"
	"github.com/okian/rosterpipe/internal/errs"
	"github.com/smartystreets/goconvey/convey"
)

const sampleRoster = `=== [gen9vgc2025regg] Worlds Practice ===

Spooky (Flutter Mane) (F) @ Choice Specs
Ability: Protosynthesis
Level: 50
Shiny: Yes
Tera Type: Fairy
EVs: 4 HP / 252 SpA / 252 Spe
Timid Nature
IVs: 0 Atk
- Moonblast
- Shadow Ball
- Dazzling Gleam
- Protect

Incineroar @ Safety Goggles
Ability: Intimidate
Happiness: 0
- Fake Out
- Flare Blitz
- Parting Shot
- Knock Off
`

func TestParseRoster(t *testing.T) {
	ctx := context.Background()
	r := roster.New(roster.WithDefaultFormat("[Gen 9] VGC 2025 Reg H"))

	convey.Convey("Given a roster with decorative tokens", t, func() {
		team, err := r.ParseRoster(ctx, sampleRoster)

		convey.Convey("Then canonical fields are kept and decorations are dropped", func() {
			convey.So(err, convey.ShouldBeNil)
			convey.So(team.Format, convey.ShouldEqual, "gen9vgc2025regg")
			convey.So(team.Size(), convey.ShouldEqual, 2)

			fm := team.Builds[0]
			convey.So(fm.Species, convey.ShouldEqual, "Flutter Mane")
			convey.So(fm.Item, convey.ShouldEqual, "Choice Specs")
			convey.So(fm.Ability, convey.ShouldEqual, "Protosynthesis")
			convey.So(fm.TeraType, convey.ShouldEqual, "Fairy")
			convey.So(fm.Nature, convey.ShouldEqual, "Timid")
			convey.So(fm.Level, convey.ShouldEqual, 50)
			convey.So(fm.EVs, convey.ShouldResemble, model.Stats{"HP": 4, "SpA": 252, "Spe": 252})
			convey.So(fm.IVs, convey.ShouldResemble, model.Stats{"Atk": 0})
			convey.So(fm.Moves, convey.ShouldResemble, []string{"Moonblast", "Shadow Ball", "Dazzling Gleam", "Protect"})

			inc := team.Builds[1]
			convey.So(inc.Species, convey.ShouldEqual, "Incineroar")
			convey.So(inc.Item, convey.ShouldEqual, "Safety Goggles")
			convey.So(inc.Moves, convey.ShouldHaveLength, 4)
		})
	})

	convey.Convey("Given a roster without a team header", t, func() {
		team, err := r.ParseRoster(ctx, "Amoonguss @ Rocky Helmet\nAbility: Regenerator\n- Spore\n- Rage Powder\n")
		convey.So(err, convey.ShouldBeNil)
		convey.So(team.Format, convey.ShouldEqual, "gen9vgc2025regh")
	})

	convey.Convey("Given entries not separated by blank lines", t, func() {
		raw := "Amoonguss\n- Spore\nIncineroar\n- Fake Out\r\n"
		team, err := r.ParseRoster(ctx, raw)
		convey.So(err, convey.ShouldBeNil)
		convey.So(team.Size(), convey.ShouldEqual, 2)
		convey.So(team.Builds[1].Species, convey.ShouldEqual, "Incineroar")
	})

	convey.Convey("Given a repeated move", t, func() {
		team, err := r.ParseRoster(ctx, "Amoonguss\n- Spore\n- spore\n- Protect\n")
		convey.So(err, convey.ShouldBeNil)
		convey.So(team.Builds[0].Moves, convey.ShouldResemble, []string{"Spore", "Protect"})
	})

	convey.Convey("Given an unrecognised attribute inside an entry", t, func() {
		team, err := r.ParseRoster(ctx, "Amoonguss\nAbility: Regenerator\nMood: Sleepy\n- Spore\n")
		convey.So(err, convey.ShouldBeNil)
		convey.So(team.Builds[0].Ability, convey.ShouldEqual, "Regenerator")
		convey.So(team.Builds[0].Moves, convey.ShouldResemble, []string{"Spore"})
	})

	convey.Convey("Given a header with an item right after an entry without moves", t, func() {
		raw := "Amoonguss @ Rocky Helmet\nAbility: Regenerator\nIncineroar @ Sitrus Berry\n- Fake Out\n- Parting Shot\n"
		team, err := r.ParseRoster(ctx, raw)

		convey.Convey("Then it opens a new entry instead of merging into the previous one", func() {
			convey.So(err, convey.ShouldBeNil)
			convey.So(team.Size(), convey.ShouldEqual, 2)
			convey.So(team.Builds[0].Species, convey.ShouldEqual, "Amoonguss")
			convey.So(team.Builds[0].Moves, convey.ShouldBeEmpty)
			convey.So(team.Builds[1].Species, convey.ShouldEqual, "Incineroar")
			convey.So(team.Builds[1].Item, convey.ShouldEqual, "Sitrus Berry")
			convey.So(team.Builds[1].Moves, convey.ShouldResemble, []string{"Fake Out", "Parting Shot"})
		})
	})
}

func TestParseRosterRejects(t *testing.T) {
	ctx := context.Background()
	r := roster.New()

	convey.Convey("Given a roster describing seven Pokémon", t, func() {
		var b strings.Builder
		for _, s := range []string{"Amoonguss", "Incineroar", "Rillaboom", "Urshifu", "Tornadus", "Farigiraf", "Ogerpon"} {
			b.WriteString(s + " @ Sitrus Berry\n- Protect\n\n")
		}
		_, err := r.ParseRoster(ctx, b.String())

		convey.Convey("Then it fails citing the team size", func() {
			convey.So(errors.Is(err, errs.ErrParse), convey.ShouldBeTrue)
			convey.So(err.Error(), convey.ShouldContainSubstring, "7 entries")
			convey.So(err.Error(), convey.ShouldContainSubstring, "team size")
		})
	})

	convey.Convey("Given empty text", t, func() {
		_, err := r.ParseRoster(ctx, "\n \n")
		convey.So(errors.Is(err, errs.ErrParse), convey.ShouldBeTrue)
		convey.So(err.Error(), convey.ShouldContainSubstring, "0 entries")
	})

	convey.Convey("Given an entry with five distinct moves", t, func() {
		_, err := r.ParseRoster(ctx, "Amoonguss\n- Spore\n- Protect\n- Pollen Puff\n- Rage Powder\n- Sludge Bomb\n")
		convey.So(errors.Is(err, errs.ErrParse), convey.ShouldBeTrue)
		convey.So(err.Error(), convey.ShouldContainSubstring, "5 distinct moves")
	})

	convey.Convey("Given a header with an item but no species", t, func() {
		_, err := r.ParseRoster(ctx, "@ Choice Scarf\n- Protect\n")
		convey.So(errors.Is(err, errs.ErrParse), convey.ShouldBeTrue)
		convey.So(err.Error(), convey.ShouldContainSubstring, "no species")
	})

	convey.Convey("Given an attribute before any species", t, func() {
		_, err := r.ParseRoster(ctx, "Ability: Intimidate\nIncineroar\n")
		convey.So(errors.Is(err, errs.ErrParse), convey.ShouldBeTrue)
	})

	convey.Convey("Given a bare line inside an entry without moves", t, func() {
		_, err := r.ParseRoster(ctx, "Amoonguss\nAbility: Regenerator\nIncineroar\n- Fake Out\n")

		convey.Convey("Then it fails naming the line rather than dropping it", func() {
			convey.So(errors.Is(err, errs.ErrParse), convey.ShouldBeTrue)
			convey.So(err.Error(), convey.ShouldContainSubstring, `"Incineroar"`)
			convey.So(err.Error(), convey.ShouldContainSubstring, "line 3")
		})
	})

	convey.Convey("Given two abilities on one entry", t, func() {
		_, err := r.ParseRoster(ctx, "Incineroar\nAbility: Intimidate\nAbility: Blaze\n")
		convey.So(errors.Is(err, errs.ErrParse), convey.ShouldBeTrue)
		convey.So(err.Error(), convey.ShouldContainSubstring, "given twice")
	})
}

func TestExportRoundTrip(t *testing.T) {
	convey.Convey("Given a team with a parenthesized species descriptor", t, func() {
		team := model.Team{Builds: []model.PokemonBuild{
			{Species: "Tauros (Paldean Form - Aqua Breed)", Item: "Mystic Water", Ability: "Intimidate", TeraType: "Water", Level: 50, Moves: []string{"Wave Crash", "Close Combat"}},
			{Species: "Calyrex [Shadow Rider]", Item: "Focus Sash", Ability: "As One (Spectrier)", Moves: []string{"Astral Barrage"}},
		}}
		text := roster.Export(team)

		convey.Convey("Then parsing the export keeps the species labels", func() {
			convey.So(text, convey.ShouldContainSubstring, "Tauros [Paldean Form - Aqua Breed] @ Mystic Water")
			parsed, err := roster.New().ParseRoster(context.Background(), text)
			convey.So(err, convey.ShouldBeNil)
			convey.So(parsed.Builds[0].Species, convey.ShouldEqual, "Tauros [Paldean Form - Aqua Breed]")
			convey.So(parsed.Builds[0].TeraType, convey.ShouldEqual, "Water")
			convey.So(parsed.Builds[1].Species, convey.ShouldEqual, "Calyrex [Shadow Rider]")
			convey.So(parsed.Builds[1].Ability, convey.ShouldEqual, "As One (Spectrier)")
		})
	})
}

package refdata_test

import (
	"context"
	"errors"
	"testing"

	. "github.com/smartystreets/goconvey/convey"

	"github.com/okian/rosterpipe/internal/adapters/refdata"
	"github.com/okian/rosterpipe/internal/errs"
	"github.com/okian/rosterpipe/internal/testutil"
)

func loadFixture(t *testing.T) *refdata.Snapshot {
	t.Helper()
	ctx := context.Background()
	f := testutil.ServeShowdown(testutil.NewFakeFetcher(), testutil.ShowdownBaseURL)
	store := newStore(t.TempDir(), f)
	if _, err := store.DownloadOrUpdateAll(ctx, false); err != nil {
		t.Fatalf("bootstrap: %v", err)
	}
	snap, err := store.Load(ctx)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	return snap
}

func TestResolveSpecies(t *testing.T) {
	snap := loadFixture(t)

	Convey("Given standings labels", t, func() {
		cases := map[string]string{
			"Incineroar":                     "incineroar",
			"incineroar":                     "incineroar",
			"Calyrex-Shadow":                 "calyrexshadow",
			"Calyrex [Shadow Rider]":         "calyrexshadow",
			"Slowbro [Galarian Form]":        "slowbrogalar",
			"Slowbro (Galarian Form)":        "slowbrogalar",
			"Galarian Slowbro":               "slowbrogalar",
			"Urshifu [Rapid Strike Style]":   "urshifurapidstrike",
			"Urshifu [Single Strike Style]":  "urshifu",
			"Ogerpon [Wellspring Mask]":      "ogerponwellspring",
			"Vivillon-Fancy":                 "vivillon",
			"Flabébé":                        "flabebe",
			"Amoonguss [Unknown Descriptor]": "amoonguss",
		}
		for label, want := range cases {
			Convey("Then "+label+" resolves to "+want, func() {
				sp, err := snap.ResolveSpecies(label)
				So(err, ShouldBeNil)
				So(sp.ID, ShouldEqual, want)
			})
		}

		Convey("Then an unknown name is not found", func() {
			_, err := snap.ResolveSpecies("Missingno")
			So(errors.Is(err, errs.ErrNotFound), ShouldBeTrue)
		})
	})

	Convey("Given the compiled-in alias table", t, func() {
		aliases := refdata.DefaultAliases()

		Convey("Then every alias resolves exactly like its canonical name", func() {
			checked := 0
			for alias, canonical := range aliases.Species {
				want, err := snap.ResolveSpecies(canonical)
				if err != nil {
					continue // species absent from the fixture
				}
				got, err := snap.ResolveSpecies(alias)
				So(err, ShouldBeNil)
				So(got.ID, ShouldEqual, want.ID)
				checked++
			}
			So(checked, ShouldBeGreaterThanOrEqualTo, 4)
		})

		Convey("Then descriptor words are normalized", func() {
			So(aliases.Descriptors["galarian"], ShouldEqual, "Galar")
			So(aliases.Descriptors["form"], ShouldEqual, "")
		})
	})

	Convey("Given a custom alias table", t, func() {
		table, err := refdata.ParseAliasTable([]byte("species:\n  \"The Cat\": Incineroar\n  \"Ghost\": Nonexistent\n"))
		So(err, ShouldBeNil)
		snap := refdata.NewSnapshot("v", mustDecode(t), table)

		sp, err := snap.ResolveSpecies("the cat")
		So(err, ShouldBeNil)
		So(sp.Name, ShouldEqual, "Incineroar")

		_, err = snap.ResolveSpecies("Ghost")
		So(errors.Is(err, errs.ErrNotFound), ShouldBeTrue)
	})

	Convey("Given a malformed alias table", t, func() {
		_, err := refdata.ParseAliasTable([]byte("species: [unclosed"))
		So(errors.Is(err, refdata.ErrInvalidAliases), ShouldBeTrue)
	})
}

func mustDecode(t *testing.T) refdata.Datasets {
	t.Helper()
	raw := map[string][]byte{}
	names := []string{
		refdata.DatasetPokedex, refdata.DatasetMoves, refdata.DatasetLearnsets, refdata.DatasetItems,
		refdata.DatasetAbilities, refdata.DatasetFormatsData, refdata.DatasetFormats,
	}
	files := testutil.ShowdownFiles()
	for i, p := range refdata.DatasetPaths() {
		raw[names[i]] = files[p]
	}
	ds, err := refdata.DecodeDatasets(raw)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	return ds
}

func TestResolveNames(t *testing.T) {
	snap := loadFixture(t)

	Convey("Given move names", t, func() {
		for label, want := range map[string]string{
			"U-turn":              "uturn",
			"Protect (Doubles)":   "protect",
			"Hidden Power [Fire]": "hiddenpowerfire",
			"Hi Jump Kick":        "highjumpkick",
		} {
			m, err := snap.ResolveMove(label)
			So(err, ShouldBeNil)
			So(m.ID, ShouldEqual, want)
		}
		_, err := snap.ResolveMove("Splash Dance")
		So(errors.Is(err, errs.ErrNotFound), ShouldBeTrue)
	})

	Convey("Given item and ability names", t, func() {
		it, err := snap.ResolveItem("King's Rock")
		So(err, ShouldBeNil)
		So(it.Name, ShouldEqual, "King's Rock")

		it, err = snap.ResolveItem("BrightPowder")
		So(err, ShouldBeNil)
		So(it.ID, ShouldEqual, "brightpowder")

		ab, err := snap.ResolveAbility("As One (Spectrier)")
		So(err, ShouldBeNil)
		So(ab.ID, ShouldEqual, "asonespectrier")

		_, err = snap.ResolveAbility("Lightningrod")
		So(errors.Is(err, errs.ErrNotFound), ShouldBeTrue)
		_, err = snap.ResolveItem("")
		So(errors.Is(err, errs.ErrNotFound), ShouldBeTrue)
	})

	Convey("Given species data", t, func() {
		So(snap.SpeciesAbilities("calyrexshadow"), ShouldResemble, []string{"asonespectrier"})
		So(snap.SpeciesTags("fluttermane"), ShouldResemble, []string{"Paradox"})
		So(snap.SpeciesNonstandard("dracovish"), ShouldEqual, "Past")
		So(snap.SpeciesNonstandard("incineroar"), ShouldEqual, "")
		So(snap.SpeciesTags("missingno"), ShouldBeNil)
		So(snap.SpeciesNum("urshifurapidstrike"), ShouldEqual, snap.SpeciesNum("urshifu"))
		So(snap.SpeciesNum("missingno"), ShouldEqual, 0)
	})

	Convey("Given the VGC formats a species may enter", t, func() {
		So(snap.ValidFormats("incineroar"), ShouldResemble, []string{"gen8vgc2022", "gen9vgc2025regg", "gen9vgc2025regh"})

		Convey("Then category bans remove formats", func() {
			So(snap.ValidFormats("fluttermane"), ShouldResemble, []string{"gen8vgc2022", "gen9vgc2025regg"})
			So(snap.ValidFormats("calyrexshadow"), ShouldResemble, []string{"gen8vgc2022", "gen9vgc2025regg"})
		})

		Convey("Then unavailable or unknown species have none", func() {
			So(snap.ValidFormats("dracovish"), ShouldBeEmpty)
			So(snap.ValidFormats("missingno"), ShouldBeEmpty)
		})
	})
}

func TestFormatRules(t *testing.T) {
	snap := loadFixture(t)

	Convey("Given the fixture formats", t, func() {
		So(snap.Formats(), ShouldResemble, []string{
			"gen8vgc2022", "gen9doublescustomgame", "gen9vgc2025regg", "gen9vgc2025regh",
		})

		Convey("Then Reg H bans its categories under flat rules", func() {
			rs, err := snap.FormatRules("[Gen 9] VGC 2025 Reg H")
			So(err, ShouldBeNil)
			So(rs.ID, ShouldEqual, testutil.FormatRegH)
			So(rs.Generation, ShouldEqual, 9)
			So(rs.MinSourceGen, ShouldEqual, 9)
			So(rs.GameType, ShouldEqual, "doubles")
			So(rs.SpeciesClause, ShouldBeTrue)
			So(rs.ItemClause, ShouldBeTrue)
			So(rs.BannedTags, ShouldResemble, []string{"Sub-Legendary", "Paradox", "Restricted Legendary", "Mythical"})
			So(rs.RestrictedLimit, ShouldEqual, 0)
		})

		Convey("Then Reg G limits restricted species and bans named entries", func() {
			rs, err := snap.FormatRules(testutil.FormatRegG)
			So(err, ShouldBeNil)
			So(rs.RestrictedLimit, ShouldEqual, 1)
			So(rs.RestrictedTags, ShouldResemble, []string{"Restricted Legendary"})
			So(rs.Bans("kingsrock"), ShouldBeTrue)
			So(rs.Bans("batonpass"), ShouldBeTrue)
			So(rs.Bans("moody"), ShouldBeTrue)
			So(rs.Banlist, ShouldHaveLength, 3)
		})

		Convey("Then a negated clause overrides the standard rules", func() {
			rs, err := snap.FormatRules("gen9doublescustomgame")
			So(err, ShouldBeNil)
			So(rs.SpeciesClause, ShouldBeFalse)
			So(rs.ItemClause, ShouldBeFalse)
			So(rs.Unbanlist["fluttermane"], ShouldBeTrue)
		})

		Convey("Then an unknown format is not found", func() {
			_, err := snap.FormatRules("gen1ou")
			So(errors.Is(err, errs.ErrNotFound), ShouldBeTrue)
		})
	})
}

func TestCanLearn(t *testing.T) {
	snap := loadFixture(t)
	regH, _ := snap.FormatRules(testutil.FormatRegH)
	vgc22, _ := snap.FormatRules(testutil.FormatVGC22)

	Convey("Given learnsets with inheritance", t, func() {
		So(snap.CanLearn("incineroar", "flareblitz", regH), ShouldBeTrue)
		So(snap.CanLearn("incineroar", "fakeout", regH), ShouldBeTrue)
		So(snap.CanLearn("whimsicott", "moonblast", regH), ShouldBeTrue)
		So(snap.CanLearn("calyrexshadow", "protect", regH), ShouldBeTrue)
		So(snap.CanLearn("urshifurapidstrike", "closecombat", regH), ShouldBeTrue)
		So(snap.CanLearn("slowbrogalar", "sludgebomb", regH), ShouldBeTrue)
		So(snap.CanLearn("amoonguss", "fakeout", regH), ShouldBeFalse)
		So(snap.CanLearn("missingno", "protect", regH), ShouldBeFalse)

		Convey("Then sources outside the generation bounds do not count", func() {
			So(snap.CanLearn("incineroar", "uturn", regH), ShouldBeFalse)
			So(snap.CanLearn("incineroar", "uturn", vgc22), ShouldBeTrue)
			So(snap.CanLearn("calyrexshadow", "nastyplot", vgc22), ShouldBeFalse)
		})
	})
}

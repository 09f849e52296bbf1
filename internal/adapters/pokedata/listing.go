package pokedata

import (
	"bytes"
	"context"
	"io"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/sourcegraph/conc/pool"
	"golang.org/x/net/html"

	"github.com/okian/rosterpipe/internal/domain/model"
	"github.com/okian/rosterpipe/internal/errs"
	"github.com/okian/rosterpipe/pkg/logger"
	"github.com/okian/rosterpipe/pkg/metrics"
)

const opList = "pokedata.list"

var voidElements = map[string]bool{"br": true, "img": true, "hr": true, "wbr": true}

var (
	hrefTarget = regexp.MustCompile(`location\.href\s*=\s*'([^'/]+)/'`)
	dateLabel  = regexp.MustCompile(`([A-Za-z]+)\.?\s+(\d{1,2})(?:\s*[-–]\s*(?:[A-Za-z]+\.?\s+)?\d{1,2})?,\s*(\d{4})`)
)

// ListTournaments returns the tournaments on the standings index, newest
// first, capped at limit when limit is positive. Each listing carries the
// divisions its tournament page offers, or nil when that page could not be
// read.
func (c *Cache) ListTournaments(ctx context.Context, limit int, force bool) ([]model.TournamentListing, error) {
	res, err := c.get(ctx, Key{Tournament: indexSegment, Division: pageSegment}, c.baseURL+"/", force, c.indexMaxAge)
	if err != nil {
		return nil, err
	}
	if res.Stale {
		c.logger.Warn(ctx, "tournament index is stale")
	}

	listings, err := ParseIndex(res.Entry.Payload, c.baseURL)
	if err != nil {
		return nil, errs.Parse(opList, c.baseURL+"/", err)
	}
	if limit > 0 && len(listings) > limit {
		listings = listings[:limit]
	}

	p := pool.New().WithMaxGoroutines(c.concurrency)
	for i := range listings {
		p.Go(func() {
			listings[i].Divisions = c.divisions(ctx, listings[i].ID, force)
		})
	}
	p.Wait()

	metrics.UpdateTournamentsDiscovered(len(listings))
	c.logger.Debug(ctx, "tournaments listed", logger.Int("count", len(listings)))
	return listings, nil
}

func (c *Cache) divisions(ctx context.Context, id string, force bool) []string {
	res, err := c.get(ctx, Key{Tournament: id, Division: pageSegment}, c.baseURL+"/"+id+"/", force, 0)
	if err != nil {
		c.logger.Debug(ctx, "tournament page unavailable; trying every division",
			logger.String("tournament", id), logger.Error(err))
		return nil
	}
	return ParseDivisions(res.Entry.Payload)
}

// ParseIndex extracts tournament listings from the standings index and
// orders them newest first. Listings whose date cannot be read sort last in
// page order.
func ParseIndex(page []byte, baseURL string) ([]model.TournamentListing, error) {
	var out []model.TournamentListing
	err := eachButton(page, func(target, label string) {
		lines := nonEmptyLines(label)
		l := model.TournamentListing{ID: target, Name: target, URL: strings.TrimRight(baseURL, "/") + "/" + target + "/"}
		if len(lines) > 0 {
			l.Name = lines[0]
		}
		if len(lines) > 1 {
			l.DateText = strings.TrimSpace(strings.TrimPrefix(lines[1], "-"))
			l.Date = ParseDate(l.DateText)
		}
		out = append(out, l)
	})
	if err != nil {
		return nil, err
	}

	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i].Date, out[j].Date
		if a.IsZero() || b.IsZero() {
			return !a.IsZero() && b.IsZero()
		}
		return a.After(b)
	})
	return out, nil
}

// ParseDivisions lists the divisions linked from a tournament page, in page
// order. A page without division links offers masters only.
func ParseDivisions(page []byte) []string {
	var out []string
	seen := map[string]bool{}
	_ = eachButton(page, func(target, _ string) {
		d := strings.ToLower(target)
		if model.IsDivision(d) && !seen[d] {
			seen[d] = true
			out = append(out, d)
		}
	})
	if len(out) == 0 {
		return []string{model.DivisionMasters}
	}
	return out
}

// ParseDate reads the first day of labels such as "January 1-2, 2025" or
// "May 31 - June 1, 2025". It returns the zero time when nothing matches.
func ParseDate(label string) time.Time {
	m := dateLabel.FindStringSubmatch(label)
	if m == nil {
		return time.Time{}
	}
	s := m[1] + " " + m[2] + " " + m[3]
	for _, layout := range []string{"January 2 2006", "Jan 2 2006"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t
		}
	}
	return time.Time{}
}

// eachButton calls fn for every element whose onclick navigates to a
// relative "<target>/" location, with the element's text content.
func eachButton(page []byte, fn func(target, label string)) error {
	z := html.NewTokenizer(bytes.NewReader(page))
	var (
		target string
		depth  int
		label  strings.Builder
	)
	for {
		switch z.Next() {
		case html.ErrorToken:
			if err := z.Err(); err != io.EOF {
				return err
			}
			return nil
		case html.StartTagToken:
			tok := z.Token()
			if target != "" {
				if tok.Data == "br" {
					label.WriteString("\n")
				}
				if !voidElements[tok.Data] {
					depth++
				}
				continue
			}
			for _, a := range tok.Attr {
				if a.Key != "onclick" {
					continue
				}
				if m := hrefTarget.FindStringSubmatch(a.Val); m != nil {
					target = m[1]
					depth = 0
					label.Reset()
				}
			}
		case html.SelfClosingTagToken:
			if target != "" && z.Token().Data == "br" {
				label.WriteString("\n")
			}
		case html.TextToken:
			if target != "" {
				label.Write(z.Text())
			}
		case html.EndTagToken:
			if target == "" {
				continue
			}
			if depth > 0 {
				depth--
				continue
			}
			fn(target, label.String())
			target = ""
		}
	}
}

func nonEmptyLines(s string) []string {
	var out []string
	for _, line := range strings.Split(s, "\n") {
		if line = strings.Join(strings.Fields(line), " "); line != "" {
			out = append(out, line)
		}
	}
	return out
}

package sources

import (
	"bytes"
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"nfwa/internal"
	"nfwa/internal/perf"
	"nfwa/internal/util"
)

const minfriidrettBaseURL = "https://www.minfriidrett.no/idrett/statistikk/landsoversikt.php"

// The federation site keys senior classes by number.
const (
	showClassWomen = 22
	showClassMen   = 11
)

var (
	athleteIDRe = regexp.MustCompile(`[?&]showathl=(\d+)\b`)
	compIDRe    = regexp.MustCompile(`posttoresultlist\((\d+)\)`)
)

// LandsoversiktURL builds the season list URL for one gender.
func LandsoversiktURL(gender internal.Gender, season int) string {
	showclass := showClassMen
	if gender == internal.GenderWomen {
		showclass = showClassWomen
	}
	return fmt.Sprintf("%s?showclass=%d&showevent=0&outdoor=Y&showseason=%d&showclub=0",
		minfriidrettBaseURL, showclass, season)
}

// FetchLandsoversikt fetches and parses one season page of the
// federation statistics.
func FetchLandsoversikt(ctx context.Context, f *Fetcher, gender internal.Gender, season int) ([]internal.RawResult, error) {
	pageURL := LandsoversiktURL(gender, season)
	body, err := f.Fetch(ctx, pageURL)
	if err != nil {
		return nil, err
	}
	return ParseLandsoversikt(body, gender, season, pageURL)
}

// ParseLandsoversikt reads the per-event sections of a landsoversikt
// page. Each section is a div id="øvelse" with an h4 heading and a
// ranking table.
func ParseLandsoversikt(htmlBytes []byte, gender internal.Gender, season int, sourceURL string) ([]internal.RawResult, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(htmlBytes))
	if err != nil {
		return nil, err
	}

	var out []internal.RawResult
	doc.Find(`div[id='øvelse']`).Each(func(_ int, div *goquery.Selection) {
		eventName := util.CollapseSpace(div.Find("h4").First().Text())
		if eventName == "" {
			// the page repeats side lists (foreign citizens etc)
			// without a heading; those duplicate the ranking tables
			return
		}
		table := div.Find("table").First()
		if table.Length() == 0 {
			return
		}

		rank := 0
		resultCount := 0
		prevClean := ""
		table.Find("tr").Each(func(i int, tr *goquery.Selection) {
			if i == 0 {
				return // header
			}
			cells := tr.Find("td")
			if cells.Length() < 6 {
				return
			}

			perfRaw := util.CollapseSpace(cells.Eq(0).Text())
			cleaned, ok := perf.Clean(perfRaw)
			if !ok {
				return
			}

			athleteTd := cells.Eq(1)
			link := athleteTd.Find("a").First()
			if link.Length() == 0 {
				return
			}
			athleteName := util.CollapseSpace(link.Text())
			href, _ := link.Attr("href")
			nativeID := parseIDMatch(athleteIDRe.FindStringSubmatch(href))
			if nativeID == nil {
				return
			}

			club := ownText(athleteTd)
			club = strings.TrimSpace(strings.TrimPrefix(club, ","))

			row := internal.RawResult{
				Source:          internal.SourceMinfriidrett,
				SourceURL:       sourceURL,
				Season:          season,
				Gender:          gender,
				EventLabel:      eventName,
				PerformanceRaw:  cleaned.Raw,
				AthleteName:     athleteName,
				AthleteNativeID: nativeID,
				Wind:            cleaned.Wind,
			}
			if club != "" {
				row.Club = &club
			}
			if birth, ok := util.ParseDDMMYY(util.CollapseSpace(cells.Eq(2).Text()), 0); ok {
				row.BirthDate = &birth
			}
			if placement := util.CollapseSpace(cells.Eq(3).Text()); placement != "" {
				row.PlacementRaw = &placement
			}

			venueTd := cells.Eq(4)
			if stadium, ok := venueTd.Attr("title"); ok {
				if stadium = strings.TrimSpace(stadium); stadium != "" {
					row.Stadium = &stadium
				}
			}
			if city := strings.TrimSuffix(ownText(venueTd), ","); strings.TrimSpace(city) != "" {
				city = strings.TrimSpace(city)
				row.VenueCity = &city
			}
			if compLink := venueTd.Find("a").First(); compLink.Length() > 0 {
				if name := util.CollapseSpace(compLink.Text()); name != "" {
					row.CompetitionName = &name
				}
				compHref, _ := compLink.Attr("href")
				row.CompetitionID = parseIDMatch(compIDRe.FindStringSubmatch(compHref))
			}
			if date, ok := util.ParseDDMMYY(util.CollapseSpace(cells.Eq(5).Text()), 0); ok {
				row.ResultDate = &date
			}

			// tied performances share the same rank
			resultCount++
			if cleaned.Clean != prevClean {
				rank = resultCount
				prevClean = cleaned.Clean
			}
			row.RankInList = rank

			out = append(out, row)
		})
	})
	return out, nil
}

func parseIDMatch(m []string) *int64 {
	if len(m) < 2 {
		return nil
	}
	n, err := strconv.ParseInt(m[1], 10, 64)
	if err != nil {
		return nil
	}
	return &n
}

// ownText collects the direct text of a node, skipping child elements
// like links.
func ownText(sel *goquery.Selection) string {
	var b strings.Builder
	sel.Contents().Each(func(_ int, c *goquery.Selection) {
		if goquery.NodeName(c) == "#text" {
			b.WriteString(c.Text())
		}
	})
	return util.CollapseSpace(b.String())
}

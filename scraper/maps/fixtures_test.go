package maps

import (
	"fmt"
	"strings"
	"time"

	"dentist-scraper/config"
	"dentist-scraper/services"
	"dentist-scraper/utils"
)

const testQuery = "dentists test"

// fixedScorer scores every context the same so tests do not depend on the
// VADER lexicon.
type fixedScorer float64

func (s fixedScorer) Polarity(string) float64 { return float64(s) }

func testConfig() *config.Config {
	return &config.Config{
		SearchQuery:         testQuery,
		MaxResults:          10,
		MaxReviews:          30,
		ReviewStableScrolls: 2,
		WaitTimeout:         time.Second,
		FallbackLatitude:    40.7128,
		FallbackLongitude:   -74.0060,
		ContextRadius:       100,
	}
}

func testAnalyzer() *services.MentionAnalyzer {
	return services.NewMentionAnalyzer(services.NewMatcher(services.DefaultLexicon, 100), fixedScorer(0.5))
}

func testLogger() *utils.Logger { return utils.NewLogger("error") }

type reviewFixture struct {
	author, stars, date, text string
	lazy                      int
}

type placeFixture struct {
	url         string
	name        string
	address     string
	phone       string
	website     string
	rating      string
	reviewCount string
	about       []string
	hours       [][2]string
	reviews     []reviewFixture
}

// addTo renders the place panel and its About, Hours and Reviews views into
// pages.
func (p placeFixture) addTo(pages map[string]string) {
	var b strings.Builder
	b.WriteString("<html><body>")
	if p.name != "" {
		fmt.Fprintf(&b, "<h1>%s</h1>", p.name)
	}
	if p.rating != "" {
		fmt.Fprintf(&b, `<div role="img" aria-label="%s"></div>`, p.rating)
	}
	if p.reviewCount != "" {
		fmt.Fprintf(&b, `<span aria-label="%s reviews">(%s)</span>`, p.reviewCount, p.reviewCount)
	}
	if p.address != "" {
		fmt.Fprintf(&b, `<button data-item-id="address"><div class="Io6YTe fontBodyMedium">%s</div></button>`, p.address)
	}
	if p.phone != "" {
		fmt.Fprintf(&b, `<button data-item-id="phone:tel:5550100"><div class="Io6YTe fontBodyMedium">%s</div></button>`, p.phone)
	}
	if p.website != "" {
		fmt.Fprintf(&b, `<a data-item-id="authority" href="%s">site</a>`, p.website)
	}
	if len(p.about) > 0 {
		fmt.Fprintf(&b, `<button aria-label="About %s" data-nav="%s/about">About</button>`, p.name, p.url)
		var about strings.Builder
		about.WriteString("<html><body>")
		for _, text := range p.about {
			fmt.Fprintf(&about, `<div role="region"><p>%s</p></div>`, text)
		}
		about.WriteString("</body></html>")
		pages[p.url+"/about"] = about.String()
	}
	if p.hours != nil {
		fmt.Fprintf(&b, `<button aria-label="Hours for %s" data-nav="%s/hours">Hours</button>`, p.name, p.url)
		var hours strings.Builder
		hours.WriteString("<html><body><table>")
		for _, row := range p.hours {
			fmt.Fprintf(&hours, "<tr><td><div>%s</div></td><td><ul><li>%s</li></ul></td></tr>", row[0], row[1])
		}
		hours.WriteString("</table></body></html>")
		pages[p.url+"/hours"] = hours.String()
	}
	if p.reviews != nil {
		fmt.Fprintf(&b, `<button aria-label="Reviews for %s" data-nav="%s/reviews">Reviews</button>`, p.name, p.url)
		var reviews strings.Builder
		reviews.WriteString(`<html><body><div role="feed">`)
		for i, r := range p.reviews {
			if r.lazy > 0 {
				fmt.Fprintf(&reviews, `<div data-lazy="%d">`, r.lazy)
			}
			fmt.Fprintf(&reviews, `<div data-review-id="r%d">`, i)
			if r.author != "" {
				fmt.Fprintf(&reviews, `<div class="d4r55 fontTitleMedium">%s</div>`, r.author)
			}
			if r.stars != "" {
				fmt.Fprintf(&reviews, `<span role="img" aria-label="%s"></span>`, r.stars)
			}
			if r.date != "" {
				fmt.Fprintf(&reviews, `<span class="rsqaWe">%s</span>`, r.date)
			}
			fmt.Fprintf(&reviews, `<span class="wiI7pd">%s</span></div>`, r.text)
			if r.lazy > 0 {
				reviews.WriteString("</div>")
			}
		}
		reviews.WriteString("</div></body></html>")
		pages[p.url+"/reviews"] = reviews.String()
	}
	b.WriteString("</body></html>")
	pages[p.url] = b.String()
}

func fullWeek() [][2]string {
	return [][2]string{
		{"Monday", "8 AM–6 PM"},
		{"Tuesday", "8 AM–6 PM"},
		{"Wednesday", "8 AM–6 PM"},
		{"Thursday", "8 AM–6 PM"},
		{"Friday", "8 AM–4 PM"},
		{"Saturday", "Closed"},
		{"Sunday", "Closed"},
	}
}

// feedPage renders a results feed linking to urls. Items from index
// lazyFrom on only appear after the first scroll.
func feedPage(urls []string, lazyFrom int) string {
	var b strings.Builder
	b.WriteString(`<html><body><div role="feed">`)
	for i, u := range urls {
		item := fmt.Sprintf(`<div role="article" data-nav="%s"><a>%d</a></div>`, u, i+1)
		if lazyFrom >= 0 && i >= lazyFrom {
			item = `<div data-lazy="1">` + item + `</div>`
		}
		b.WriteString(item)
	}
	b.WriteString("</div></body></html>")
	return b.String()
}

func placeURL(n int) string {
	return fmt.Sprintf("https://www.google.com/maps/place/Dentist+%d/@40.%d,-73.9,17z", n, 7000+n)
}

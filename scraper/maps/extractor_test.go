package maps

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dentist-scraper/browser"
	"dentist-scraper/models"
)

var extractNow = time.Date(2024, 1, 15, 10, 30, 0, 0, time.UTC)

func newTestExtractor(pages map[string]string, url string) (*Extractor, *browser.FakeDriver) {
	driver := browser.NewFakeDriver(pages)
	_ = driver.Navigate(context.Background(), url)
	ex := NewExtractor(driver, testConfig(), testAnalyzer(), testLogger())
	ex.now = func() time.Time { return extractNow }
	return ex, driver
}

func TestExtractFullListing(t *testing.T) {
	url := placeURL(1)
	pages := map[string]string{}
	placeFixture{
		url:         url,
		name:        "Bright Smile Dental",
		address:     "12 Main St, New York, NY",
		phone:       "(212) 555-0100",
		website:     "https://brightsmile.example",
		rating:      "4.7 stars",
		reviewCount: "1,204",
		about:       []string{"Sensory friendly rooms.", "We welcome autistic patients."},
		hours:       fullWeek(),
		reviews: []reviewFixture{
			{author: "Jane", stars: " 5 stars ", date: "3 months ago", text: "Great with my son who has ADHD."},
			{author: "", stars: "4 stars", date: "a week ago", text: "Friendly staff and clean office."},
			{author: "Sam", stars: "3 stars", date: "yesterday", text: "Ok"},
		},
	}.addTo(pages)

	ex, driver := newTestExtractor(pages, url)
	l, err := ex.Extract(context.Background(), models.NewSequence())

	require.NoError(t, err)
	assert.Equal(t, "1", l.ID)
	assert.Equal(t, "Bright Smile Dental", l.Name)
	assert.Equal(t, models.Category, l.Category)
	assert.Equal(t, "12 Main St, New York, NY", l.Address)
	assert.Equal(t, "(212) 555-0100", l.Phone)
	require.NotNil(t, l.Website)
	assert.Equal(t, "https://brightsmile.example", *l.Website)
	assert.Equal(t, 4.7, l.PlaceRating)
	assert.Equal(t, 1204, l.ReviewCount)
	assert.Equal(t, 40.7001, l.Latitude)
	assert.Equal(t, -73.9, l.Longitude)
	assert.Equal(t, url, l.SourceURL)

	assert.Equal(t, "Sensory friendly rooms. We welcome autistic patients.", l.Description)
	assert.Equal(t, l.Description, l.ShortDescription)

	assert.Len(t, l.Hours, 7)
	assert.Equal(t, "8 AM–4 PM", l.Hours["Friday"])
	assert.Equal(t, "Closed", l.Hours["Sunday"])

	require.Len(t, l.Reviews, 2, "the two-letter review is skipped")
	assert.Equal(t, models.Review{
		ID: "1-1", ServiceID: "1", Rating: 5, Comment: "Great with my son who has ADHD.",
		Author: "Jane", Source: models.ReviewSource, Date: "2023-10-01",
	}, l.Reviews[0])
	assert.Equal(t, "1-2", l.Reviews[1].ID)
	assert.Equal(t, "Anonymous", l.Reviews[1].Author)
	assert.Equal(t, "2024-01-08", l.Reviews[1].Date)

	require.NotNil(t, l.AverageRating)
	assert.Equal(t, 4.5, *l.AverageRating)

	require.Len(t, l.NeurodivergentMentions, 2)
	assert.Equal(t, "autistic", l.NeurodivergentMentions[0].Keyword)
	assert.Equal(t, models.DescriptionSource, l.NeurodivergentMentions[0].Source)
	assert.Equal(t, "ADHD", l.NeurodivergentMentions[1].Keyword)
	assert.Equal(t, "review:1-1", l.NeurodivergentMentions[1].Source)
	assert.Equal(t, 0.5, l.NeurodivergentMentions[1].Sentiment)

	cur, _ := driver.CurrentURL(context.Background())
	assert.Equal(t, url, cur, "every panel is closed again")
}

func TestExtractDefaults(t *testing.T) {
	url := "https://www.google.com/maps/place/Plain+Dental"
	pages := map[string]string{}
	placeFixture{
		url:     url,
		name:    "Plain Dental",
		address: "5 Side St",
		hours:   fullWeek()[:5],
	}.addTo(pages)

	ex, _ := newTestExtractor(pages, url)
	l, err := ex.Extract(context.Background(), models.NewSequence())

	require.NoError(t, err)
	assert.Equal(t, "Dental practice located in 5 Side St.", l.Description)
	assert.Equal(t, l.Description, l.ShortDescription)
	assert.Equal(t, 40.7128, l.Latitude)
	assert.Equal(t, -74.0060, l.Longitude)
	assert.Equal(t, models.DefaultHours(), l.Hours)
	assert.Nil(t, l.Website)
	assert.Zero(t, l.PlaceRating)
	assert.Zero(t, l.ReviewCount)
	assert.Empty(t, l.Reviews)
	assert.NotNil(t, l.Reviews)
	assert.Nil(t, l.AverageRating)
	assert.False(t, l.HasMentions())
}

func TestExtractMissingName(t *testing.T) {
	url := "https://www.google.com/maps/place/Nameless"
	pages := map[string]string{}
	placeFixture{url: url, address: "1 Nowhere Rd"}.addTo(pages)

	seq := models.NewSequence()
	ex, _ := newTestExtractor(pages, url)
	_, err := ex.Extract(context.Background(), seq)

	assert.True(t, errors.Is(err, ErrMissingName))
	assert.Equal(t, "1", seq.Next(), "no id is consumed")
}

func TestExtractReviewFeedScrolls(t *testing.T) {
	url := placeURL(2)
	pages := map[string]string{}
	placeFixture{
		url:  url,
		name: "Scroll Dental",
		reviews: []reviewFixture{
			{stars: "5 stars", date: "2 days ago", text: "First visible review here."},
			{stars: "4 stars", date: "2 days ago", text: "Loaded after one scroll.", lazy: 1},
			{stars: "1 star", date: "2 days ago", text: "Loaded after two scrolls.", lazy: 2},
		},
	}.addTo(pages)

	ex, _ := newTestExtractor(pages, url)
	l, err := ex.Extract(context.Background(), models.NewSequence())

	require.NoError(t, err)
	require.Len(t, l.Reviews, 3)
	assert.Equal(t, "2024-01-13", l.Reviews[2].Date)
	assert.Equal(t, 1, l.Reviews[2].Rating)
	require.NotNil(t, l.AverageRating)
	assert.Equal(t, 3.3, *l.AverageRating)
}

func TestExtractCapsReviews(t *testing.T) {
	url := placeURL(3)
	pages := map[string]string{}
	var reviews []reviewFixture
	for i := 0; i < 5; i++ {
		reviews = append(reviews, reviewFixture{stars: "5 stars", text: "Long enough review text."})
	}
	placeFixture{url: url, name: "Capped Dental", reviews: reviews}.addTo(pages)

	ex, _ := newTestExtractor(pages, url)
	ex.cfg.MaxReviews = 2
	l, err := ex.Extract(context.Background(), models.NewSequence())

	require.NoError(t, err)
	assert.Len(t, l.Reviews, 2)
	assert.Equal(t, "2024-01-15", l.Reviews[0].Date, "missing dates fall back to today")
}

// staleOn fails every FindAll for one selector with ErrStale.
type staleOn struct {
	*browser.FakeDriver
	sel string
}

func (s *staleOn) FindAll(ctx context.Context, scope *browser.Element, sel string) ([]browser.Element, error) {
	if sel == s.sel {
		return nil, browser.ErrStale
	}
	return s.FakeDriver.FindAll(ctx, scope, sel)
}

func TestExtractAbandonsListingWhenPanelGoesStale(t *testing.T) {
	for _, sel := range []string{AboutRegionSelector, ReviewItemSelector} {
		t.Run(sel, func(t *testing.T) {
			url := placeURL(4)
			pages := map[string]string{}
			placeFixture{
				url:   url,
				name:  "Stale Dental",
				about: []string{"Calm rooms for autistic kids."},
				reviews: []reviewFixture{
					{stars: "5 stars", date: "a week ago", text: "Patient with my autistic son."},
				},
			}.addTo(pages)

			driver := &staleOn{FakeDriver: browser.NewFakeDriver(pages), sel: sel}
			require.NoError(t, driver.Navigate(context.Background(), url))
			ex := NewExtractor(driver, testConfig(), testAnalyzer(), testLogger())

			l, err := ex.Extract(context.Background(), models.NewSequence())

			assert.True(t, errors.Is(err, browser.ErrStale), "err = %v", err)
			assert.Nil(t, l)
		})
	}
}

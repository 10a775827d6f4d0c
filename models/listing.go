package models

import (
	"math"
	"strconv"
	"time"

	"github.com/google/uuid"
)

const (
	// Category is stamped on every listing produced by the dentist scraper.
	Category = "Dentist"
	// ReviewSource identifies where reviews were collected from.
	ReviewSource = "Google Maps"
	// DescriptionSource tags mentions found in a listing's description.
	DescriptionSource = "description"

	shortDescriptionLimit = 100
)

// Weekdays lists the hours keys in display order.
var Weekdays = []string{"Monday", "Tuesday", "Wednesday", "Thursday", "Friday", "Saturday", "Sunday"}

// Listing is one dentist record in the downstream app's schema. Fields tagged
// json:"-" are informational and only reach the CSV/SQL sinks.
type Listing struct {
	ID                     string            `json:"id"`
	Name                   string            `json:"name"`
	Description            string            `json:"description"`
	ShortDescription       string            `json:"shortDescription"`
	Category               string            `json:"category"`
	Address                string            `json:"address"`
	Latitude               float64           `json:"latitude"`
	Longitude              float64           `json:"longitude"`
	Phone                  string            `json:"phone"`
	Website                *string           `json:"website"`
	Hours                  map[string]string `json:"hours"`
	AverageRating          *float64          `json:"averageRating,omitempty"`
	Reviews                []Review          `json:"reviews"`
	NeurodivergentMentions []Mention         `json:"neurodivergentMentions,omitempty"`

	PlaceRating float64 `json:"-"`
	ReviewCount int     `json:"-"`
	SourceURL   string  `json:"-"`
}

// Review is a single customer review owned by a Listing.
type Review struct {
	ID        string `json:"id"`
	ServiceID string `json:"serviceId"`
	Rating    int    `json:"rating"`
	Comment   string `json:"comment"`
	Author    string `json:"author"`
	Source    string `json:"source"`
	Date      string `json:"date"`
}

// Mention is one lexicon term found in a listing's text, with the sentiment
// of its surrounding context.
type Mention struct {
	Keyword   string  `json:"keyword"`
	Context   string  `json:"context"`
	Sentiment float64 `json:"sentiment"`
	Source    string  `json:"source"`
}

// HasMentions reports whether the listing qualifies for the accepted set.
func (l *Listing) HasMentions() bool {
	return len(l.NeurodivergentMentions) > 0
}

// ComputeAverageRating sets AverageRating to the mean review rating rounded to
// one decimal, or clears it when there are no reviews.
func (l *Listing) ComputeAverageRating() {
	if len(l.Reviews) == 0 {
		l.AverageRating = nil
		return
	}
	total := 0
	for _, r := range l.Reviews {
		total += r.Rating
	}
	avg := round1(float64(total) / float64(len(l.Reviews)))
	l.AverageRating = &avg
}

// MeanSentiment returns the average sentiment over all mentions, 0 if none.
func (l *Listing) MeanSentiment() float64 {
	if len(l.NeurodivergentMentions) == 0 {
		return 0
	}
	var sum float64
	for _, m := range l.NeurodivergentMentions {
		sum += m.Sentiment
	}
	return sum / float64(len(l.NeurodivergentMentions))
}

// ReviewID builds the "{listingId}-{index}" review identifier.
func ReviewID(listingID string, index int) string {
	return listingID + "-" + strconv.Itoa(index)
}

// ReviewMentionSource tags mentions found in a review.
func ReviewMentionSource(reviewID string) string {
	return "review:" + reviewID
}

// ShortDescription truncates desc to 100 characters followed by "...".
func ShortDescription(desc string) string {
	runes := []rune(desc)
	if len(runes) <= shortDescriptionLimit {
		return desc
	}
	return string(runes[:shortDescriptionLimit]) + "..."
}

// DefaultHours is the weekly schedule used when the hours view is unusable.
func DefaultHours() map[string]string {
	hours := make(map[string]string, len(Weekdays))
	for _, day := range Weekdays[:5] {
		hours[day] = "9:00 AM - 5:00 PM"
	}
	hours["Saturday"] = "Closed"
	hours["Sunday"] = "Closed"
	return hours
}

// Sequence hands out listing ids "1", "2", ... for a single run.
type Sequence struct {
	next int
}

// NewSequence returns a Sequence whose first id is "1".
func NewSequence() *Sequence {
	return &Sequence{next: 1}
}

// Next returns the next id and advances the sequence.
func (s *Sequence) Next() string {
	id := strconv.Itoa(s.next)
	s.next++
	return id
}

// SessionResult is what one scrape session produced.
type SessionResult struct {
	RunID      uuid.UUID
	Query      string
	StartedAt  time.Time
	FinishedAt time.Time

	Discovered int // feed items loaded
	Processed  int // items whose extraction was attempted
	Skipped    int // items abandoned on error or missing name
	Discarded  int // extracted but without mentions

	Listings []*Listing
}

// Retained is the number of accepted listings.
func (r *SessionResult) Retained() int {
	return len(r.Listings)
}

// InsightReport holds the computed analytics over the accepted dataset.
type InsightReport struct {
	Processed          int
	Retained           int
	TotalReviews       int
	TotalMentions      int
	AverageRating      float64
	MentionsByKeyword  map[string]int
	SentimentByKeyword map[string]float64
	MostPositive       *Listing
	MostNegative       *Listing
	TopRated           []*Listing
}

func round1(f float64) float64 {
	return math.Round(f*10) / 10
}

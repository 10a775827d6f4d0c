package services

import (
	"testing"

	"dentist-scraper/models"
	"dentist-scraper/utils"
)

func ptr(f float64) *float64 { return &f }

func sampleListings() []*models.Listing {
	return []*models.Listing{
		{ID: "1", Name: "Calm Smiles", AverageRating: ptr(4.9),
			Reviews: []models.Review{{Rating: 5}, {Rating: 5}},
			NeurodivergentMentions: []models.Mention{
				{Keyword: "autism", Sentiment: 0.8},
				{Keyword: "anxiety", Sentiment: 0.4},
			}},
		{ID: "3", Name: "Midtown Dental", AverageRating: ptr(3.0),
			Reviews: []models.Review{{Rating: 3}},
			NeurodivergentMentions: []models.Mention{
				{Keyword: "autism", Sentiment: -0.6},
			}},
		{ID: "4", Name: "Gentle Care",
			NeurodivergentMentions: []models.Mention{
				{Keyword: "gentle dentist", Sentiment: 0.1},
			}},
	}
}

func TestInsightCounts(t *testing.T) {
	svc := NewInsightService(utils.NewLogger("error"))
	r := svc.Generate(10, sampleListings())
	if r.Processed != 10 {
		t.Errorf("Processed: got %d, want 10", r.Processed)
	}
	if r.Retained != 3 {
		t.Errorf("Retained: got %d, want 3", r.Retained)
	}
	if r.TotalReviews != 3 {
		t.Errorf("TotalReviews: got %d, want 3", r.TotalReviews)
	}
	if r.TotalMentions != 4 {
		t.Errorf("TotalMentions: got %d, want 4", r.TotalMentions)
	}
}

func TestInsightKeywordSentiment(t *testing.T) {
	svc := NewInsightService(utils.NewLogger("error"))
	r := svc.Generate(3, sampleListings())
	if r.MentionsByKeyword["autism"] != 2 {
		t.Errorf("autism count: got %d, want 2", r.MentionsByKeyword["autism"])
	}
	if r.SentimentByKeyword["autism"] != 0.1 {
		t.Errorf("autism sentiment: got %.2f, want 0.10", r.SentimentByKeyword["autism"])
	}
}

func TestInsightExtremes(t *testing.T) {
	svc := NewInsightService(utils.NewLogger("error"))
	r := svc.Generate(3, sampleListings())
	if r.MostPositive == nil || r.MostPositive.Name != "Calm Smiles" {
		t.Errorf("MostPositive: got %+v, want Calm Smiles", r.MostPositive)
	}
	if r.MostNegative == nil || r.MostNegative.Name != "Midtown Dental" {
		t.Errorf("MostNegative: got %+v, want Midtown Dental", r.MostNegative)
	}
}

func TestInsightTopRated(t *testing.T) {
	svc := NewInsightService(utils.NewLogger("error"))
	r := svc.Generate(3, sampleListings())
	if len(r.TopRated) != 2 {
		t.Fatalf("TopRated len: got %d, want 2", len(r.TopRated))
	}
	if *r.TopRated[0].AverageRating != 4.9 {
		t.Errorf("TopRated[0]: got %.1f, want 4.9", *r.TopRated[0].AverageRating)
	}
	if r.AverageRating != 3.95 {
		t.Errorf("AverageRating: got %.2f, want 3.95", r.AverageRating)
	}
}

func TestInsightEmptyInput(t *testing.T) {
	svc := NewInsightService(utils.NewLogger("error"))
	r := svc.Generate(5, nil)
	if r.Retained != 0 || r.Processed != 5 {
		t.Errorf("expected 0 retained / 5 processed for empty input, got %d / %d", r.Retained, r.Processed)
	}
}

package services

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"dentist-scraper/models"
	"dentist-scraper/utils"
)

type InsightService struct {
	logger *utils.Logger
}

func NewInsightService(logger *utils.Logger) *InsightService {
	return &InsightService{logger: logger}
}

// Generate summarises the accepted listings of a session. processed is the
// number of feed items whose extraction was attempted.
func (s *InsightService) Generate(processed int, listings []*models.Listing) *models.InsightReport {
	report := &models.InsightReport{
		Processed:          processed,
		MentionsByKeyword:  make(map[string]int),
		SentimentByKeyword: make(map[string]float64),
	}

	if len(listings) == 0 {
		return report
	}

	report.Retained = len(listings)

	var rated []*models.Listing
	var ratingTotal float64
	sentimentTotals := make(map[string]float64)

	for _, l := range listings {
		report.TotalReviews += len(l.Reviews)
		if l.AverageRating != nil {
			rated = append(rated, l)
			ratingTotal += *l.AverageRating
		}
		for _, m := range l.NeurodivergentMentions {
			report.TotalMentions++
			report.MentionsByKeyword[m.Keyword]++
			sentimentTotals[m.Keyword] += m.Sentiment
		}
		if len(l.NeurodivergentMentions) == 0 {
			continue
		}
		if report.MostPositive == nil || l.MeanSentiment() > report.MostPositive.MeanSentiment() {
			report.MostPositive = l
		}
		if report.MostNegative == nil || l.MeanSentiment() < report.MostNegative.MeanSentiment() {
			report.MostNegative = l
		}
	}

	for k, total := range sentimentTotals {
		report.SentimentByKeyword[k] = round2(total / float64(report.MentionsByKeyword[k]))
	}

	if len(rated) > 0 {
		report.AverageRating = round2(ratingTotal / float64(len(rated)))
	}

	// Top 5 by average review rating
	sort.SliceStable(rated, func(i, j int) bool {
		return *rated[i].AverageRating > *rated[j].AverageRating
	})
	if len(rated) > 5 {
		report.TopRated = rated[:5]
	} else {
		report.TopRated = rated
	}

	return report
}

func (s *InsightService) Print(r *models.InsightReport) {
	sep := strings.Repeat("═", 54)
	thin := strings.Repeat("─", 54)

	fmt.Printf("\n\033[1;35m%s\033[0m\n", sep)
	fmt.Printf("\033[1;35m  🦷 NEURODIVERGENT-FRIENDLY DENTIST INSIGHTS\033[0m\n")
	fmt.Printf("\033[1;35m%s\033[0m\n\n", sep)

	// Overview
	fmt.Printf("\033[1;33m  Overview\033[0m\n")
	fmt.Printf("  %s\n", thin)
	fmt.Printf("  Listings processed : \033[1m%d\033[0m\n", r.Processed)
	fmt.Printf("  Listings retained  : \033[1m%d\033[0m\n", r.Retained)
	fmt.Printf("  Reviews collected  : \033[1m%d\033[0m\n", r.TotalReviews)
	fmt.Printf("  Mentions found     : \033[1m%d\033[0m\n", r.TotalMentions)
	if r.AverageRating > 0 {
		fmt.Printf("  Average rating     : \033[1;32m%.2f ★\033[0m\n", r.AverageRating)
	}
	fmt.Println()

	// Mentions by keyword
	fmt.Printf("\033[1;33m  Mentions by Keyword\033[0m\n")
	fmt.Printf("  %s\n", thin)
	if len(r.MentionsByKeyword) == 0 {
		fmt.Printf("  No mentions found\n")
	} else {
		type kwCount struct {
			keyword string
			count   int
		}
		var kws []kwCount
		for k, cnt := range r.MentionsByKeyword {
			kws = append(kws, kwCount{k, cnt})
		}
		sort.Slice(kws, func(i, j int) bool {
			if kws[i].count == kws[j].count {
				return kws[i].keyword < kws[j].keyword
			}
			return kws[i].count > kws[j].count
		})
		for _, kc := range kws {
			bar := strings.Repeat("█", kc.count)
			score := r.SentimentByKeyword[kc.keyword]
			fmt.Printf("  %-28s %s (%d) %+.2f %s\n",
				truncate(kc.keyword, 26), bar, kc.count, score, SentimentLabel(score))
		}
	}
	fmt.Println()

	if r.MostPositive != nil {
		fmt.Printf("\033[1;33m  Most Positive Mentions\033[0m\n")
		fmt.Printf("  %s\n", thin)
		fmt.Printf("  %s\n", truncate(r.MostPositive.Name, 50))
		fmt.Printf("  Address   : %s\n", r.MostPositive.Address)
		fmt.Printf("  Sentiment : \033[1;32m%+.2f\033[0m\n", r.MostPositive.MeanSentiment())
		fmt.Println()
	}

	if r.MostNegative != nil && r.MostNegative != r.MostPositive {
		fmt.Printf("\033[1;33m  Most Negative Mentions\033[0m\n")
		fmt.Printf("  %s\n", thin)
		fmt.Printf("  %s\n", truncate(r.MostNegative.Name, 50))
		fmt.Printf("  Address   : %s\n", r.MostNegative.Address)
		fmt.Printf("  Sentiment : \033[1;31m%+.2f\033[0m\n", r.MostNegative.MeanSentiment())
		fmt.Println()
	}

	// ── TOP 5 HIGHEST RATED ──────────────────────────────────────────────
	fmt.Printf("\033[1;33m  Top 5 Highest Rated Dentists\033[0m\n")
	fmt.Printf("  %s\n", thin)
	if len(r.TopRated) == 0 {
		fmt.Printf("  No rated listings found\n")
	} else {
		for i, l := range r.TopRated {
			fmt.Printf("  \033[1m%d.\033[0m %-40s \033[1;32m%.1f ★\033[0m\n",
				i+1, truncate(l.Name, 38), *l.AverageRating)
		}
	}

	fmt.Printf("\n\033[1;35m%s\033[0m\n\n", sep)
}

func round2(f float64) float64 {
	return math.Round(f*100) / 100
}

func truncate(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max-3]) + "..."
}

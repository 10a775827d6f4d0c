package services

import (
	"strings"

	"github.com/jonreiter/govader"
)

// Scorer rates the polarity of a text in [-1, 1].
type Scorer interface {
	Polarity(text string) float64
}

// VaderScorer scores text with the VADER compound score.
type VaderScorer struct {
	analyzer *govader.SentimentIntensityAnalyzer
}

// NewVaderScorer builds a scorer around a fresh VADER analyzer.
func NewVaderScorer() *VaderScorer {
	return &VaderScorer{analyzer: govader.NewSentimentIntensityAnalyzer()}
}

// Polarity returns the compound score of text, 0 for blank input.
func (v *VaderScorer) Polarity(text string) float64 {
	text = strings.Join(strings.Fields(text), " ")
	if text == "" {
		return 0
	}
	score := v.analyzer.PolarityScores(text).Compound
	switch {
	case score > 1:
		return 1
	case score < -1:
		return -1
	}
	return score
}

// SentimentLabel buckets a polarity score the same way across reports.
func SentimentLabel(score float64) string {
	switch {
	case score >= 0.20:
		return "positive"
	case score <= -0.20:
		return "negative"
	default:
		return "neutral"
	}
}

package services

import (
	"dentist-scraper/models"
)

// MentionAnalyzer turns free text into sentiment-scored mentions.
type MentionAnalyzer struct {
	matcher *Matcher
	scorer  Scorer
}

// NewMentionAnalyzer combines a matcher and a scorer.
func NewMentionAnalyzer(matcher *Matcher, scorer Scorer) *MentionAnalyzer {
	return &MentionAnalyzer{matcher: matcher, scorer: scorer}
}

// Analyze returns one Mention per lexicon term found in text, each tagged
// with source and scored on its context window.
func (a *MentionAnalyzer) Analyze(text, source string) []models.Mention {
	matches := a.matcher.FindAll(text)
	if len(matches) == 0 {
		return nil
	}

	mentions := make([]models.Mention, 0, len(matches))
	for _, m := range matches {
		mentions = append(mentions, models.Mention{
			Keyword:   m.Keyword,
			Context:   m.Context,
			Sentiment: a.scorer.Polarity(m.Context),
			Source:    source,
		})
	}
	return mentions
}

// AnalyzeListing scans the description and every review of l and stores the
// resulting mentions on it.
func (a *MentionAnalyzer) AnalyzeListing(l *models.Listing) {
	var mentions []models.Mention
	mentions = append(mentions, a.Analyze(l.Description, models.DescriptionSource)...)
	for _, r := range l.Reviews {
		mentions = append(mentions, a.Analyze(r.Comment, models.ReviewMentionSource(r.ID))...)
	}
	l.NeurodivergentMentions = mentions
}

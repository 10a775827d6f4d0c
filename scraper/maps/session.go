package maps

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"dentist-scraper/browser"
	"dentist-scraper/config"
	"dentist-scraper/models"
	"dentist-scraper/services"
	"dentist-scraper/utils"
)

// State is the phase a Session is in.
type State int

const (
	StateIdle State = iota
	StateSearching
	StateScrollingListings
	StateExtractingListing
	StateDone
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateSearching:
		return "searching"
	case StateScrollingListings:
		return "scrolling-listings"
	case StateExtractingListing:
		return "extracting-listing"
	case StateDone:
		return "done"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// Session runs one search and walks its result feed in order, keeping the
// listings that mention a lexicon term.
type Session struct {
	driver    browser.Driver
	cfg       *config.Config
	extractor *Extractor
	feed      *FeedLoader
	logger    *utils.Logger

	state State
}

// NewSession wires a Session and its Extractor to driver.
func NewSession(driver browser.Driver, cfg *config.Config, analyzer *services.MentionAnalyzer, logger *utils.Logger) *Session {
	return &Session{
		driver:    driver,
		cfg:       cfg,
		extractor: NewExtractor(driver, cfg, analyzer, logger),
		feed: &FeedLoader{
			Driver:    driver,
			Pause:     cfg.ScrollPause,
			Stability: 1,
		},
		logger: logger,
	}
}

// State returns the phase the session is currently in.
func (s *Session) State() State {
	return s.state
}

// Run executes the session. It never fails as a whole: whatever was
// accepted before a timeout, a cancelled ctx or a broken feed is returned.
func (s *Session) Run(ctx context.Context) *models.SessionResult {
	result := &models.SessionResult{
		RunID:     uuid.New(),
		Query:     s.cfg.SearchQuery,
		StartedAt: time.Now(),
		Listings:  []*models.Listing{},
	}
	defer func() {
		s.transition(StateDone)
		result.FinishedAt = time.Now()
		s.logger.Info("[maps] Run %s finished: processed %d, retained %d, skipped %d, discarded %d",
			result.RunID, result.Processed, result.Retained(), result.Skipped, result.Discarded)
	}()

	s.transition(StateSearching)
	feed, err := s.search(ctx)
	if err != nil {
		s.logger.Error("[maps] Search %q produced no feed: %v", s.cfg.SearchQuery, err)
		return result
	}

	s.transition(StateScrollingListings)
	loaded, err := s.feed.Load(ctx, feed, FeedItemSelector, s.cfg.MaxResults)
	if err != nil {
		s.logger.Warn("[maps] Feed loading stopped early: %v", err)
	}
	result.Discovered = min(loaded, s.cfg.MaxResults)
	s.logger.Info("[maps] Found %d results for %q", result.Discovered, s.cfg.SearchQuery)

	seq := models.NewSequence()
	for i := 0; i < result.Discovered; i++ {
		if ctx.Err() != nil {
			s.logger.Warn("[maps] Stopping before item %d: %v", i+1, ctx.Err())
			break
		}
		s.transition(StateExtractingListing)

		item, err := s.item(ctx, i)
		if err != nil && ctx.Err() != nil {
			s.logger.Warn("[maps] Stopping at item %d: %v", i+1, ctx.Err())
			break
		}
		result.Processed++
		if err != nil {
			result.Skipped++
			s.logger.Warn("[maps] Item %d could not be re-acquired, skipping: %v", i+1, err)
			continue
		}

		l, err := s.visit(ctx, item, seq)
		switch {
		case errors.Is(err, browser.ErrStale):
			result.Skipped++
			s.logger.Warn("[maps] Item %d went stale, skipping", i+1)
		case errors.Is(err, ErrMissingName):
			result.Skipped++
			s.logger.Warn("[maps] Item %d has no name, skipping", i+1)
		case err != nil:
			result.Skipped++
			s.logger.Warn("[maps] Item %d failed: %v", i+1, err)
		case l.HasMentions():
			result.Listings = append(result.Listings, l)
			s.logger.Info("[maps] Added %s (%d mentions)", l.Name, len(l.NeurodivergentMentions))
		default:
			result.Discarded++
			s.logger.Info("[maps] Skipped %s (no neurodivergent mentions)", l.Name)
		}
	}
	return result
}

// search opens the results page for the configured query and waits for the
// feed to appear.
func (s *Session) search(ctx context.Context) (browser.Element, error) {
	u := SearchURL(s.cfg.SearchQuery)
	s.logger.Info("[maps] Searching: %s", u)
	if err := s.driver.Navigate(ctx, u); err != nil {
		return browser.Element{}, fmt.Errorf("navigate: %w", err)
	}
	return s.driver.WaitFor(ctx, FeedSelector, s.cfg.WaitTimeout)
}

// item re-acquires the i-th feed entry from the current view.
func (s *Session) item(ctx context.Context, i int) (browser.Element, error) {
	feed, err := s.driver.Find(ctx, nil, FeedSelector)
	if err != nil {
		return browser.Element{}, err
	}
	items, err := s.driver.FindAll(ctx, &feed, FeedItemSelector)
	if err != nil {
		return browser.Element{}, err
	}
	if i >= len(items) {
		return browser.Element{}, fmt.Errorf("%w: feed now holds %d items", browser.ErrNotFound, len(items))
	}
	return items[i], nil
}

// visit opens item, extracts it and returns to the feed.
func (s *Session) visit(ctx context.Context, item browser.Element, seq *models.Sequence) (l *models.Listing, err error) {
	if err := s.driver.Click(ctx, item); err != nil {
		return nil, err
	}
	defer func() {
		if backErr := s.driver.Back(ctx); backErr != nil && err == nil {
			err = fmt.Errorf("return to feed: %w", backErr)
			l = nil
		}
		_ = sleep(ctx, s.cfg.BackPause)
	}()

	if err := sleep(ctx, s.cfg.SettlePause); err != nil {
		return nil, err
	}
	return s.extractor.Extract(ctx, seq)
}

func (s *Session) transition(to State) {
	if s.state == to {
		return
	}
	s.logger.Debug("[maps] %s → %s", s.state, to)
	s.state = to
}

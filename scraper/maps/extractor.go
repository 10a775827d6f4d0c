package maps

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"dentist-scraper/browser"
	"dentist-scraper/config"
	"dentist-scraper/models"
	"dentist-scraper/services"
	"dentist-scraper/utils"
)

// ErrMissingName is returned when the place panel has no readable name.
var ErrMissingName = errors.New("listing has no name")

const (
	minReviewLength  = 10
	anonymousAuthor  = "Anonymous"
	descriptionStart = "Dental practice located in "
)

// Extractor reads the place panel that is currently open in the driver.
type Extractor struct {
	driver   browser.Driver
	cfg      *config.Config
	analyzer *services.MentionAnalyzer
	reviews  *FeedLoader
	logger   *utils.Logger
	now      func() time.Time
}

// NewExtractor creates an Extractor bound to driver.
func NewExtractor(driver browser.Driver, cfg *config.Config, analyzer *services.MentionAnalyzer, logger *utils.Logger) *Extractor {
	return &Extractor{
		driver:   driver,
		cfg:      cfg,
		analyzer: analyzer,
		reviews: &FeedLoader{
			Driver:    driver,
			Pause:     cfg.ReviewScrollPause,
			Stability: cfg.ReviewStableScrolls,
		},
		logger: logger,
		now:    time.Now,
	}
}

// Extract builds a fully populated listing from the open place panel. Every
// field except the name falls back to a default when it cannot be read.
// Stale elements and context errors are returned to the caller.
func (e *Extractor) Extract(ctx context.Context, seq *models.Sequence) (*models.Listing, error) {
	nameEl, err := e.driver.WaitFor(ctx, NameSelector, e.cfg.WaitTimeout)
	if err != nil {
		if errors.Is(err, browser.ErrTimeout) {
			return nil, ErrMissingName
		}
		return nil, err
	}
	name, err := e.driver.Text(ctx, nameEl)
	if err != nil {
		return nil, fmt.Errorf("read name: %w", err)
	}
	name = services.NormaliseText(name)
	if name == "" {
		return nil, ErrMissingName
	}

	l := &models.Listing{
		ID:        seq.Next(),
		Name:      name,
		Category:  models.Category,
		Latitude:  e.cfg.FallbackLatitude,
		Longitude: e.cfg.FallbackLongitude,
		Reviews:   []models.Review{},
	}

	if err := e.readContactFields(ctx, l); err != nil {
		return nil, err
	}

	if u, err := e.driver.CurrentURL(ctx); err == nil {
		l.SourceURL = u
		if lat, lon, err := services.ParseCoordinates(u); err == nil {
			l.Latitude, l.Longitude = lat, lon
		} else {
			e.logger.Debug("[maps] %s: using fallback coordinates: %v", l.Name, err)
		}
	}

	description, err := e.readDescription(ctx)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		if errors.Is(err, browser.ErrStale) {
			return nil, fmt.Errorf("read description: %w", err)
		}
		e.logger.Warn("[maps] %s: description unavailable: %v", l.Name, err)
		description = ""
	}
	if description == "" {
		description = descriptionStart + l.Address + "."
	}
	l.Description = description
	l.ShortDescription = models.ShortDescription(description)

	hours, err := e.readHours(ctx)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		if errors.Is(err, browser.ErrStale) {
			return nil, fmt.Errorf("read hours: %w", err)
		}
		e.logger.Debug("[maps] %s: using default hours: %v", l.Name, err)
		hours = models.DefaultHours()
	}
	l.Hours = hours

	reviews, err := e.readReviews(ctx, l.ID)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		if errors.Is(err, browser.ErrStale) {
			return nil, fmt.Errorf("read reviews: %w", err)
		}
		e.logger.Warn("[maps] %s: reviews incomplete: %v", l.Name, err)
	}
	l.Reviews = reviews

	l.ComputeAverageRating()
	e.analyzer.AnalyzeListing(l)
	return l, nil
}

// readContactFields fills address, phone, website and the place-level
// rating labels. Missing elements leave the zero value.
func (e *Extractor) readContactFields(ctx context.Context, l *models.Listing) error {
	var err error
	if l.Address, err = e.text(ctx, nil, AddressSelector); err != nil {
		return fmt.Errorf("read address: %w", err)
	}
	if l.Phone, err = e.text(ctx, nil, PhoneSelector); err != nil {
		return fmt.Errorf("read phone: %w", err)
	}

	website, err := e.attr(ctx, nil, WebsiteSelector, "href")
	if err != nil {
		return fmt.Errorf("read website: %w", err)
	}
	if website != "" {
		l.Website = &website
	}

	label, err := e.attr(ctx, nil, RatingSelector, "aria-label")
	if err != nil {
		return fmt.Errorf("read rating: %w", err)
	}
	if label != "" {
		if l.PlaceRating, err = services.ParseStarLabel(label); err != nil {
			e.logger.Debug("[maps] %s: %v", l.Name, err)
		}
	}

	count, err := e.text(ctx, nil, ReviewCountSelector)
	if err != nil {
		return fmt.Errorf("read review count: %w", err)
	}
	if count != "" {
		if l.ReviewCount, err = services.ParseReviewCount(count); err != nil {
			e.logger.Debug("[maps] %s: %v", l.Name, err)
		}
	}
	return nil
}

// readDescription opens the About tab and joins the text of its regions.
func (e *Extractor) readDescription(ctx context.Context) (string, error) {
	var parts []string
	_, err := e.withPanel(ctx, AboutTabSelector, func() error {
		regions, err := e.driver.FindAll(ctx, nil, AboutRegionSelector)
		if err != nil {
			return err
		}
		for _, region := range regions {
			html, err := e.driver.HTML(ctx, region)
			if err != nil {
				return err
			}
			if text := services.JoinedText(html); text != "" {
				parts = append(parts, text)
			}
		}
		return nil
	})
	if err != nil {
		return "", err
	}
	return strings.Join(parts, " "), nil
}

// readHours opens the hours view and parses its table.
func (e *Extractor) readHours(ctx context.Context) (map[string]string, error) {
	var hours map[string]string
	opened, err := e.withPanel(ctx, HoursButtonSelector, func() error {
		table, err := e.driver.Find(ctx, nil, HoursTableSelector)
		if err != nil {
			return err
		}
		html, err := e.driver.HTML(ctx, table)
		if err != nil {
			return err
		}
		hours, err = parseHoursTable(html)
		return err
	})
	if err != nil {
		return nil, err
	}
	if !opened {
		return nil, fmt.Errorf("%w: hours button", browser.ErrNotFound)
	}
	return hours, nil
}

// readReviews opens the Reviews tab, scrolls its feed and parses up to
// MaxReviews cards. Reviews parsed before an error are still returned.
func (e *Extractor) readReviews(ctx context.Context, listingID string) ([]models.Review, error) {
	reviews := []models.Review{}
	_, err := e.withPanel(ctx, ReviewsTabSelector, func() error {
		feed, err := e.driver.Find(ctx, nil, FeedSelector)
		if err != nil {
			return err
		}
		if _, err := e.reviews.Load(ctx, feed, ReviewItemSelector, e.cfg.MaxReviews); err != nil {
			return err
		}
		cards, err := e.driver.FindAll(ctx, &feed, ReviewItemSelector)
		if err != nil {
			return err
		}
		if len(cards) > e.cfg.MaxReviews {
			cards = cards[:e.cfg.MaxReviews]
		}

		for _, card := range cards {
			r, ok, err := e.readReview(ctx, card)
			if err != nil {
				if ctx.Err() != nil {
					return ctx.Err()
				}
				if errors.Is(err, browser.ErrStale) {
					return err
				}
				e.logger.Debug("[maps] review card %s skipped: %v", card, err)
				continue
			}
			if !ok {
				continue
			}
			r.ID = models.ReviewID(listingID, len(reviews)+1)
			r.ServiceID = listingID
			reviews = append(reviews, r)
		}
		return nil
	})
	return reviews, err
}

// readReview parses one review card. ok is false for cards whose comment is
// too short to be a review.
func (e *Extractor) readReview(ctx context.Context, card browser.Element) (models.Review, bool, error) {
	comment, err := e.text(ctx, &card, ReviewTextSelector)
	if err != nil {
		return models.Review{}, false, err
	}
	if utf8.RuneCountInString(comment) < minReviewLength {
		return models.Review{}, false, nil
	}

	r := models.Review{
		Comment: comment,
		Author:  anonymousAuthor,
		Source:  models.ReviewSource,
	}

	label, err := e.attr(ctx, &card, ReviewStarsSelector, "aria-label")
	if err != nil {
		return models.Review{}, false, err
	}
	if label != "" {
		r.Rating, _ = services.ParseReviewStars(label)
	}

	author, err := e.text(ctx, &card, ReviewAuthorSelector)
	if err != nil {
		return models.Review{}, false, err
	}
	if author != "" {
		r.Author = author
	}

	phrase, err := e.text(ctx, &card, ReviewDateSelector)
	if err != nil {
		return models.Review{}, false, err
	}
	r.Date = services.FormatReviewDate(phrase, e.now())

	return r, true, nil
}

// withPanel clicks the tab matching tabSel, runs read on the view it opens,
// and navigates back. It reports false without error when there is no tab.
func (e *Extractor) withPanel(ctx context.Context, tabSel string, read func() error) (bool, error) {
	tab, err := e.driver.Find(ctx, nil, tabSel)
	if err != nil {
		return false, absent(err)
	}
	if err := e.driver.Click(ctx, tab); err != nil {
		return false, fmt.Errorf("open %s: %w", tabSel, err)
	}

	readErr := sleep(ctx, e.cfg.PanelPause)
	if readErr == nil {
		readErr = read()
	}
	if err := e.driver.Back(ctx); err != nil && readErr == nil {
		readErr = fmt.Errorf("leave %s: %w", tabSel, err)
	}
	if err := sleep(ctx, e.cfg.PanelPause); err != nil && readErr == nil {
		readErr = err
	}
	return true, readErr
}

// text returns the normalised text of the first sel match under scope, or ""
// when nothing matches.
func (e *Extractor) text(ctx context.Context, scope *browser.Element, sel string) (string, error) {
	el, err := e.driver.Find(ctx, scope, sel)
	if err != nil {
		return "", absent(err)
	}
	s, err := e.driver.Text(ctx, el)
	if err != nil {
		return "", absent(err)
	}
	return services.NormaliseText(s), nil
}

// attr returns an attribute of the first sel match under scope, or "" when
// either the element or the attribute is missing.
func (e *Extractor) attr(ctx context.Context, scope *browser.Element, sel, name string) (string, error) {
	el, err := e.driver.Find(ctx, scope, sel)
	if err != nil {
		return "", absent(err)
	}
	v, err := e.driver.Attribute(ctx, el, name)
	if err != nil {
		return "", absent(err)
	}
	return strings.TrimSpace(v), nil
}

func absent(err error) error {
	if errors.Is(err, browser.ErrNotFound) {
		return nil
	}
	return err
}

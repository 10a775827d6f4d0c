package services

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"unicode"

	"dentist-scraper/models"
	"dentist-scraper/utils"
)

// ErrParse marks label text that could not be turned into a value.
var ErrParse = errors.New("parse error")

var (
	// starsRegexp captures the decimal in a "4.8 stars" accessible label
	starsRegexp = regexp.MustCompile(`([\d.]+)\s*stars?`)
	// reviewStarsRegexp captures the integer in a " 5 stars " review label
	reviewStarsRegexp = regexp.MustCompile(`(\d+)\s*stars?`)
	// coordsRegexp captures the "@lat,lon" segment of a maps URL
	coordsRegexp = regexp.MustCompile(`@(-?[\d.]+),(-?[\d.]+)`)
	// nonDigitRegexp strips review-count decoration like "(1,234)"
	nonDigitRegexp = regexp.MustCompile(`\D`)
)

// ParseStarLabel extracts the place rating from a label like "4.8 stars".
func ParseStarLabel(label string) (float64, error) {
	m := starsRegexp.FindStringSubmatch(label)
	if len(m) < 2 {
		return 0, fmt.Errorf("%w: no star rating in %q", ErrParse, label)
	}
	val, err := strconv.ParseFloat(m[1], 64)
	if err != nil || val < 0 || val > 5 {
		return 0, fmt.Errorf("%w: star rating %q out of range", ErrParse, m[1])
	}
	return val, nil
}

// ParseReviewStars extracts an integer 0–5 review rating from a label like
// "5 stars".
func ParseReviewStars(label string) (int, error) {
	m := reviewStarsRegexp.FindStringSubmatch(label)
	if len(m) < 2 {
		return 0, fmt.Errorf("%w: no review stars in %q", ErrParse, label)
	}
	val, err := strconv.Atoi(m[1])
	if err != nil || val < 0 || val > 5 {
		return 0, fmt.Errorf("%w: review stars %q out of range", ErrParse, m[1])
	}
	return val, nil
}

// ParseReviewCount strips everything but digits: "(1,234)" → 1234.
func ParseReviewCount(text string) (int, error) {
	digits := nonDigitRegexp.ReplaceAllString(text, "")
	if digits == "" {
		return 0, fmt.Errorf("%w: no digits in %q", ErrParse, text)
	}
	n, err := strconv.Atoi(digits)
	if err != nil {
		return 0, fmt.Errorf("%w: review count %q: %v", ErrParse, digits, err)
	}
	return n, nil
}

// ParseCoordinates reads the "@lat,lon" pair out of a maps URL.
func ParseCoordinates(rawURL string) (lat, lon float64, err error) {
	m := coordsRegexp.FindStringSubmatch(rawURL)
	if len(m) < 3 {
		return 0, 0, fmt.Errorf("%w: no coordinates in %q", ErrParse, rawURL)
	}
	lat, err = strconv.ParseFloat(m[1], 64)
	if err != nil {
		return 0, 0, fmt.Errorf("%w: latitude %q", ErrParse, m[1])
	}
	lon, err = strconv.ParseFloat(m[2], 64)
	if err != nil {
		return 0, 0, fmt.Errorf("%w: longitude %q", ErrParse, m[2])
	}
	if lat < -90 || lat > 90 || lon < -180 || lon > 180 {
		return 0, 0, fmt.Errorf("%w: coordinates %v,%v out of range", ErrParse, lat, lon)
	}
	return lat, lon, nil
}

// Cleaner tidies accepted listings before they are written out.
type Cleaner struct {
	logger *utils.Logger
}

// NewCleaner creates a Cleaner with the given logger.
func NewCleaner(logger *utils.Logger) *Cleaner {
	return &Cleaner{logger: logger}
}

// Clean drops listings that repeat an earlier name+address pair, compared
// case- and whitespace-insensitively. Kept listings are not modified.
func (c *Cleaner) Clean(listings []*models.Listing) []*models.Listing {
	seen := make(map[string]struct{})
	result := make([]*models.Listing, 0, len(listings))

	for _, l := range listings {
		key := strings.ToLower(NormaliseText(l.Name) + "|" + NormaliseText(l.Address))
		if _, dup := seen[key]; dup {
			c.logger.Debug("[cleaner] Duplicate listing skipped: %s (%s)", l.Name, l.Address)
			continue
		}
		seen[key] = struct{}{}

		result = append(result, l)
	}

	c.logger.Info("[cleaner] Cleaned %d → %d listings (dropped %d)",
		len(listings), len(result), len(listings)-len(result))
	return result
}

// NormaliseText strips leading/trailing whitespace and collapses internal whitespace.
func NormaliseText(s string) string {
	fields := strings.FieldsFunc(s, func(r rune) bool {
		return unicode.IsSpace(r)
	})
	return strings.Join(fields, " ")
}

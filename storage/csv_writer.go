package storage

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"

	"dentist-scraper/models"
)

var csvHeader = []string{
	"id", "name", "category", "address", "phone", "website",
	"latitude", "longitude", "place_rating", "listed_reviews", "average_rating",
	"scraped_reviews", "mentions", "keywords", "mean_sentiment", "source_url",
}

// CSVWriter writes one flattened row per listing to a CSV file.
// It is safe for concurrent use.
type CSVWriter struct {
	mu     sync.Mutex
	file   *os.File
	writer *csv.Writer
}

// NewCSVWriter creates (or truncates) the CSV file at the given path and
// writes the header row. Intermediate directories are created automatically.
func NewCSVWriter(path string) (*CSVWriter, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("csv: create output dir: %w", err)
	}

	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("csv: create file %q: %w", path, err)
	}

	w := csv.NewWriter(f)

	// Write header
	if err := w.Write(csvHeader); err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("csv: write header: %w", err)
	}
	w.Flush()

	return &CSVWriter{file: f, writer: w}, nil
}

// Write appends one row per listing.
func (c *CSVWriter) Write(listings []*models.Listing) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	for _, l := range listings {
		if err := c.writer.Write(csvRow(l)); err != nil {
			return fmt.Errorf("csv: write row: %w", err)
		}
	}

	c.writer.Flush()
	return c.writer.Error()
}

// Close flushes and closes the underlying file.
func (c *CSVWriter) Close() error {
	c.writer.Flush()
	return c.file.Close()
}

func csvRow(l *models.Listing) []string {
	website := ""
	if l.Website != nil {
		website = *l.Website
	}
	avg := ""
	if l.AverageRating != nil {
		avg = formatFloat(*l.AverageRating)
	}

	keywords := make([]string, 0, len(l.NeurodivergentMentions))
	seen := make(map[string]bool)
	for _, m := range l.NeurodivergentMentions {
		if !seen[m.Keyword] {
			seen[m.Keyword] = true
			keywords = append(keywords, m.Keyword)
		}
	}

	return []string{
		l.ID,
		l.Name,
		l.Category,
		l.Address,
		l.Phone,
		website,
		formatFloat(l.Latitude),
		formatFloat(l.Longitude),
		formatFloat(l.PlaceRating),
		strconv.Itoa(l.ReviewCount),
		avg,
		strconv.Itoa(len(l.Reviews)),
		strconv.Itoa(len(l.NeurodivergentMentions)),
		strings.Join(keywords, "; "),
		strconv.FormatFloat(l.MeanSentiment(), 'f', 3, 64),
		l.SourceURL,
	}
}

func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}

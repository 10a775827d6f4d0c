package storage

import (
	"cmp"
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"

	"dentist-scraper/models"
	"dentist-scraper/utils"
)

const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite3"
)

const batchSize = 50

const schema = `
	CREATE TABLE IF NOT EXISTS runs (
		id          TEXT PRIMARY KEY,
		query       TEXT      NOT NULL,
		started_at  TIMESTAMP NOT NULL,
		finished_at TIMESTAMP NOT NULL,
		discovered  INTEGER   NOT NULL DEFAULT 0,
		processed   INTEGER   NOT NULL DEFAULT 0,
		retained    INTEGER   NOT NULL DEFAULT 0,
		skipped     INTEGER   NOT NULL DEFAULT 0,
		discarded   INTEGER   NOT NULL DEFAULT 0
	);

	CREATE TABLE IF NOT EXISTS listings (
		run_id            TEXT             NOT NULL REFERENCES runs(id),
		id                TEXT             NOT NULL,
		name              TEXT             NOT NULL,
		description       TEXT             NOT NULL DEFAULT '',
		short_description TEXT             NOT NULL DEFAULT '',
		category          TEXT             NOT NULL,
		address           TEXT             NOT NULL DEFAULT '',
		latitude          DOUBLE PRECISION NOT NULL,
		longitude         DOUBLE PRECISION NOT NULL,
		phone             TEXT             NOT NULL DEFAULT '',
		website           TEXT,
		hours             TEXT             NOT NULL,
		average_rating    DOUBLE PRECISION,
		place_rating      DOUBLE PRECISION NOT NULL DEFAULT 0,
		review_count      INTEGER          NOT NULL DEFAULT 0,
		source_url        TEXT             NOT NULL DEFAULT '',
		PRIMARY KEY (run_id, id)
	);

	CREATE TABLE IF NOT EXISTS reviews (
		run_id     TEXT    NOT NULL,
		id         TEXT    NOT NULL,
		listing_id TEXT    NOT NULL,
		rating     INTEGER NOT NULL,
		comment    TEXT    NOT NULL,
		author     TEXT    NOT NULL,
		source     TEXT    NOT NULL,
		date       TEXT    NOT NULL,
		PRIMARY KEY (run_id, id)
	);

	CREATE TABLE IF NOT EXISTS mentions (
		run_id     TEXT             NOT NULL,
		listing_id TEXT             NOT NULL,
		position   INTEGER          NOT NULL,
		keyword    TEXT             NOT NULL,
		context    TEXT             NOT NULL,
		sentiment  DOUBLE PRECISION NOT NULL,
		source     TEXT             NOT NULL,
		PRIMARY KEY (run_id, listing_id, position)
	);

	CREATE INDEX IF NOT EXISTS idx_mentions_keyword ON mentions(keyword);
	CREATE INDEX IF NOT EXISTS idx_reviews_listing  ON reviews(run_id, listing_id);
`

var _ RunWriter = (*SQLWriter)(nil)

// SQLWriter persists sessions to PostgreSQL or SQLite. Every run keeps its
// own rows, keyed by the run id.
type SQLWriter struct {
	db     *sql.DB
	driver string
}

// NewSQLWriter opens the database, waits for it to answer, runs schema
// migrations, and returns a ready-to-use SQLWriter. For SQLite the dsn is a
// file path whose directory is created if needed.
func NewSQLWriter(ctx context.Context, driver, dsn string, logger *utils.Logger) (*SQLWriter, error) {
	switch driver {
	case DriverPostgres:
	case DriverSQLite, "sqlite":
		driver = DriverSQLite
		if err := os.MkdirAll(filepath.Dir(dsn), 0755); err != nil {
			return nil, fmt.Errorf("sql: create db dir: %w", err)
		}
	default:
		return nil, fmt.Errorf("sql: unsupported driver %q", driver)
	}

	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("%s: open: %w", driver, err)
	}
	if driver == DriverSQLite {
		db.SetMaxOpenConns(1)
	}

	ping := &utils.RetryConfig{MaxAttempts: 10, BaseDelay: 500 * time.Millisecond, Logger: logger}
	if err := ping.Do(ctx, driver+" ping", func() error { return db.PingContext(ctx) }); err != nil {
		_ = db.Close()
		return nil, err
	}

	w := &SQLWriter{db: db, driver: driver}
	if err := w.migrate(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("%s: migrate: %w", driver, err)
	}
	return w, nil
}

func (w *SQLWriter) migrate(ctx context.Context) error {
	_, err := w.db.ExecContext(ctx, schema)
	return err
}

// WriteRun stores the run row and every accepted listing with its reviews
// and mentions in one transaction.
func (w *SQLWriter) WriteRun(ctx context.Context, result *models.SessionResult) error {
	tx, err := w.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("%s: begin: %w", w.driver, err)
	}
	defer func() { _ = tx.Rollback() }()

	runID := result.RunID.String()
	if err := w.insert(ctx, tx, "runs",
		[]string{"id", "query", "started_at", "finished_at", "discovered", "processed", "retained", "skipped", "discarded"},
		[][]any{{runID, result.Query, result.StartedAt.UTC(), result.FinishedAt.UTC(),
			result.Discovered, result.Processed, result.Retained(), result.Skipped, result.Discarded}},
	); err != nil {
		return err
	}

	var listings, reviews, mentions [][]any
	for _, l := range result.Listings {
		hours, err := json.Marshal(l.Hours)
		if err != nil {
			return fmt.Errorf("%s: encode hours of %s: %w", w.driver, l.ID, err)
		}
		listings = append(listings, []any{
			runID, l.ID, l.Name, l.Description, l.ShortDescription, l.Category, l.Address,
			l.Latitude, l.Longitude, l.Phone, l.Website, string(hours), l.AverageRating,
			l.PlaceRating, l.ReviewCount, l.SourceURL,
		})
		for _, r := range l.Reviews {
			reviews = append(reviews, []any{runID, r.ID, l.ID, r.Rating, r.Comment, r.Author, r.Source, r.Date})
		}
		for i, m := range l.NeurodivergentMentions {
			mentions = append(mentions, []any{runID, l.ID, i, m.Keyword, m.Context, m.Sentiment, m.Source})
		}
	}

	if err := w.insert(ctx, tx, "listings",
		[]string{"run_id", "id", "name", "description", "short_description", "category", "address",
			"latitude", "longitude", "phone", "website", "hours", "average_rating",
			"place_rating", "review_count", "source_url"},
		listings,
	); err != nil {
		return err
	}
	if err := w.insert(ctx, tx, "reviews",
		[]string{"run_id", "id", "listing_id", "rating", "comment", "author", "source", "date"},
		reviews,
	); err != nil {
		return err
	}
	if err := w.insert(ctx, tx, "mentions",
		[]string{"run_id", "listing_id", "position", "keyword", "context", "sentiment", "source"},
		mentions,
	); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("%s: commit: %w", w.driver, err)
	}
	return nil
}

// insert writes rows in batches of multi-row INSERT statements.
func (w *SQLWriter) insert(ctx context.Context, tx *sql.Tx, table string, cols []string, rows [][]any) error {
	for i := 0; i < len(rows); i += batchSize {
		end := i + batchSize
		if end > len(rows) {
			end = len(rows)
		}
		if err := w.insertBatch(ctx, tx, table, cols, rows[i:end]); err != nil {
			return fmt.Errorf("%s: insert %s: %w", w.driver, table, err)
		}
	}
	return nil
}

func (w *SQLWriter) insertBatch(ctx context.Context, tx *sql.Tx, table string, cols []string, batch [][]any) error {
	valueStrings := make([]string, 0, len(batch))
	valueArgs := make([]any, 0, len(batch)*len(cols))

	n := 0
	for _, row := range batch {
		ph := make([]string, len(row))
		for j := range row {
			n++
			ph[j] = w.placeholder(n)
		}
		valueStrings = append(valueStrings, "("+strings.Join(ph, ",")+")")
		valueArgs = append(valueArgs, row...)
	}

	query := fmt.Sprintf(`INSERT INTO %s (%s) VALUES %s ON CONFLICT DO NOTHING`,
		table, strings.Join(cols, ", "), strings.Join(valueStrings, ","))

	_, err := tx.ExecContext(ctx, query, valueArgs...)
	return err
}

func (w *SQLWriter) placeholder(n int) string {
	if w.driver == DriverPostgres {
		return fmt.Sprintf("$%d", n)
	}
	return "?"
}

// FetchListings reads back the listings of one run, with their reviews and
// mentions, in id order. It feeds the insight report.
func (w *SQLWriter) FetchListings(ctx context.Context, runID uuid.UUID) ([]*models.Listing, error) {
	id := runID.String()
	rows, err := w.db.QueryContext(ctx, w.rebind(`
		SELECT id, name, description, short_description, category, address, latitude, longitude,
		       phone, website, hours, average_rating, place_rating, review_count, source_url
		FROM listings
		WHERE run_id = ?
	`), id)
	if err != nil {
		return nil, fmt.Errorf("%s: fetch listings: %w", w.driver, err)
	}
	defer rows.Close()

	var listings []*models.Listing
	byID := make(map[string]*models.Listing)
	for rows.Next() {
		l := &models.Listing{Reviews: []models.Review{}}
		var website sql.NullString
		var avg sql.NullFloat64
		var hours string
		if err := rows.Scan(
			&l.ID, &l.Name, &l.Description, &l.ShortDescription, &l.Category, &l.Address,
			&l.Latitude, &l.Longitude, &l.Phone, &website, &hours, &avg,
			&l.PlaceRating, &l.ReviewCount, &l.SourceURL,
		); err != nil {
			return nil, fmt.Errorf("%s: scan listing: %w", w.driver, err)
		}
		if website.Valid {
			l.Website = &website.String
		}
		if avg.Valid {
			l.AverageRating = &avg.Float64
		}
		if err := json.Unmarshal([]byte(hours), &l.Hours); err != nil {
			return nil, fmt.Errorf("%s: decode hours of %s: %w", w.driver, l.ID, err)
		}
		listings = append(listings, l)
		byID[l.ID] = l
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	if err := w.fetchReviews(ctx, id, byID); err != nil {
		return nil, err
	}
	if err := w.fetchMentions(ctx, id, byID); err != nil {
		return nil, err
	}

	sortByNumericID(listings)
	return listings, nil
}

func (w *SQLWriter) fetchReviews(ctx context.Context, runID string, byID map[string]*models.Listing) error {
	rows, err := w.db.QueryContext(ctx, w.rebind(`
		SELECT id, listing_id, rating, comment, author, source, date
		FROM reviews
		WHERE run_id = ?
		ORDER BY listing_id, id
	`), runID)
	if err != nil {
		return fmt.Errorf("%s: fetch reviews: %w", w.driver, err)
	}
	defer rows.Close()

	var pending []models.Review
	for rows.Next() {
		var r models.Review
		if err := rows.Scan(&r.ID, &r.ServiceID, &r.Rating, &r.Comment, &r.Author, &r.Source, &r.Date); err != nil {
			return fmt.Errorf("%s: scan review: %w", w.driver, err)
		}
		pending = append(pending, r)
	}
	if err := rows.Err(); err != nil {
		return err
	}

	sortReviews(pending)
	for _, r := range pending {
		if l, ok := byID[r.ServiceID]; ok {
			l.Reviews = append(l.Reviews, r)
		}
	}
	return nil
}

func (w *SQLWriter) fetchMentions(ctx context.Context, runID string, byID map[string]*models.Listing) error {
	rows, err := w.db.QueryContext(ctx, w.rebind(`
		SELECT listing_id, keyword, context, sentiment, source
		FROM mentions
		WHERE run_id = ?
		ORDER BY listing_id, position
	`), runID)
	if err != nil {
		return fmt.Errorf("%s: fetch mentions: %w", w.driver, err)
	}
	defer rows.Close()

	for rows.Next() {
		var listingID string
		var m models.Mention
		if err := rows.Scan(&listingID, &m.Keyword, &m.Context, &m.Sentiment, &m.Source); err != nil {
			return fmt.Errorf("%s: scan mention: %w", w.driver, err)
		}
		if l, ok := byID[listingID]; ok {
			l.NeurodivergentMentions = append(l.NeurodivergentMentions, m)
		}
	}
	return rows.Err()
}

// rebind turns ? placeholders into the driver's form.
func (w *SQLWriter) rebind(query string) string {
	if w.driver != DriverPostgres {
		return query
	}
	var b strings.Builder
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteString(fmt.Sprintf("$%d", n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// sortByNumericID orders listings "1", "2", ... "10" by value.
func sortByNumericID(listings []*models.Listing) {
	slices.SortStableFunc(listings, func(a, b *models.Listing) int {
		return cmp.Compare(numericKey(a.ID), numericKey(b.ID))
	})
}

// sortReviews orders reviews by listing id, then by review index.
func sortReviews(reviews []models.Review) {
	slices.SortStableFunc(reviews, func(a, b models.Review) int {
		if c := cmp.Compare(numericKey(a.ServiceID), numericKey(b.ServiceID)); c != 0 {
			return c
		}
		return cmp.Compare(numericKey(a.ID[strings.LastIndex(a.ID, "-")+1:]),
			numericKey(b.ID[strings.LastIndex(b.ID, "-")+1:]))
	})
}

func numericKey(s string) int {
	n, err := strconv.Atoi(s)
	if err != nil {
		return -1
	}
	return n
}

func (w *SQLWriter) Close() error {
	return w.db.Close()
}

package maps

import (
	"context"
	"fmt"
	"time"

	"dentist-scraper/browser"
)

// FeedLoader scrolls a lazily loading container until its item count stops
// growing or reaches a cap.
type FeedLoader struct {
	Driver browser.Driver
	// Pause is the wait between a scroll and the next count.
	Pause time.Duration
	// Stability is how many consecutive unchanged counts end the loop.
	// Values below 1 are treated as 1.
	Stability int
}

// Load scrolls container and returns the number of itemSel matches it ended
// up holding. The count returned may exceed limit; callers slice.
func (l *FeedLoader) Load(ctx context.Context, container browser.Element, itemSel string, limit int) (int, error) {
	stability := l.Stability
	if stability < 1 {
		stability = 1
	}

	last, stable := -1, 0
	for {
		count, err := l.Driver.Count(ctx, container, itemSel)
		if err != nil {
			return max(last, 0), fmt.Errorf("count feed items: %w", err)
		}
		if count >= limit {
			return count, nil
		}
		if count == last {
			stable++
			if stable >= stability {
				return count, nil
			}
		} else {
			stable = 0
		}
		last = count

		if err := l.Driver.ScrollToBottom(ctx, container); err != nil {
			return count, fmt.Errorf("scroll feed: %w", err)
		}
		if err := sleep(ctx, l.Pause); err != nil {
			return count, err
		}
	}
}

// sleep waits for d or until ctx is done.
func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

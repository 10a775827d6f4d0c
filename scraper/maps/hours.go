package maps

import (
	"errors"
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"dentist-scraper/models"
	"dentist-scraper/services"
)

var errIncompleteHours = errors.New("hours table incomplete")

// parseHoursTable reads a weekly opening-hours table. Each row holds the day
// in its first cell and the hours in its second. Only a table naming all
// seven days is accepted.
func parseHoursTable(html string) (map[string]string, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, fmt.Errorf("parse hours table: %w", err)
	}

	hours := make(map[string]string, len(models.Weekdays))
	doc.Find("tr").Each(func(_ int, row *goquery.Selection) {
		cells := row.Find("td")
		if cells.Length() < 2 {
			return
		}
		day := weekdayName(services.NormaliseText(cells.Eq(0).Text()))
		if day == "" {
			return
		}
		value := hoursValue(cells.Eq(1))
		if value == "" {
			return
		}
		if _, seen := hours[day]; !seen {
			hours[day] = value
		}
	})

	if len(hours) != len(models.Weekdays) {
		return nil, fmt.Errorf("%w: %d of %d days", errIncompleteHours, len(hours), len(models.Weekdays))
	}
	return hours, nil
}

// weekdayName maps a day cell such as "Monday (Labor Day)" to its canonical
// name, or "" when the cell names no day.
func weekdayName(cell string) string {
	lower := strings.ToLower(cell)
	for _, day := range models.Weekdays {
		if strings.HasPrefix(lower, strings.ToLower(day)) {
			return day
		}
	}
	return ""
}

// hoursValue joins multi-interval cells ("8 AM–12 PM", "1–5 PM") with ", ".
func hoursValue(cell *goquery.Selection) string {
	items := cell.Find("li")
	if items.Length() == 0 {
		return services.NormaliseText(cell.Text())
	}
	parts := make([]string, 0, items.Length())
	items.Each(func(_ int, li *goquery.Selection) {
		if v := services.NormaliseText(li.Text()); v != "" {
			parts = append(parts, v)
		}
	})
	return strings.Join(parts, ", ")
}

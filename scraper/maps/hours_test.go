package maps

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseHoursTable(t *testing.T) {
	html := `<table><tbody>
		<tr><td><div>Thursday</div></td><td><ul><li>8 AM–12 PM</li><li>1–5 PM</li></ul></td></tr>
		<tr><td>Friday</td><td>8 AM–4 PM</td></tr>
		<tr><td>Saturday</td><td>Closed</td></tr>
		<tr><td>Sunday</td><td>Closed</td></tr>
		<tr><td>Monday (Labor Day)</td><td><ul><li>Hours might differ</li></ul></td></tr>
		<tr><td>Tuesday</td><td>8 AM–6 PM</td></tr>
		<tr><td>Wednesday</td><td>8 AM–6 PM</td></tr>
	</tbody></table>`

	hours, err := parseHoursTable(html)

	require.NoError(t, err)
	assert.Len(t, hours, 7)
	assert.Equal(t, "8 AM–12 PM, 1–5 PM", hours["Thursday"])
	assert.Equal(t, "Hours might differ", hours["Monday"])
	assert.Equal(t, "Closed", hours["Sunday"])
}

func TestParseHoursTableIncomplete(t *testing.T) {
	tests := []string{
		"",
		"<table><tr><td>Monday</td><td>9 AM–5 PM</td></tr></table>",
		"<table><tr><td>Someday</td><td>9 AM–5 PM</td></tr></table>",
	}

	for _, html := range tests {
		_, err := parseHoursTable(html)
		if !errors.Is(err, errIncompleteHours) {
			t.Errorf("parseHoursTable(%q) err = %v; want errIncompleteHours", html, err)
		}
	}
}

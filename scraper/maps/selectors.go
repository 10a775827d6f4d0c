package maps

import "net/url"

const searchURLBase = "https://www.google.com/maps/search/"

// CSS selectors for the Google Maps results feed and place panel.
const (
	FeedSelector     = "div[role='feed']"
	FeedItemSelector = "div[role='article']"

	NameSelector        = "h1"
	AddressSelector     = "button[data-item-id='address'] div[class*='fontBodyMedium']"
	PhoneSelector       = "button[data-item-id*='phone:tel:'] div[class*='fontBodyMedium']"
	WebsiteSelector     = "a[data-item-id='authority']"
	RatingSelector      = "div[role='img'][aria-label*='stars']"
	ReviewCountSelector = "span[aria-label*='reviews']"

	AboutTabSelector    = "button[aria-label^='About']"
	AboutRegionSelector = "div[role='region']"

	HoursButtonSelector = "button[aria-label*='Hours']"
	HoursTableSelector  = "table"

	ReviewsTabSelector   = "button[aria-label^='Reviews']"
	ReviewItemSelector   = "div[data-review-id]"
	ReviewAuthorSelector = "div[class*='d4r55']"
	ReviewStarsSelector  = "span[role='img'][aria-label*='star']"
	ReviewDateSelector   = "span[class*='rsqaWe']"
	ReviewTextSelector   = "span[class*='wiI7pd']"
)

// SearchURL returns the maps search page for query.
func SearchURL(query string) string {
	return searchURLBase + url.QueryEscape(query)
}

package extract

import (
	"errors"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// ErrParse indicates the page did not have the shape of a business detail
// page (most often a layout change or an interstitial).
var ErrParse = errors.New("page did not match listing layout")

// ListingPage holds the fields parsed from one business detail page.
type ListingPage struct {
	Name     string
	Category string
	Address  string
	Phone    string
	Website  string
	Rating   string
	Reviews  string
}

// Detail page selectors. These track the directory's markup and are the
// most likely thing to need updating when parsing starts failing.
const (
	selName     = "h1.DUwDvf"
	selCategory = "button.DkEaL"
	selAddress  = "button[data-item-id='address']"
	selPhone    = "button[data-item-id*='phone:tel:']"
	selWebsite  = "a[data-item-id='authority']"
	selRating   = "div.F7nice span span[aria-hidden='true']"
	selReviews  = "div.F7nice span[aria-label*='reviews']"
)

// ParseListing extracts a ListingPage from detail-page HTML. It is pure so
// it can be exercised against fixture strings without a browser.
func ParseListing(html string) (ListingPage, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return ListingPage{}, err
	}

	text := func(sel string) string {
		return clean(doc.Find(sel).First().Text())
	}

	p := ListingPage{
		Name:     text(selName),
		Category: text(selCategory),
		Address:  text(selAddress),
		Phone:    text(selPhone),
		Rating:   text(selRating),
		Reviews:  strings.Trim(text(selReviews), "()"),
	}
	if p.Name == "" {
		return ListingPage{}, ErrParse
	}

	if href, ok := doc.Find(selWebsite).First().Attr("href"); ok {
		p.Website = CleanWebsiteURL(href)
	}
	return p, nil
}

func clean(s string) string {
	s = strings.ReplaceAll(s, "\u00a0", " ")
	return strings.TrimSpace(strings.Join(strings.Fields(s), " "))
}

// Package source holds one adapter per job site. Adapters are pure functions over
// rendered markup; the browser work they need is described by a RenderPlan and
// carried out by the crawl orchestrator.
package source

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/user/internship-ingest/internal/entity"
	"github.com/user/internship-ingest/pkg/utils"
)

var (
	// ErrNoCards means the page held no listing cards at all, usually a block page or changed markup.
	ErrNoCards = errors.New("no listing cards found")
	// ErrMissingField means one card lacked a required node or attribute.
	ErrMissingField = errors.New("listing card is missing a required field")
)

// RenderPlan describes the browser steps a source needs before its markup can be read.
type RenderPlan struct {
	Settle          time.Duration // fixed wait after navigation
	ReadySelector   string        // listing-card selector polled for readiness
	DismissSelector string        // optional interstitial close control
	DismissWait     time.Duration
	Scrolls         int
	ScrollDelay     time.Duration
}

// Extraction is the result of reading one rendered search page.
type Extraction struct {
	Listings []entity.RawListing
	Cards    int // candidate cards matched on the page
	Skipped  int // cards dropped because a field could not be read
}

// Adapter turns one site's search page into raw listings.
type Adapter interface {
	Source() entity.Source
	BuildSearchURL(query, location string) string
	Plan() RenderPlan
	// Extract reads every listing card in html. A malformed card is skipped, never fatal.
	Extract(html, query, location string) (Extraction, error)
}

// New returns the adapter for src.
func New(src entity.Source) (Adapter, error) {
	switch src {
	case entity.SourceLinkedIn:
		return NewLinkedIn(), nil
	case entity.SourceSeek:
		return NewSeek(), nil
	case entity.SourceGlassdoor:
		return NewGlassdoor(), nil
	}
	return nil, fmt.Errorf("no adapter for source %q", src)
}

// Select resolves source names into adapters, keeping the given order.
func Select(names []string) ([]Adapter, error) {
	seen := make(map[entity.Source]bool, len(names))
	adapters := make([]Adapter, 0, len(names))
	for _, name := range names {
		src, err := entity.ParseSource(name)
		if err != nil {
			return nil, err
		}
		if seen[src] {
			return nil, fmt.Errorf("source %q listed twice", src)
		}
		seen[src] = true
		a, err := New(src)
		if err != nil {
			return nil, err
		}
		adapters = append(adapters, a)
	}
	return adapters, nil
}

// cardReader reads a single listing card into a RawListing or reports why it could not.
type cardReader func(card *goquery.Selection) (entity.RawListing, error)

func extractCards(html, cardSelector string, read cardReader) (Extraction, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return Extraction{}, fmt.Errorf("parse markup: %w", err)
	}

	cards := doc.Find(cardSelector)
	if cards.Length() == 0 {
		return Extraction{}, ErrNoCards
	}

	ex := Extraction{Cards: cards.Length()}
	cards.Each(func(_ int, card *goquery.Selection) {
		listing, err := read(card)
		if err != nil {
			ex.Skipped++
			return
		}
		ex.Listings = append(ex.Listings, listing)
	})
	return ex, nil
}

func requiredText(card *goquery.Selection, selector string) (string, error) {
	node := card.Find(selector).First()
	if node.Length() == 0 {
		return "", fmt.Errorf("%w: %s", ErrMissingField, selector)
	}
	return strings.TrimSpace(node.Text()), nil
}

func optionalText(card *goquery.Selection, selector string) string {
	return strings.TrimSpace(card.Find(selector).First().Text())
}

// requiredLink reads href from the first node matching selector, resolves it
// against base and strips tracking parameters.
func requiredLink(card *goquery.Selection, selector string, base *url.URL) (string, error) {
	href, ok := card.Find(selector).First().Attr("href")
	if !ok || strings.TrimSpace(href) == "" {
		return "", fmt.Errorf("%w: %s[href]", ErrMissingField, selector)
	}
	abs, err := utils.ToAbsoluteURL(base, strings.TrimSpace(href))
	if err != nil {
		return "", fmt.Errorf("%w: %s[href]: %v", ErrMissingField, selector, err)
	}
	return utils.StripQuery(abs), nil
}

func mustParse(raw string) *url.URL {
	u, err := url.Parse(raw)
	if err != nil {
		panic(err)
	}
	return u
}

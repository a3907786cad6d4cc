package source

import (
	"fmt"
	"net/url"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/user/internship-ingest/internal/entity"
)

const (
	linkedInCard     = "div.base-card"
	linkedInTitle    = "h3.base-search-card__title"
	linkedInCompany  = "h4.base-search-card__subtitle"
	linkedInLocation = "span.job-search-card__location"
	linkedInLink     = "a.base-card__full-link"
)

var linkedInBase = mustParse("https://www.linkedin.com")

// LinkedIn reads the public job search results page.
type LinkedIn struct{}

func NewLinkedIn() *LinkedIn { return &LinkedIn{} }

func (a *LinkedIn) Source() entity.Source { return entity.SourceLinkedIn }

// BuildSearchURL filters for internships (f_JT=I).
func (a *LinkedIn) BuildSearchURL(query, location string) string {
	return fmt.Sprintf("https://www.linkedin.com/jobs/search/?keywords=%s&location=%s&f_JT=I",
		url.QueryEscape(query), url.QueryEscape(location))
}

// Plan scrolls three times because results are lazy-loaded.
func (a *LinkedIn) Plan() RenderPlan {
	return RenderPlan{
		Settle:        5 * time.Second,
		ReadySelector: linkedInCard,
		Scrolls:       3,
		ScrollDelay:   3 * time.Second,
	}
}

func (a *LinkedIn) Extract(html, _, _ string) (Extraction, error) {
	return extractCards(html, linkedInCard, a.card)
}

func (a *LinkedIn) card(card *goquery.Selection) (entity.RawListing, error) {
	title, err := requiredText(card, linkedInTitle)
	if err != nil {
		return entity.RawListing{}, err
	}
	location, err := requiredText(card, linkedInLocation)
	if err != nil {
		return entity.RawListing{}, err
	}
	link, err := requiredLink(card, linkedInLink, linkedInBase)
	if err != nil {
		return entity.RawListing{}, err
	}
	return entity.RawListing{
		Title:    title,
		Company:  optionalText(card, linkedInCompany),
		Location: location,
		URL:      link,
		Source:   entity.SourceLinkedIn,
	}, nil
}

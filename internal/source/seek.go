package source

import (
	"fmt"
	"net/url"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/user/internship-ingest/internal/entity"
)

// Seek marks its cards with data-automation attributes, which survive restyling.
const (
	seekCard     = `article[data-automation="normalJob"]`
	seekTitle    = `a[data-automation="jobTitle"]`
	seekCompany  = `a[data-automation="jobCompany"]`
	seekLocation = `a[data-automation="jobLocation"]`
)

var seekBase = mustParse("https://www.seek.com.au")

// Seek reads seek.com.au search results.
type Seek struct{}

func NewSeek() *Seek { return &Seek{} }

func (a *Seek) Source() entity.Source { return entity.SourceSeek }

func (a *Seek) BuildSearchURL(query, location string) string {
	return fmt.Sprintf("https://www.seek.com.au/%s-jobs/in-%s?worktype=Internship",
		url.QueryEscape(query), url.QueryEscape(location))
}

func (a *Seek) Plan() RenderPlan {
	return RenderPlan{
		Settle:        5 * time.Second,
		ReadySelector: seekCard,
	}
}

func (a *Seek) Extract(html, _, _ string) (Extraction, error) {
	return extractCards(html, seekCard, a.card)
}

func (a *Seek) card(card *goquery.Selection) (entity.RawListing, error) {
	title, err := requiredText(card, seekTitle)
	if err != nil {
		return entity.RawListing{}, err
	}
	location, err := requiredText(card, seekLocation)
	if err != nil {
		return entity.RawListing{}, err
	}
	link, err := requiredLink(card, seekTitle, seekBase)
	if err != nil {
		return entity.RawListing{}, err
	}
	return entity.RawListing{
		Title:    title,
		Company:  optionalText(card, seekCompany),
		Location: location,
		URL:      link,
		Source:   entity.SourceSeek,
	}, nil
}

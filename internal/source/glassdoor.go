package source

import (
	"fmt"
	"net/url"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"
	"github.com/user/internship-ingest/internal/entity"
)

// Glassdoor class names are generated and change often; expect to revisit these.
const (
	glassdoorCard     = "li.react-job-listing"
	glassdoorTitle    = `a[data-test="job-title"]`
	glassdoorCompany  = "div.job-search-874ac056"
	glassdoorLocation = "div.job-search-e45f9152"
	glassdoorModal    = ".modal_closeIcon"
)

var glassdoorBase = mustParse("https://www.glassdoor.com")

// Glassdoor reads glassdoor.com keyword search results.
type Glassdoor struct{}

func NewGlassdoor() *Glassdoor { return &Glassdoor{} }

func (a *Glassdoor) Source() entity.Source { return entity.SourceGlassdoor }

// BuildSearchURL encodes the keyword span (KO0,n) Glassdoor expects.
// Location is not encoded: Glassdoor resolves locations to internal IDs.
func (a *Glassdoor) BuildSearchURL(query, _ string) string {
	keyword := strings.ReplaceAll(strings.TrimSpace(query), " ", "-")
	return fmt.Sprintf("https://www.glassdoor.com/Job/%s-jobs-SRCH_KO0,%d.htm",
		url.PathEscape(keyword), utf8.RuneCountInString(keyword))
}

// Plan dismisses the sign-in modal when it shows up.
func (a *Glassdoor) Plan() RenderPlan {
	return RenderPlan{
		Settle:          7 * time.Second,
		ReadySelector:   glassdoorCard,
		DismissSelector: glassdoorModal,
		DismissWait:     2 * time.Second,
	}
}

func (a *Glassdoor) Extract(html, _, _ string) (Extraction, error) {
	return extractCards(html, glassdoorCard, a.card)
}

func (a *Glassdoor) card(card *goquery.Selection) (entity.RawListing, error) {
	title, err := requiredText(card, glassdoorTitle)
	if err != nil {
		return entity.RawListing{}, err
	}
	location, err := requiredText(card, glassdoorLocation)
	if err != nil {
		return entity.RawListing{}, err
	}
	link, err := requiredLink(card, glassdoorTitle, glassdoorBase)
	if err != nil {
		return entity.RawListing{}, err
	}
	return entity.RawListing{
		Title:    title,
		Company:  optionalText(card, glassdoorCompany),
		Location: location,
		URL:      link,
		Source:   entity.SourceGlassdoor,
	}, nil
}

package source

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/user/internship-ingest/internal/entity"
)

const linkedInPage = `<html><body><ul>
<li><div class="base-card">
  <a class="base-card__full-link" href="https://au.linkedin.com/jobs/view/software-intern-1?refId=abc&trackingId=x"></a>
  <h3 class="base-search-card__title">
     Software Intern
  </h3>
  <h4 class="base-search-card__subtitle"> Acme </h4>
  <span class="job-search-card__location">Sydney, NSW</span>
</div></li>
<li><div class="base-card">
  <a class="base-card__full-link" href="https://au.linkedin.com/jobs/view/data-intern-2?position=2"></a>
  <h3 class="base-search-card__title">Data Intern</h3>
  <span class="job-search-card__location">Melbourne</span>
</div></li>
<li><div class="base-card">
  <h3 class="base-search-card__title">No Link Intern</h3>
  <span class="job-search-card__location">Perth</span>
</div></li>
<li><div class="base-card">
  <a class="base-card__full-link" href="https://au.linkedin.com/jobs/view/4"></a>
  <span class="job-search-card__location">Perth</span>
</div></li>
</ul></body></html>`

func TestLinkedInExtract(t *testing.T) {
	ex, err := NewLinkedIn().Extract(linkedInPage, "Computer Science Internship", "Australia")
	require.NoError(t, err)

	assert.Equal(t, 4, ex.Cards)
	assert.Equal(t, 2, ex.Skipped)
	require.Len(t, ex.Listings, 2)

	assert.Equal(t, entity.RawListing{
		Title:    "Software Intern",
		Company:  "Acme",
		Location: "Sydney, NSW",
		URL:      "https://au.linkedin.com/jobs/view/software-intern-1",
		Source:   entity.SourceLinkedIn,
	}, ex.Listings[0])

	// A card without a company is still a listing.
	assert.Equal(t, "Data Intern", ex.Listings[1].Title)
	assert.Empty(t, ex.Listings[1].Company)
	assert.Equal(t, "https://au.linkedin.com/jobs/view/data-intern-2", ex.Listings[1].URL)
}

func TestLinkedInBuildSearchURL(t *testing.T) {
	got := NewLinkedIn().BuildSearchURL("Computer Science Internship", "New South Wales")
	assert.Equal(t,
		"https://www.linkedin.com/jobs/search/?keywords=Computer+Science+Internship&location=New+South+Wales&f_JT=I",
		got)
}

func TestLinkedInPlanScrolls(t *testing.T) {
	plan := NewLinkedIn().Plan()
	assert.Equal(t, 3, plan.Scrolls)
	assert.Empty(t, plan.DismissSelector)
}

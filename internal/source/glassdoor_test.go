package source

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/user/internship-ingest/internal/entity"
)

const glassdoorPage = `<html><body><ul>
<li class="react-job-listing">
  <a data-test="job-title" href="/partner/jobListing.htm?pos=101&jobListingId=1">Graduate Intern</a>
  <div class="job-search-874ac056">Globex</div>
  <div class="job-search-e45f9152">Brisbane</div>
</li>
<li class="react-job-listing">
  <a data-test="job-title">Intern without link</a>
  <div class="job-search-e45f9152">Brisbane</div>
</li>
<li class="react-job-listing">
  <a data-test="job-title" href="/job-listing/research-intern-JV_IC1.htm#apply">Research Intern</a>
  <div class="job-search-e45f9152">Canberra</div>
</li>
</ul></body></html>`

func TestGlassdoorExtract(t *testing.T) {
	ex, err := NewGlassdoor().Extract(glassdoorPage, "q", "l")
	require.NoError(t, err)

	assert.Equal(t, 3, ex.Cards)
	assert.Equal(t, 1, ex.Skipped)
	require.Len(t, ex.Listings, 2)

	assert.Equal(t, entity.RawListing{
		Title:    "Graduate Intern",
		Company:  "Globex",
		Location: "Brisbane",
		URL:      "https://www.glassdoor.com/partner/jobListing.htm",
		Source:   entity.SourceGlassdoor,
	}, ex.Listings[0])
	assert.Equal(t, "https://www.glassdoor.com/job-listing/research-intern-JV_IC1.htm", ex.Listings[1].URL)
}

func TestGlassdoorBuildSearchURL(t *testing.T) {
	got := NewGlassdoor().BuildSearchURL("Computer Science Internship", "Australia")
	assert.Equal(t, "https://www.glassdoor.com/Job/Computer-Science-Internship-jobs-SRCH_KO0,27.htm", got)
}

func TestGlassdoorPlanDismissesModal(t *testing.T) {
	plan := NewGlassdoor().Plan()
	assert.Equal(t, ".modal_closeIcon", plan.DismissSelector)
	assert.Positive(t, plan.DismissWait)
}

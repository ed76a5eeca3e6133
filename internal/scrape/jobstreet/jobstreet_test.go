package jobstreet_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"go.uber.org/zap/zaptest"

	"jobfinder-engine/internal/scrape/jobstreet"
	"jobfinder-engine/internal/scrape/types"
	"jobfinder-engine/internal/scrape/util"
)

const articlePage = `<div>
<article data-automation="normalJob" data-job-id="81234567" class="card">
  <h3><a href="/job/81234567?type=standard&amp;ref=search-standalone" data-automation="jobTitle">Customer Service Representative</a></h3>
  <span>at <a data-automation="jobCompany" href="/companies/acme">Acme BPO Inc.</a></span>
  <a data-automation="jobLocation" href="/jobs/in-Cebu">Cebu City, Cebu</a>
  <span data-automation="jobSalary">₱25,000 – ₱30,000 per month</span>
  <span data-automation="jobShortDescription">Voice account, night shift.</span>
</article>
<article data-automation="normalJob" data-job-id="81234568">
  <a data-automation="jobTitle" href="/job/81234568">Team Lead</a>
</article>
</div>`

const legacyPage = `<div id="jobList">
<div class="sx2jih0" data-search-sol-meta="{&quot;jobId&quot;:1}">
  <h1><a href="/en/job/accounting-clerk-10203040?jobId=jobstreet-ph">Accounting Clerk</a></h1>
  <a data-automation="jobCardCompanyLink" href="/en/companies/x">Ledger Co</a>
  <span class="sx2 job-location">Makati City</span>
</div>
</div>`

func newScraper(t *testing.T, page string, gotPath *string) *jobstreet.Scraper {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if gotPath != nil {
			*gotPath = r.URL.Path
		}
		_, _ = w.Write([]byte(page))
	}))
	t.Cleanup(srv.Close)
	client := util.NewClient(srv.Client(), util.NewHostLimiter(100, 100))
	return jobstreet.New(jobstreet.Config{BaseURL: srv.URL}, client, zaptest.NewLogger(t))
}

func TestSearchURL(t *testing.T) {
	u, err := jobstreet.SearchURL("https://www.jobstreet.com.ph/", "Customer Service", "Cebu City")
	if err != nil {
		t.Fatal(err)
	}
	if u != "https://www.jobstreet.com.ph/customer-service-jobs/in-cebu-city" {
		t.Errorf("url = %s", u)
	}
	if _, err := jobstreet.SearchURL(jobstreet.DefaultBaseURL, " !! ", ""); err == nil {
		t.Error("query without words should fail")
	}
}

func TestFetch_Articles(t *testing.T) {
	var path string
	s := newScraper(t, articlePage, &path)
	jobs, err := s.Fetch(context.Background(), types.Query{Text: "customer service", Limit: 10})
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if path != "/customer-service-jobs" {
		t.Errorf("path = %q", path)
	}
	if len(jobs) != 2 {
		t.Fatalf("got %d jobs, want 2", len(jobs))
	}
	j := jobs[0]
	if j.UniqueID != "81234567" || j.Title != "Customer Service Representative" || j.Company != "Acme BPO Inc." {
		t.Errorf("first = %+v", j)
	}
	if j.Location != "Cebu City, Cebu" || j.Salary != "₱25,000 – ₱30,000 per month" || j.Description != "Voice account, night shift." {
		t.Errorf("details = %+v", j)
	}
	if jobs[1].Company != "JobStreet Employer" {
		t.Errorf("placeholder = %q", jobs[1].Company)
	}
}

func TestFetch_LegacyCards(t *testing.T) {
	s := newScraper(t, legacyPage, nil)
	jobs, err := s.Fetch(context.Background(), types.Query{Text: "clerk"})
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if len(jobs) != 1 {
		t.Fatalf("got %d jobs, want 1", len(jobs))
	}
	if jobs[0].UniqueID != "10203040" || jobs[0].Company != "Ledger Co" || jobs[0].Location != "Makati City" {
		t.Errorf("job = %+v", jobs[0])
	}
}

func TestFetch_EmptyQueryIsEmpty(t *testing.T) {
	s := newScraper(t, articlePage, nil)
	jobs, err := s.Fetch(context.Background(), types.Query{Text: "   "})
	if err != nil || len(jobs) != 0 {
		t.Fatalf("jobs=%d err=%v", len(jobs), err)
	}
}

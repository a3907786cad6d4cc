package entity

import (
	"fmt"
	"strings"
	"time"
)

// Source identifies the external site a listing was scraped from.
type Source string

const (
	SourceLinkedIn  Source = "LinkedIn"
	SourceSeek      Source = "Seek"
	SourceGlassdoor Source = "Glassdoor"
)

// KnownSources lists every source with an adapter, in default crawl order.
var KnownSources = []Source{SourceLinkedIn, SourceSeek, SourceGlassdoor}

// ParseSource resolves a case-insensitive source name.
func ParseSource(name string) (Source, error) {
	name = strings.TrimSpace(name)
	for _, s := range KnownSources {
		if strings.EqualFold(string(s), name) {
			return s, nil
		}
	}
	return "", fmt.Errorf("unknown source %q", name)
}

// RawListing is what an adapter read off a single listing card.
// It only exists between extraction and normalization.
type RawListing struct {
	Title    string
	Company  string // empty when the card carries no company
	Location string
	URL      string
	Source   Source
}

// CanonicalListing mirrors the `internships` PostgreSQL table schema.
// URL is the natural key; two listings with the same URL are the same listing.
type CanonicalListing struct {
	ID        int64
	Title     string
	Company   *string
	Location  string
	URL       string
	Source    Source
	CreatedAt time.Time // assigned by the store on first insert
}

// CompanyName returns the company or "" when it is absent.
func (l CanonicalListing) CompanyName() string {
	if l.Company == nil {
		return ""
	}
	return *l.Company
}

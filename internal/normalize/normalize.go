// Package normalize maps raw listings onto the canonical record.
package normalize

import (
	"errors"
	"strings"

	"github.com/user/internship-ingest/internal/entity"
	"github.com/user/internship-ingest/pkg/utils"
)

var (
	ErrEmptyTitle = errors.New("listing has an empty title")
	ErrEmptyURL   = errors.New("listing has an empty url")
)

// Normalize trims every text field and rejects listings without a title or URL.
// The source is taken from the adapter that produced raw, never from its content.
func Normalize(raw entity.RawListing) (entity.CanonicalListing, error) {
	title := strings.TrimSpace(raw.Title)
	if title == "" {
		return entity.CanonicalListing{}, ErrEmptyTitle
	}
	link := utils.StripQuery(strings.TrimSpace(raw.URL))
	if link == "" {
		return entity.CanonicalListing{}, ErrEmptyURL
	}

	listing := entity.CanonicalListing{
		Title:    title,
		Location: strings.TrimSpace(raw.Location),
		URL:      link,
		Source:   raw.Source,
	}
	if company := strings.TrimSpace(raw.Company); company != "" {
		listing.Company = &company
	}
	return listing, nil
}

// All normalizes a batch, dropping rejected listings one by one.
// It returns the kept listings in input order and how many were rejected.
func All(raws []entity.RawListing) ([]entity.CanonicalListing, int) {
	kept := make([]entity.CanonicalListing, 0, len(raws))
	rejected := 0
	for _, raw := range raws {
		listing, err := Normalize(raw)
		if err != nil {
			rejected++
			continue
		}
		kept = append(kept, listing)
	}
	return kept, rejected
}

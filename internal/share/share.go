// Package share builds social share-intent links.
package share

import (
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/google/uuid"

	"adespota/internal/domain"
)

type Platform string

const (
	Facebook  Platform = "facebook"
	Twitter   Platform = "twitter"
	Instagram Platform = "instagram"
)

var (
	ErrUnsupportedPlatform = errors.New("share: platform has no share link")
	ErrUnknownPlatform     = errors.New("share: unknown platform")
)

// URL returns the share-intent link for target. Instagram is a known platform
// without a web share intent and yields ErrUnsupportedPlatform.
func URL(p Platform, target, title string) (string, error) {
	switch p {
	case Facebook:
		return "https://www.facebook.com/sharer/sharer.php?u=" + url.QueryEscape(target), nil
	case Twitter:
		return "https://twitter.com/intent/tweet?url=" + url.QueryEscape(target) + "&text=" + url.QueryEscape(title), nil
	case Instagram:
		return "", ErrUnsupportedPlatform
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownPlatform, p)
}

// ReportTarget is the public page of a report.
func ReportTarget(baseURL string, id uuid.UUID) string {
	return strings.TrimRight(baseURL, "/") + "/reports/" + id.String()
}

func ReportTitle(r domain.SubmittedReport) string {
	title := fmt.Sprintf("A stray %s needs help", r.Type)
	if r.Location.Address != "" {
		title += " near " + r.Location.Address
	}
	return title
}

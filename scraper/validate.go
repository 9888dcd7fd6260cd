package scraper

import (
	"net/url"
	"strings"

	"github.com/use-agent/harvest/models"
)

// validateURL accepts only absolute http and https URLs with a host.
func validateURL(rawURL string) *models.ScrapeError {
	u, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil {
		return models.NewScrapeError(models.ErrCodeInvalidURL, "invalid URL", err)
	}
	scheme := strings.ToLower(u.Scheme)
	if scheme != "http" && scheme != "https" {
		return models.NewScrapeError(models.ErrCodeInvalidURL,
			"invalid URL: only http and https schemes are allowed", nil)
	}
	if u.Hostname() == "" {
		return models.NewScrapeError(models.ErrCodeInvalidURL, "invalid URL: missing host", nil)
	}
	return nil
}

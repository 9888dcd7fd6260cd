package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/use-agent/harvest/models"
	"github.com/use-agent/harvest/scraper"
)

// Scrape returns a handler for POST /api/v1/scrape.
//
// The body is always a ScrapeResult envelope. Failed scrapes map their
// error code to an HTTP status.
func Scrape(sc *scraper.Scraper) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req models.ScrapeRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			abortInvalid(c, err.Error())
			return
		}
		req.Defaults()

		res := sc.ScrapeURL(c.Request.Context(), req.URL, scraper.Options{
			Timeout:    time.Duration(req.TimeoutMs) * time.Millisecond,
			MaxRetries: req.MaxRetries,
		})

		status := http.StatusOK
		if !res.Success {
			status = statusForCode(res.Code)
		}
		c.JSON(status, res)
	}
}

// statusForCode translates result codes to HTTP status codes.
func statusForCode(code string) int {
	switch code {
	case models.ErrCodeInvalidURL, models.ErrCodeInvalidInput:
		return http.StatusBadRequest // 400
	case models.ErrCodeAttemptTimeout, models.ErrCodeOverallTimeout:
		return http.StatusGatewayTimeout // 504
	case models.ErrCodeNavigation, models.ErrCodeHTTP, models.ErrCodeExtraction, models.ErrCodeEngineLaunch:
		return http.StatusBadGateway // 502
	case models.ErrCodeCanceled:
		return 499 // client closed request
	case models.ErrCodeNotFound:
		return http.StatusNotFound // 404
	case models.ErrCodeRateLimited:
		return http.StatusTooManyRequests // 429
	case models.ErrCodeUnauthorized:
		return http.StatusUnauthorized // 401
	default:
		return http.StatusInternalServerError // 500
	}
}

// abortInvalid writes a 400 INVALID_INPUT error.
func abortInvalid(c *gin.Context, msg string) {
	c.AbortWithStatusJSON(http.StatusBadRequest, models.NewErrorResponse(models.ErrCodeInvalidInput, msg))
}

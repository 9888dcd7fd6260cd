package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/use-agent/harvest/config"
	"github.com/use-agent/harvest/logging"
	"github.com/use-agent/harvest/models"
	"github.com/use-agent/harvest/scraper"
)

func main() {
	if err := config.LoadEnvFile(".env"); err != nil {
		fmt.Fprintf(os.Stderr, "failed to read .env: %v\n", err)
		os.Exit(1)
	}
	cfg := config.Load()

	// stdout carries the MCP protocol; logs go to stderr.
	logging.Init(cfg.Log, os.Stderr)

	sc, err := scraper.NewScraper(cfg.Browser, cfg.Scraper)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to initialise scraper: %v\n", err)
		os.Exit(1)
	}
	defer sc.Close()

	s := server.NewMCPServer(
		"harvest",
		"1.0.0",
		server.WithToolCapabilities(false),
	)

	scrapeURLTool := mcp.NewTool("scrape_url",
		mcp.WithDescription("Scrape a web page and return its main text content with title, publish date and author. Renders JavaScript in a headless browser and falls back to a plain HTTP fetch."),
		mcp.WithString("url",
			mcp.Required(),
			mcp.Description("The http or https URL of the page to scrape"),
		),
		mcp.WithNumber("timeout_ms",
			mcp.Description("Per-attempt timeout in milliseconds (default: 45000)"),
		),
		mcp.WithNumber("max_retries",
			mcp.Description("Total attempts before giving up (default: 3, max: 10)"),
		),
	)
	s.AddTool(scrapeURLTool, handleScrapeURL(sc))

	scrapeURLsTool := mcp.NewTool("scrape_urls",
		mcp.WithDescription("Scrape several web pages concurrently. Results are returned in input order; one page failing never fails the others."),
		mcp.WithArray("urls",
			mcp.Required(),
			mcp.Description("List of http or https URLs to scrape"),
		),
		mcp.WithNumber("timeout_ms",
			mcp.Description("Per-attempt timeout in milliseconds (default: 45000)"),
		),
		mcp.WithNumber("max_retries",
			mcp.Description("Total attempts per URL (default: 3, max: 10)"),
		),
		mcp.WithNumber("max_concurrent",
			mcp.Description("Maximum URLs scraped at once (default: 5, max: 50)"),
		),
	)
	s.AddTool(scrapeURLsTool, handleScrapeURLs(sc, cfg.Scraper.MaxBatchSize))

	if err := server.ServeStdio(s); err != nil {
		fmt.Fprintf(os.Stderr, "server error: %v\n", err)
		os.Exit(1)
	}
}

func handleScrapeURL(sc *scraper.Scraper) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		url, err := request.RequireString("url")
		if err != nil {
			return mcp.NewToolResultError("url is required"), nil
		}

		res := sc.ScrapeURL(ctx, url, toolOptions(request))
		if !res.Success {
			return mcp.NewToolResultError(formatFailure(res)), nil
		}
		return mcp.NewToolResultText(formatContent(res.Content)), nil
	}
}

func handleScrapeURLs(sc *scraper.Scraper, maxBatch int) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		urls, err := request.RequireStringSlice("urls")
		if err != nil {
			return mcp.NewToolResultError("urls is required and must be an array of strings"), nil
		}
		if maxBatch > 0 && len(urls) > maxBatch {
			return mcp.NewToolResultError(fmt.Sprintf("maximum %d URLs per call", maxBatch)), nil
		}

		opts := toolOptions(request)
		opts.MaxConcurrent = clamp(request.GetInt("max_concurrent", 0), 0, 50)

		results := sc.ScrapeAll(ctx, urls, opts)
		return mcp.NewToolResultText(formatBatch(urls, results)), nil
	}
}

func toolOptions(request mcp.CallToolRequest) scraper.Options {
	timeoutMs := request.GetInt("timeout_ms", models.DefaultTimeoutMs)
	if timeoutMs <= 0 {
		timeoutMs = models.DefaultTimeoutMs
	}
	return scraper.Options{
		Timeout:    time.Duration(timeoutMs) * time.Millisecond,
		MaxRetries: clamp(request.GetInt("max_retries", 0), 0, 10),
	}
}

func clamp(v, lo, hi int) int {
	return max(lo, min(v, hi))
}

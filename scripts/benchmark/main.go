package main

import (
	"bytes"
	"encoding/json"
	"flag"
	"fmt"
	"net/http"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/use-agent/harvest/models"
)

// CLI flags
var (
	apiURL        = flag.String("api-url", "http://localhost:8080", "Harvest API base URL")
	apiKey        = flag.String("api-key", "", "API key for authenticated requests")
	runs          = flag.Int("runs", 3, "Number of batch runs for averaging")
	maxConcurrent = flag.Int("max-concurrent", 5, "max_concurrent sent with each batch")
	output        = flag.String("output", "benchmark-results.json", "JSON output file path")
)

// Test URLs covering 5 site types.
var testURLs = []struct {
	Label string
	URL   string
}{
	{"Static", "https://example.com"},
	{"Blog", "https://go.dev/blog/go1.21"},
	{"Docs", "https://go.dev/doc/effective_go"},
	{"News", "https://www.bbc.com/news"},
	{"Complex", "https://github.com/go-rod/rod"},
}

// --- Benchmark result types ---

type runResult struct {
	Run       int                   `json:"run"`
	WallMs    int64                 `json:"wall_ms"`
	Succeeded int                   `json:"succeeded"`
	Results   []models.ScrapeResult `json:"results,omitempty"`
	Error     string                `json:"error,omitempty"`
}

type urlSummary struct {
	URL          string  `json:"url"`
	Label        string  `json:"label"`
	Successes    int     `json:"successes"`
	AvgAttempts  float64 `json:"avg_attempts"`
	AvgWordCount float64 `json:"avg_word_count"`
	LastError    string  `json:"last_error,omitempty"`
}

type benchmarkReport struct {
	Timestamp     string       `json:"timestamp"`
	APIURL        string       `json:"api_url"`
	Runs          int          `json:"runs"`
	MaxConcurrent int          `json:"max_concurrent"`
	AvgWallMs     float64      `json:"avg_wall_ms"`
	RunResults    []runResult  `json:"run_results"`
	URLs          []urlSummary `json:"urls"`
}

func main() {
	flag.Parse()

	fmt.Println("=== Harvest Benchmark Suite ===")
	fmt.Printf("API URL:        %s\n", *apiURL)
	fmt.Printf("Runs:           %d\n", *runs)
	fmt.Printf("Max concurrent: %d\n", *maxConcurrent)
	fmt.Printf("Output:         %s\n", *output)
	fmt.Println()

	if err := checkAPI(*apiURL); err != nil {
		fmt.Fprintf(os.Stderr, "Error: cannot reach API at %s: %v\n", *apiURL, err)
		fmt.Fprintf(os.Stderr, "Make sure harvest is running (e.g. go run ./cmd/harvest)\n")
		os.Exit(1)
	}

	urls := make([]string, len(testURLs))
	for i, t := range testURLs {
		urls[i] = t.URL
	}

	report := benchmarkReport{
		Timestamp:     time.Now().UTC().Format(time.RFC3339),
		APIURL:        *apiURL,
		Runs:          *runs,
		MaxConcurrent: *maxConcurrent,
	}

	for i := 1; i <= *runs; i++ {
		fmt.Printf("Run %d/%d ... ", i, *runs)
		rr := benchmarkBatch(urls, i)
		if rr.Error != "" {
			fmt.Printf("FAILED: %s\n", rr.Error)
		} else {
			fmt.Printf("OK  %dms  %d/%d succeeded\n", rr.WallMs, rr.Succeeded, len(urls))
		}
		report.RunResults = append(report.RunResults, rr)
	}

	report.AvgWallMs, report.URLs = summarize(report.RunResults)
	fmt.Println()
	printTable(report)

	if err := writeJSON(*output, report); err != nil {
		fmt.Fprintf(os.Stderr, "Error writing JSON output: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("\nDetailed results written to %s\n", *output)
}

func checkAPI(baseURL string) error {
	client := &http.Client{Timeout: 10 * time.Second}
	resp, err := client.Get(baseURL + "/api/v1/health")
	if err != nil {
		return err
	}
	resp.Body.Close()
	return nil
}

func benchmarkBatch(urls []string, run int) runResult {
	rr := runResult{Run: run}

	bodyBytes, err := json.Marshal(models.BatchRequest{URLs: urls, MaxConcurrent: *maxConcurrent})
	if err != nil {
		rr.Error = fmt.Sprintf("marshal error: %v", err)
		return rr
	}

	req, err := http.NewRequest(http.MethodPost, *apiURL+"/api/v1/batch", bytes.NewReader(bodyBytes))
	if err != nil {
		rr.Error = fmt.Sprintf("request error: %v", err)
		return rr
	}
	req.Header.Set("Content-Type", "application/json")
	if *apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+*apiKey)
	}

	client := &http.Client{Timeout: 10 * time.Minute}
	start := time.Now()
	resp, err := client.Do(req)
	if err != nil {
		rr.Error = fmt.Sprintf("request failed: %v", err)
		return rr
	}
	defer resp.Body.Close()

	var br models.BatchResponse
	if err := json.NewDecoder(resp.Body).Decode(&br); err != nil {
		rr.Error = fmt.Sprintf("decode error: %v", err)
		return rr
	}
	rr.WallMs = time.Since(start).Milliseconds()
	if resp.StatusCode != http.StatusOK {
		rr.Error = fmt.Sprintf("status %d", resp.StatusCode)
		return rr
	}

	rr.Succeeded = br.Succeeded
	rr.Results = br.Results
	return rr
}

func summarize(runs []runResult) (float64, []urlSummary) {
	summaries := make([]urlSummary, len(testURLs))
	for i, t := range testURLs {
		summaries[i] = urlSummary{URL: t.URL, Label: t.Label}
	}

	var wall float64
	var ok int
	for _, rr := range runs {
		if rr.Error != "" {
			continue
		}
		ok++
		wall += float64(rr.WallMs)
		for i, res := range rr.Results {
			if i >= len(summaries) {
				break
			}
			s := &summaries[i]
			s.AvgAttempts += float64(res.Attempts)
			if res.Success {
				s.Successes++
				s.AvgWordCount += float64(res.Content.Metadata.WordCount)
			} else {
				s.LastError = res.Error
			}
		}
	}

	if ok > 0 {
		wall /= float64(ok)
		for i := range summaries {
			summaries[i].AvgAttempts /= float64(ok)
		}
	}
	for i := range summaries {
		if n := summaries[i].Successes; n > 0 {
			summaries[i].AvgWordCount /= float64(n)
		}
	}
	return wall, summaries
}

func printTable(report benchmarkReport) {
	fmt.Println(strings.Repeat("─", 85))
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "URL\tSuccess\tAvg Attempts\tAvg Words\tLast Error\n")
	fmt.Fprintf(w, "───\t───────\t────────────\t─────────\t──────────\n")

	for _, s := range report.URLs {
		fmt.Fprintf(w, "%s\t%d/%d\t%.1f\t%s\t%s\n",
			truncate(s.URL, 40),
			s.Successes, report.Runs,
			s.AvgAttempts,
			formatInt(int(s.AvgWordCount)),
			truncate(s.LastError, 30),
		)
	}

	w.Flush()
	fmt.Println(strings.Repeat("─", 85))
	fmt.Printf("Average batch wall time: %.0fms\n", report.AvgWallMs)
}

func truncate(s string, limit int) string {
	if len(s) <= limit {
		return s
	}
	return s[:limit-3] + "..."
}

func formatInt(n int) string {
	s := fmt.Sprintf("%d", n)
	if len(s) <= 3 {
		return s
	}
	var result []byte
	for i, c := range s {
		if i > 0 && (len(s)-i)%3 == 0 {
			result = append(result, ',')
		}
		result = append(result, byte(c))
	}
	return string(result)
}

func writeJSON(path string, report benchmarkReport) error {
	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

package engine

import (
	"context"
	"errors"
	"time"

	"github.com/ysmood/gson"
)

// ErrLaunch marks failures to start or connect to a browser process.
// Only Launch errors matching errors.Is(err, ErrLaunch) select the static
// fallback; any other Launch error is classified by its cause.
var ErrLaunch = errors.New("engine: browser launch failed")

// Launcher starts browser instances. Every Launch returns an independent
// process; nothing is shared between the returned browsers.
type Launcher interface {
	Launch(ctx context.Context, opts LaunchOptions) (Browser, error)
}

// Browser is a running browser process.
type Browser interface {
	// NewPage opens an isolated page with no state shared with other pages.
	NewPage(ctx context.Context) (Page, error)

	// Close terminates the browser and releases its resources.
	Close() error
}

// Page is a single browser tab.
type Page interface {
	// Navigate loads url and waits for the document load event, bounded by timeout.
	Navigate(ctx context.Context, url string, timeout time.Duration) error

	// Evaluate runs a JS function expression and returns its JSON value.
	Evaluate(ctx context.Context, script string) (gson.JSON, error)

	Close() error
}

// LaunchOptions configures a browser launch.
type LaunchOptions struct {
	// Bin is the browser executable. Empty means engine discovery.
	Bin string

	Headless  bool
	NoSandbox bool

	// Proxy is passed to the browser as --proxy-server.
	Proxy string

	// Stealth masks common automation fingerprints on new pages.
	Stealth bool

	// BlockedResourceTypes lists resource types to abort ("Image", "Font", ...).
	BlockedResourceTypes []string

	// BlockAds aborts requests to known ad and tracking domains.
	BlockAds bool
}

// Fetcher performs plain HTTP GET requests.
type Fetcher interface {
	Get(ctx context.Context, url string, headers map[string]string, timeout time.Duration) (*Response, error)
}

// Response is the outcome of a Fetcher GET.
type Response struct {
	StatusCode int
	Body       []byte
}

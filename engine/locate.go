package engine

import (
	"os"
	"strings"
)

// Env is a snapshot of environment variables.
type Env map[string]string

// EnvFromOS snapshots the current process environment.
func EnvFromOS() Env {
	env := make(Env)
	for _, kv := range os.Environ() {
		if k, v, ok := strings.Cut(kv, "="); ok {
			env[k] = v
		}
	}
	return env
}

// FileExists reports whether path names an existing regular file.
func FileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}

// RendererCandidates lists well-known browser install paths for goos in
// priority order: Chrome, then Chromium, then Edge. Entries that depend on an
// environment variable missing from env are skipped.
func RendererCandidates(env Env, goos string) []string {
	var out []string
	under := func(key string, parts ...string) {
		base := env[key]
		if base == "" {
			return
		}
		out = append(out, strings.Join(append([]string{base}, parts...), pathSep(goos)))
	}

	switch goos {
	case "windows":
		under("PROGRAMFILES", `Google\Chrome\Application\chrome.exe`)
		under("PROGRAMFILES(X86)", `Google\Chrome\Application\chrome.exe`)
		under("LOCALAPPDATA", `Google\Chrome\Application\chrome.exe`)
		under("PROGRAMFILES", `Chromium\Application\chrome.exe`)
		under("LOCALAPPDATA", `Chromium\Application\chrome.exe`)
		under("PROGRAMFILES(X86)", `Microsoft\Edge\Application\msedge.exe`)
		under("PROGRAMFILES", `Microsoft\Edge\Application\msedge.exe`)
	case "darwin":
		out = append(out,
			"/Applications/Google Chrome.app/Contents/MacOS/Google Chrome",
			"/Applications/Chromium.app/Contents/MacOS/Chromium",
			"/Applications/Microsoft Edge.app/Contents/MacOS/Microsoft Edge",
		)
		under("HOME", "Applications/Google Chrome.app/Contents/MacOS/Google Chrome")
	default:
		out = append(out,
			"/usr/bin/google-chrome",
			"/usr/bin/google-chrome-stable",
			"/usr/bin/chromium",
			"/usr/bin/chromium-browser",
			"/snap/bin/chromium",
			"/usr/bin/microsoft-edge",
		)
	}
	return out
}

// LocateRenderer returns the first candidate from RendererCandidates for
// which exists returns true. It has no side effects beyond calling exists.
func LocateRenderer(env Env, goos string, exists func(string) bool) (string, bool) {
	for _, p := range RendererCandidates(env, goos) {
		if exists(p) {
			return p, true
		}
	}
	return "", false
}

func pathSep(goos string) string {
	if goos == "windows" {
		return `\`
	}
	return "/"
}

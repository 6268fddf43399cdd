package amul

import "net/http"

// Rotating the user agent and varying the accept headers keeps the
// client from presenting a single fingerprint across runs. Resilience
// only; the site does not require any particular browser.
var userAgents = []string{
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/126.0.0.0 Safari/537.36",
	"Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/125.0.0.0 Safari/537.36",
	"Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0.0.0 Safari/537.36",
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64; rv:127.0) Gecko/20100101 Firefox/127.0",
	"Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/17.4 Safari/605.1.15",
}

var acceptLanguages = []string{
	"en-US,en;q=0.9",
	"en-IN,en;q=0.9,hi;q=0.8",
	"en-GB,en;q=0.8",
}

func applyBrowserHeaders(req *http.Request, randFunc func(n int64) int64) {
	req.Header.Set("User-Agent", userAgents[randFunc(int64(len(userAgents)))])
	req.Header.Set("Accept", "application/json, text/plain, */*")
	req.Header.Set("Accept-Language", acceptLanguages[randFunc(int64(len(acceptLanguages)))])
	req.Header.Set("Connection", "keep-alive")
}

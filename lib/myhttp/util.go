package myhttp

import (
	"fmt"
	"net/http"
	"os"
)

// GuessHostnameWithScheme is for callers that have no request at hand,
// such as services registering their push endpoint at startup.
func GuessHostnameWithScheme() string {
	if hostname := os.Getenv("PUBLIC_HOSTNAME"); hostname != "" {
		return hostname
	}

	return "http://localhost:8080"
}

func HostnameWithScheme(r *http.Request) string {
	if hostname := os.Getenv("PUBLIC_HOSTNAME"); hostname != "" {
		return hostname
	}

	scheme := "https"
	if r.TLS == nil {
		scheme = "http"
	}

	return fmt.Sprintf("%s://%s", scheme, r.Host)
}

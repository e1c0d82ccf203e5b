package api

import (
	"net/url"
	"strings"
)

// DefaultBaseURL is the hosted backend used when nothing else is configured.
const DefaultBaseURL = "https://itb-back.up.railway.app"

// Endpoint path templates. Placeholders are substituted verbatim.
const (
	EndpointHealth     = "/health"
	EndpointPairLatest = "/api/pairs/{address}/latest"
	EndpointPairAPR    = "/api/pairs/{address}/apr"
	EndpointPairByAddr = "/api/pairs/{address}"
)

// QueryParam is a single query string entry. Order is preserved when building URLs.
type QueryParam struct {
	Key   string
	Value string
}

// Config holds the backend origin.
type Config struct {
	BaseURL string
}

// BuildURL joins the base URL with endpoint, substitutes {name} placeholders from pathParams and
// appends query parameters in insertion order. Inputs are not validated.
func (c Config) BuildURL(endpoint string, pathParams map[string]string, query []QueryParam) string {
	base := strings.TrimRight(c.BaseURL, "/")
	path := endpoint
	for name, value := range pathParams {
		path = strings.ReplaceAll(path, "{"+name+"}", value)
	}

	u := base + path
	if len(query) == 0 {
		return u
	}

	parts := make([]string, 0, len(query))
	for _, param := range query {
		parts = append(parts, url.QueryEscape(param.Key)+"="+url.QueryEscape(param.Value))
	}
	return u + "?" + strings.Join(parts, "&")
}

// BuildURL builds a URL against DefaultBaseURL.
func BuildURL(endpoint string, pathParams map[string]string, query []QueryParam) string {
	return Config{BaseURL: DefaultBaseURL}.BuildURL(endpoint, pathParams, query)
}

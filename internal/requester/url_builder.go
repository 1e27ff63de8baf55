package requester

import (
	"net/url"
	"strings"
)

// queryItem is one name=value pair, already encoded
type queryItem struct {
	name  string
	value string
}

// BuildURL turns an endpoint into a fully qualified URL. Query items from the
// endpoint URL are kept; parameters (query string endpoints only), a
// query-located API key and the additional query string are appended in
// that order. Items are never deduplicated.
func BuildURL(ep Endpoint) (*url.URL, error) {
	raw := ep.URL()
	if raw == "" {
		return nil, newAPIError(InvalidEndpointAPIDefinition, nil, nil)
	}
	u, err := url.Parse(raw)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return nil, newAPIError(InvalidEndpointAPIDefinition, nil, nil)
	}

	var items []queryItem
	if ep.ParamsType() == ParamsQueryString {
		for k, v := range ep.Parameters() {
			items = append(items, queryItem{name: QueryEscape(k), value: QueryEscape(v)})
		}
	}

	// The key value is written verbatim, only ordinary parameters are escaped.
	if hasAPIKey(ep, LocationQueryString) {
		items = append(items, queryItem{name: *ep.APIKeyName(), value: *ep.APIKey()})
	}

	for k, v := range ep.AdditionalQueryString() {
		items = append(items, queryItem{name: QueryEscape(k), value: QueryEscape(v)})
	}

	if len(items) == 0 {
		return u, nil
	}

	parts := make([]string, 0, len(items)+1)
	if u.RawQuery != "" {
		parts = append(parts, u.RawQuery)
	}
	for _, item := range items {
		parts = append(parts, item.name+"="+item.value)
	}
	u.RawQuery = strings.Join(parts, "&")
	u.ForceQuery = false

	return u, nil
}

// StringURL returns the built URL of an endpoint as text, or false when the
// endpoint does not describe a valid URL.
func StringURL(ep Endpoint) (string, bool) {
	u, err := BuildURL(ep)
	if err != nil {
		return "", false
	}
	return u.String(), true
}

package requester

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
)

const (
	contentTypeForm = "application/x-www-form-urlencoded"
	contentTypeJSON = "application/json"
)

// BuildRequest builds a request from an endpoint. Headers and shared headers
// are added in that order without replacing earlier values, so a name present
// in both carries both values.
func BuildRequest(ep Endpoint) (*Request, error) {
	u, err := BuildURL(ep)
	if err != nil {
		return nil, err
	}

	req := &Request{
		Method: ep.Method(),
		URL:    u,
		Header: make(http.Header),
	}

	for key, value := range ep.Headers() {
		req.Header.Add(key, value)
	}
	for key, value := range ep.SharedHeaders() {
		req.Header.Add(key, value)
	}

	if hasAPIKey(ep, LocationHeader) {
		req.Header.Add(*ep.APIKeyName(), *ep.APIKey())
	}

	body, err := createRequestBody(ep, req.Header)
	if err != nil {
		return nil, err
	}
	req.Body = body

	return req, nil
}

func createRequestBody(ep Endpoint, header http.Header) ([]byte, error) {
	params := ep.Parameters()
	if len(params) == 0 {
		return nil, nil
	}

	if header.Get("Content-Type") == contentTypeForm {
		return []byte(FormEncode(params)), nil
	}

	if ep.ParamsType() != ParamsJSONBody {
		return nil, nil
	}

	if header.Get("Content-Type") == "" {
		header.Set("Content-Type", contentTypeJSON)
	}
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(params); err != nil {
		return nil, fmt.Errorf("failed to marshal request body: %w", err)
	}
	return bytes.TrimSuffix(buf.Bytes(), []byte("\n")), nil
}

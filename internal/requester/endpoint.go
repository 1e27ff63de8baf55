package requester

import (
	"fmt"
	"net/http"

	"github.com/gorilla/schema"
)

// Method is the HTTP verb of an endpoint
type Method string

const (
	MethodGet     Method = http.MethodGet
	MethodPost    Method = http.MethodPost
	MethodPut     Method = http.MethodPut
	MethodDelete  Method = http.MethodDelete
	MethodHead    Method = http.MethodHead
	MethodOptions Method = http.MethodOptions
)

// ParseMethod maps a verb name onto a supported Method
func ParseMethod(s string) (Method, error) {
	switch m := Method(s); m {
	case MethodGet, MethodPost, MethodPut, MethodDelete, MethodHead, MethodOptions:
		return m, nil
	default:
		return "", fmt.Errorf("unsupported method: %q", s)
	}
}

// ParamsType decides where Parameters are placed in the request
type ParamsType int

const (
	ParamsQueryString ParamsType = iota
	ParamsJSONBody
)

func (p ParamsType) String() string {
	if p == ParamsJSONBody {
		return "json_body"
	}
	return "query_string"
}

// ValueLocation says where the API key goes. LocationNone means no location was given.
type ValueLocation int

const (
	LocationNone ValueLocation = iota
	LocationHeader
	LocationQueryString
)

// ParseValueLocation maps "header" and "query" (as used by OpenAPI and config files)
// onto a ValueLocation. Empty input yields LocationNone.
func ParseValueLocation(s string) (ValueLocation, error) {
	switch s {
	case "":
		return LocationNone, nil
	case "header":
		return LocationHeader, nil
	case "query", "query_string":
		return LocationQueryString, nil
	default:
		return LocationNone, fmt.Errorf("unsupported value location: %q", s)
	}
}

func (l ValueLocation) String() string {
	switch l {
	case LocationHeader:
		return "header"
	case LocationQueryString:
		return "query"
	default:
		return "none"
	}
}

// Endpoint describes one API call. Applications usually implement it on a
// closed set of variants (one value per logical call), see music.API.
type Endpoint interface {
	Method() Method
	BaseURL() string
	Path() string
	// URL is BaseURL()+Path() unless the endpoint overrides it
	URL() string
	ParamsType() ParamsType
	Parameters() map[string]string
	AdditionalQueryString() map[string]string
	APIKeyRequired() bool
	APIKey() *string
	APIKeyName() *string
	APIKeyLocation() ValueLocation
	Headers() map[string]string
	SharedHeaders() map[string]string
}

// Definition is a data-only Endpoint
type Definition struct {
	HTTPMethod    Method            `json:"method"`
	Base          string            `json:"base_url"`
	RoutePath     string            `json:"path"`
	URLOverride   string            `json:"url,omitempty"`
	Params        ParamsType        `json:"params_type"`
	Parameter     map[string]string `json:"parameters,omitempty"`
	ExtraQuery    map[string]string `json:"additional_query_string,omitempty"`
	KeyRequired   bool              `json:"api_key_required"`
	Key           *string           `json:"-"`
	KeyName       *string           `json:"api_key_name,omitempty"`
	KeyLocation   ValueLocation     `json:"api_key_location"`
	Header        map[string]string `json:"headers,omitempty"`
	SharedHeader  map[string]string `json:"shared_headers,omitempty"`
	Description   string            `json:"description,omitempty"`
	OperationName string            `json:"operation,omitempty"`
}

var _ Endpoint = (*Definition)(nil)

func (d *Definition) Method() Method  { return d.HTTPMethod }
func (d *Definition) BaseURL() string { return d.Base }
func (d *Definition) Path() string    { return d.RoutePath }

func (d *Definition) URL() string {
	if d.URLOverride != "" {
		return d.URLOverride
	}
	return d.Base + d.RoutePath
}

func (d *Definition) ParamsType() ParamsType                   { return d.Params }
func (d *Definition) Parameters() map[string]string            { return d.Parameter }
func (d *Definition) AdditionalQueryString() map[string]string { return d.ExtraQuery }
func (d *Definition) APIKeyRequired() bool                     { return d.KeyRequired }
func (d *Definition) APIKey() *string                          { return d.Key }
func (d *Definition) APIKeyName() *string                      { return d.KeyName }
func (d *Definition) APIKeyLocation() ValueLocation            { return d.KeyLocation }
func (d *Definition) Headers() map[string]string               { return d.Header }
func (d *Definition) SharedHeaders() map[string]string         { return d.SharedHeader }

// Clone returns a copy whose maps can be changed without touching d
func (d *Definition) Clone() *Definition {
	c := *d
	c.Parameter = copyMap(d.Parameter)
	c.ExtraQuery = copyMap(d.ExtraQuery)
	c.Header = copyMap(d.Header)
	c.SharedHeader = copyMap(d.SharedHeader)
	return &c
}

// String returns a pointer to s, for the optional API key fields
func String(s string) *string {
	return &s
}

func copyMap(m map[string]string) map[string]string {
	if m == nil {
		return nil
	}
	out := make(map[string]string, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

var paramsEncoder = schema.NewEncoder()

func init() {
	paramsEncoder.SetAliasTag("url")
}

// ParamsFromStruct flattens a struct tagged with `url:"name"` into a parameters
// mapping. Multi-valued fields keep their first value only since parameters are
// single-valued.
func ParamsFromStruct(v any) (map[string]string, error) {
	values := make(map[string][]string)
	if err := paramsEncoder.Encode(v, values); err != nil {
		return nil, fmt.Errorf("failed to encode parameters: %w", err)
	}

	params := make(map[string]string, len(values))
	for k, vs := range values {
		if len(vs) > 0 {
			params[k] = vs[0]
		}
	}
	return params, nil
}

// hasAPIKey reports whether the endpoint asks for the key at loc and supplies both key and name
func hasAPIKey(ep Endpoint, loc ValueLocation) bool {
	return ep.APIKeyRequired() && ep.APIKey() != nil && ep.APIKeyName() != nil && ep.APIKeyLocation() == loc
}

package music

import (
	"github.com/brizzai/swapi/internal/requester"
)

const (
	// BaseURL is the root of the iTunes search service
	BaseURL = "https://itunes.apple.com/"
	// DefaultLimit is used when a search does not set one
	DefaultLimit = 25
)

// API is the closed set of music service calls
type API interface {
	requester.Endpoint
	musicAPI()
}

// Search looks up tracks matching Term
type Search struct {
	Term  string `url:"term" validate:"required"`
	Limit int    `url:"limit" validate:"gte=1,lte=200"`
}

var _ API = Search{}

func (Search) musicAPI() {}

func (Search) Method() requester.Method { return requester.MethodGet }
func (Search) BaseURL() string          { return BaseURL }
func (Search) Path() string             { return "search" }

func (s Search) URL() string {
	return s.BaseURL() + s.Path()
}

func (Search) ParamsType() requester.ParamsType { return requester.ParamsQueryString }

func (s Search) Parameters() map[string]string {
	// string and int fields always encode
	params, err := requester.ParamsFromStruct(s)
	if err != nil {
		return nil
	}
	return params
}

func (Search) AdditionalQueryString() map[string]string { return nil }
func (Search) APIKeyRequired() bool                     { return false }
func (Search) APIKey() *string                          { return nil }
func (Search) APIKeyName() *string                      { return nil }
func (Search) APIKeyLocation() requester.ValueLocation  { return requester.LocationNone }
func (Search) Headers() map[string]string               { return nil }
func (Search) SharedHeaders() map[string]string         { return nil }

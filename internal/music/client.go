package music

import (
	"context"
	"fmt"

	"github.com/brizzai/swapi/internal/requester"
	"github.com/go-playground/validator/v10"
)

// Client calls the music service through a Requester
type Client struct {
	r        *requester.Requester
	validate *validator.Validate
}

// NewClient creates a Client
func NewClient(r *requester.Requester) *Client {
	return &Client{
		r:        r,
		validate: validator.New(),
	}
}

// Requester returns the underlying requester
func (c *Client) Requester() *requester.Requester {
	return c.r
}

// NewSearch builds a Search, falling back to DefaultLimit for a non-positive limit
func NewSearch(term string, limit int) Search {
	if limit <= 0 {
		limit = DefaultLimit
	}
	return Search{Term: term, Limit: limit}
}

func (c *Client) check(s Search) *requester.APIError {
	if err := c.validate.Struct(s); err != nil {
		return &requester.APIError{
			Kind:  requester.InvalidEndpointAPIDefinition,
			Cause: fmt.Errorf("invalid search: %w", err),
		}
	}
	return nil
}

// Search runs a search and waits for the result. A successful call with an
// empty body returns a nil response.
func (c *Client) Search(ctx context.Context, term string, limit int) (*ResultResponse, error) {
	s := NewSearch(term, limit)
	if apiErr := c.check(s); apiErr != nil {
		return nil, apiErr
	}
	return requester.Do[ResultResponse](ctx, c.r, s).Unwrap()
}

// SearchAsync starts a search. The channel receives one result and is closed.
func (c *Client) SearchAsync(ctx context.Context, term string, limit int) <-chan requester.Result[ResultResponse] {
	s := NewSearch(term, limit)
	if apiErr := c.check(s); apiErr != nil {
		out := make(chan requester.Result[ResultResponse], 1)
		out <- requester.Result[ResultResponse]{Err: apiErr}
		close(out)
		return out
	}
	return requester.RequestAsync[ResultResponse](ctx, c.r, s)
}

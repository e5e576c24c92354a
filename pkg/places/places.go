// Package places looks up venues with the Google Maps Places text search.
package places

import (
	"context"
	"errors"
	"time"

	"masterclass.link/services"

	"googlemaps.github.io/maps"
)

// Client implements services.PlaceLookup.
type Client struct {
	maps    *maps.Client
	timeout time.Duration
}

// Option configures a Client.
type Option func(*options)

type options struct {
	baseURL string
}

// WithBaseURL points the client at another host, tests use an httptest server.
func WithBaseURL(url string) Option {
	return func(o *options) { o.baseURL = url }
}

func NewClient(apiKey string, timeout time.Duration, opts ...Option) (*Client, error) {
	if apiKey == "" {
		return nil, errors.New("google maps api key is empty")
	}
	var o options
	for _, opt := range opts {
		opt(&o)
	}
	clientOpts := []maps.ClientOption{maps.WithAPIKey(apiKey)}
	if o.baseURL != "" {
		clientOpts = append(clientOpts, maps.WithBaseURL(o.baseURL))
	}
	mc, err := maps.NewClient(clientOpts...)
	if err != nil {
		return nil, err
	}
	return &Client{maps: mc, timeout: timeout}, nil
}

// SearchPlaces runs a text search and returns the places in the
// provider's order.
func (c *Client) SearchPlaces(ctx context.Context, query string) ([]services.Place, error) {
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}
	resp, err := c.maps.TextSearch(ctx, &maps.TextSearchRequest{Query: query})
	if err != nil {
		return nil, err
	}
	out := make([]services.Place, 0, len(resp.Results))
	for _, r := range resp.Results {
		out = append(out, services.Place{
			ExternalPlaceID:  r.PlaceID,
			Name:             r.Name,
			FormattedAddress: r.FormattedAddress,
		})
	}
	return out, nil
}

var _ services.PlaceLookup = (*Client)(nil)

package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
)

// Page is the one normalized paginated-collection shape used across every
// list endpoint. Responses that do not conform are rejected at this boundary
// rather than branched on at call sites.
type Page[T any] struct {
	Results    []T   `json:"results"`
	Count      int64 `json:"count"`
	TotalPages int   `json:"total_pages"`
}

// pageEnvelope uses pointer fields so missing keys are distinguishable from
// zero values when validating the envelope.
type pageEnvelope struct {
	Results    *json.RawMessage `json:"results"`
	Count      *int64           `json:"count"`
	TotalPages *int             `json:"total_pages"`
}

// GetPage fetches a collection page from the given path, enforcing the
// normalized envelope {results, count, total_pages}.
func GetPage[T any](ctx context.Context, c *Client, path string, query url.Values) (*Page[T], error) {
	data, err := c.DoRaw(ctx, "GET", path+Query(query), nil)
	if err != nil {
		return nil, err
	}
	return DecodePage[T](data)
}

// DecodePage validates and decodes a paginated envelope.
func DecodePage[T any](data []byte) (*Page[T], error) {
	var env pageEnvelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedEnvelope, err)
	}
	if env.Results == nil || env.Count == nil || env.TotalPages == nil {
		return nil, fmt.Errorf("%w: missing results, count or total_pages", ErrMalformedEnvelope)
	}

	page := &Page[T]{
		Results:    make([]T, 0),
		Count:      *env.Count,
		TotalPages: *env.TotalPages,
	}
	if err := json.Unmarshal(*env.Results, &page.Results); err != nil {
		return nil, fmt.Errorf("%w: results: %v", ErrMalformedEnvelope, err)
	}
	return page, nil
}

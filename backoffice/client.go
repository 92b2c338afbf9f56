// Package backoffice is the typed surface of the take-out back-office API:
// employees, categories, dishes, setmeals, orders, shop status, the live
// workspace dashboard, and statistical reports. Every call runs through the
// authenticated request pipeline in package api.
package backoffice

import (
	"net/url"
	"strconv"

	"github.com/pkg/errors"

	"github.com/kaiwenyao/firmament-backoffice/api"
)

// Client groups the domain operations over one shared pipeline.
type Client struct {
	api *api.Client
}

func NewClient(pipeline *api.Client) (*Client, error) {
	if pipeline == nil {
		return nil, errors.New("[backoffice.NewClient] pipeline is required")
	}
	return &Client{api: pipeline}, nil
}

// Pipeline exposes the underlying request pipeline for callers that need the
// raw endpoints (export, upload).
func (c *Client) Pipeline() *api.Client {
	return c.api
}

// PageQuery carries the common pagination parameters.
type PageQuery struct {
	Page     int
	PageSize int
}

func (q PageQuery) values() url.Values {
	v := url.Values{}
	v.Set("page", strconv.Itoa(q.Page))
	v.Set("pageSize", strconv.Itoa(q.PageSize))
	return v
}

// setInt adds an optional numeric filter.
func setInt(v url.Values, key string, val *int) {
	if val != nil {
		v.Set(key, strconv.Itoa(*val))
	}
}

// setString adds an optional string filter, skipping empties.
func setString(v url.Values, key, val string) {
	if val != "" {
		v.Set(key, val)
	}
}

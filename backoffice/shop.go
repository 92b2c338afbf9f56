package backoffice

import (
	"context"
	"fmt"

	"github.com/pkg/errors"
)

// Shop business statuses.
const (
	ShopClosed = 0
	ShopOpen   = 1
)

// ShopStatus reports whether the shop is currently taking orders.
func (c *Client) ShopStatus(ctx context.Context) (int, error) {
	var status int
	if err := c.api.Get(ctx, "/shop/status", nil, &status); err != nil {
		return 0, errors.Wrap(err, "[backoffice.Client.ShopStatus]")
	}
	return status, nil
}

// SetShopStatus opens (1) or closes (0) the shop.
func (c *Client) SetShopStatus(ctx context.Context, status int) error {
	path := fmt.Sprintf("/shop/%d", status)
	return errors.Wrap(c.api.Put(ctx, path, nil, nil, nil), "[backoffice.Client.SetShopStatus]")
}

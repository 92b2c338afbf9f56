package backoffice

import (
	"context"

	"github.com/pkg/errors"
)

// BusinessData is the live dashboard's today-overview block.
type BusinessData struct {
	Turnover            float64 `json:"turnover"`
	ValidOrderCount     int     `json:"validOrderCount"`
	OrderCompletionRate float64 `json:"orderCompletionRate"`
	UnitPrice           float64 `json:"unitPrice"`
	NewUsers            int     `json:"newUsers"`
}

// OrderOverview counts orders per lifecycle bucket.
type OrderOverview struct {
	WaitingOrders   int `json:"waitingOrders"`
	DeliveredOrders int `json:"deliveredOrders"`
	CompletedOrders int `json:"completedOrders"`
	CancelledOrders int `json:"cancelledOrders"`
	AllOrders       int `json:"allOrders"`
}

// ItemOverview covers dishes or setmeals: on sale vs discontinued.
type ItemOverview struct {
	Sold         int `json:"sold"`
	Discontinued int `json:"discontinued"`
}

func (c *Client) BusinessData(ctx context.Context) (*BusinessData, error) {
	var data BusinessData
	if err := c.api.Get(ctx, "/workspace/businessData", nil, &data); err != nil {
		return nil, errors.Wrap(err, "[backoffice.Client.BusinessData]")
	}
	return &data, nil
}

func (c *Client) OrderOverview(ctx context.Context) (*OrderOverview, error) {
	var data OrderOverview
	if err := c.api.Get(ctx, "/workspace/overviewOrders", nil, &data); err != nil {
		return nil, errors.Wrap(err, "[backoffice.Client.OrderOverview]")
	}
	return &data, nil
}

func (c *Client) DishOverview(ctx context.Context) (*ItemOverview, error) {
	var data ItemOverview
	if err := c.api.Get(ctx, "/workspace/overviewDishes", nil, &data); err != nil {
		return nil, errors.Wrap(err, "[backoffice.Client.DishOverview]")
	}
	return &data, nil
}

func (c *Client) SetmealOverview(ctx context.Context) (*ItemOverview, error) {
	var data ItemOverview
	if err := c.api.Get(ctx, "/workspace/overviewSetmeals", nil, &data); err != nil {
		return nil, errors.Wrap(err, "[backoffice.Client.SetmealOverview]")
	}
	return &data, nil
}

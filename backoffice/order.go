package backoffice

import (
	"context"
	"strings"

	"github.com/pkg/errors"
)

// Order statuses as the backend defines them.
const (
	OrderPendingPayment = 1
	OrderToBeConfirmed  = 2
	OrderConfirmed      = 3
	OrderDelivering     = 4
	OrderCompleted      = 5
	OrderCancelled      = 6
)

type OrderDetail struct {
	ID         string  `json:"id,omitempty"`
	Name       string  `json:"name,omitempty"`
	Image      string  `json:"image,omitempty"`
	OrderID    string  `json:"orderId,omitempty"`
	DishID     string  `json:"dishId,omitempty"`
	SetmealID  string  `json:"setmealId,omitempty"`
	DishFlavor string  `json:"dishFlavor,omitempty"`
	Number     int     `json:"number"`
	Amount     float64 `json:"amount"`
}

type Order struct {
	ID              string        `json:"id"`
	Number          string        `json:"number"`
	Status          int           `json:"status"`
	UserID          string        `json:"userId,omitempty"`
	OrderTime       string        `json:"orderTime,omitempty"`
	CheckoutTime    string        `json:"checkoutTime,omitempty"`
	PayMethod       int           `json:"payMethod,omitempty"`
	Amount          float64       `json:"amount"`
	Remark          string        `json:"remark,omitempty"`
	UserName        string        `json:"userName,omitempty"`
	Phone           string        `json:"phone,omitempty"`
	Address         string        `json:"address,omitempty"`
	Consignee       string        `json:"consignee,omitempty"`
	OrderDishes     string        `json:"orderDishes,omitempty"`
	OrderDetailList []OrderDetail `json:"orderDetailList,omitempty"`
}

type OrderPage struct {
	Total   string  `json:"total"`
	Records []Order `json:"records"`
}

// OrderSearchQuery filters the condition search. Begin/End accept either
// "yyyy-MM-ddTHH:mm" or "yyyy-MM-dd HH:mm:ss"; the former is coerced to the
// latter before hitting the wire.
type OrderSearchQuery struct {
	PageQuery
	Number string
	Phone  string
	Status *int
	Begin  string
	End    string
	UserID string
}

// OrderStatistics counts orders per actionable status.
type OrderStatistics struct {
	ToBeConfirmed      int `json:"toBeConfirmed"`
	Confirmed          int `json:"confirmed"`
	DeliveryInProgress int `json:"deliveryInProgress"`
}

func (c *Client) SearchOrders(ctx context.Context, q OrderSearchQuery) (*OrderPage, error) {
	v := q.values()
	setString(v, "number", q.Number)
	setString(v, "phone", q.Phone)
	setInt(v, "status", q.Status)
	setString(v, "beginTime", coerceDateTime(q.Begin))
	setString(v, "endTime", coerceDateTime(q.End))
	setString(v, "userId", q.UserID)

	var page OrderPage
	if err := c.api.Get(ctx, "/order/conditionSearch", v, &page); err != nil {
		return nil, errors.Wrap(err, "[backoffice.Client.SearchOrders]")
	}
	return &page, nil
}

func (c *Client) OrderStatistics(ctx context.Context) (*OrderStatistics, error) {
	var stats OrderStatistics
	if err := c.api.Get(ctx, "/order/statistics", nil, &stats); err != nil {
		return nil, errors.Wrap(err, "[backoffice.Client.OrderStatistics]")
	}
	return &stats, nil
}

func (c *Client) OrderDetails(ctx context.Context, id string) (*Order, error) {
	var order Order
	if err := c.api.Get(ctx, "/order/details/"+id, nil, &order); err != nil {
		return nil, errors.Wrap(err, "[backoffice.Client.OrderDetails]")
	}
	return &order, nil
}

// ConfirmOrder accepts a pending order.
func (c *Client) ConfirmOrder(ctx context.Context, id string) error {
	body := map[string]interface{}{"id": id, "status": OrderConfirmed}
	return errors.Wrap(c.api.Put(ctx, "/order/confirm", nil, body, nil), "[backoffice.Client.ConfirmOrder]")
}

// RejectOrder declines a pending order with a reason.
func (c *Client) RejectOrder(ctx context.Context, id, reason string) error {
	body := map[string]interface{}{"id": id, "rejectionReason": reason}
	return errors.Wrap(c.api.Put(ctx, "/order/rejection", nil, body, nil), "[backoffice.Client.RejectOrder]")
}

// CancelOrder cancels an accepted order with a reason.
func (c *Client) CancelOrder(ctx context.Context, id, reason string) error {
	body := map[string]interface{}{"id": id, "cancelReason": reason}
	return errors.Wrap(c.api.Put(ctx, "/order/cancel", nil, body, nil), "[backoffice.Client.CancelOrder]")
}

func (c *Client) DeliverOrder(ctx context.Context, id string) error {
	return errors.Wrap(c.api.Put(ctx, "/order/delivery/"+id, nil, nil, nil), "[backoffice.Client.DeliverOrder]")
}

func (c *Client) CompleteOrder(ctx context.Context, id string) error {
	return errors.Wrap(c.api.Put(ctx, "/order/complete/"+id, nil, nil, nil), "[backoffice.Client.CompleteOrder]")
}

// coerceDateTime turns the picker format "2024-01-01T12:00" into the backend
// format "2024-01-01 12:00:00". Values already in backend format (or empty)
// pass through unchanged.
func coerceDateTime(s string) string {
	if s == "" || !strings.Contains(s, "T") {
		return s
	}
	return strings.Replace(s, "T", " ", 1) + ":00"
}

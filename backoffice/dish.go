package backoffice

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/pkg/errors"
)

// Sale statuses shared by dishes and setmeals.
const (
	StatusDiscontinued = 0
	StatusOnSale       = 1
)

type DishFlavor struct {
	ID     string `json:"id,omitempty"`
	DishID string `json:"dishId,omitempty"`
	Name   string `json:"name"`
	Value  string `json:"value"`
}

type Dish struct {
	ID           string       `json:"id"`
	Name         string       `json:"name"`
	CategoryID   string       `json:"categoryId"`
	CategoryName string       `json:"categoryName,omitempty"`
	Price        float64      `json:"price"`
	Image        string       `json:"image,omitempty"`
	Description  string       `json:"description,omitempty"`
	Status       int          `json:"status"`
	UpdateTime   string       `json:"updateTime,omitempty"`
	Flavors      []DishFlavor `json:"flavors,omitempty"`
}

type DishForm struct {
	ID          string       `json:"id,omitempty"`
	Name        string       `json:"name"`
	CategoryID  int64        `json:"categoryId"`
	Price       float64      `json:"price"`
	Image       string       `json:"image,omitempty"`
	Description string       `json:"description,omitempty"`
	Status      int          `json:"status"`
	Flavors     []DishFlavor `json:"flavors,omitempty"`
}

type DishPage struct {
	Total   string `json:"total"`
	Records []Dish `json:"records"`
}

type DishPageQuery struct {
	PageQuery
	Name       string
	CategoryID *int
	Status     *int
}

func (c *Client) DishPage(ctx context.Context, q DishPageQuery) (*DishPage, error) {
	v := q.values()
	setString(v, "name", q.Name)
	setInt(v, "categoryId", q.CategoryID)
	setInt(v, "status", q.Status)

	var page DishPage
	if err := c.api.Get(ctx, "/dish/page", v, &page); err != nil {
		return nil, errors.Wrap(err, "[backoffice.Client.DishPage]")
	}
	return &page, nil
}

func (c *Client) SaveDish(ctx context.Context, form DishForm) error {
	return errors.Wrap(c.api.Post(ctx, "/dish", nil, form, nil), "[backoffice.Client.SaveDish]")
}

func (c *Client) UpdateDish(ctx context.Context, form DishForm) error {
	return errors.Wrap(c.api.Put(ctx, "/dish", nil, form, nil), "[backoffice.Client.UpdateDish]")
}

// DeleteDishes removes dishes in one batch; ids go as a comma-joined query.
func (c *Client) DeleteDishes(ctx context.Context, ids []string) error {
	v := url.Values{}
	v.Set("ids", strings.Join(ids, ","))
	return errors.Wrap(c.api.Delete(ctx, "/dish", v, nil), "[backoffice.Client.DeleteDishes]")
}

func (c *Client) SetDishStatus(ctx context.Context, id string, status int) error {
	v := url.Values{}
	v.Set("id", id)
	path := fmt.Sprintf("/dish/status/%d", status)
	return errors.Wrap(c.api.Post(ctx, path, v, nil, nil), "[backoffice.Client.SetDishStatus]")
}

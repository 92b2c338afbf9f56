package backoffice

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/pkg/errors"
)

// SetmealDish links a dish into a combo with a number of copies.
type SetmealDish struct {
	ID        string  `json:"id,omitempty"`
	SetmealID string  `json:"setmealId,omitempty"`
	DishID    string  `json:"dishId"`
	Name      string  `json:"name,omitempty"`
	Price     float64 `json:"price,omitempty"`
	Copies    int     `json:"copies"`
}

type Setmeal struct {
	ID            string        `json:"id"`
	Name          string        `json:"name"`
	CategoryID    string        `json:"categoryId"`
	CategoryName  string        `json:"categoryName,omitempty"`
	Price         float64       `json:"price"`
	Image         string        `json:"image,omitempty"`
	Description   string        `json:"description,omitempty"`
	Status        int           `json:"status"`
	UpdateTime    string        `json:"updateTime,omitempty"`
	SetmealDishes []SetmealDish `json:"setmealDishes,omitempty"`
}

type SetmealForm struct {
	ID            string        `json:"id,omitempty"`
	Name          string        `json:"name"`
	CategoryID    int64         `json:"categoryId"`
	Price         float64       `json:"price"`
	Image         string        `json:"image,omitempty"`
	Description   string        `json:"description,omitempty"`
	Status        int           `json:"status"`
	SetmealDishes []SetmealDish `json:"setmealDishes,omitempty"`
}

type SetmealPage struct {
	Total   string    `json:"total"`
	Records []Setmeal `json:"records"`
}

type SetmealPageQuery struct {
	PageQuery
	Name       string
	CategoryID *int
	Status     *int
}

func (c *Client) SetmealPage(ctx context.Context, q SetmealPageQuery) (*SetmealPage, error) {
	v := q.values()
	setString(v, "name", q.Name)
	setInt(v, "categoryId", q.CategoryID)
	setInt(v, "status", q.Status)

	var page SetmealPage
	if err := c.api.Get(ctx, "/setmeal/page", v, &page); err != nil {
		return nil, errors.Wrap(err, "[backoffice.Client.SetmealPage]")
	}
	return &page, nil
}

func (c *Client) SetmealByID(ctx context.Context, id string) (*Setmeal, error) {
	var sm Setmeal
	if err := c.api.Get(ctx, "/setmeal/"+id, nil, &sm); err != nil {
		return nil, errors.Wrap(err, "[backoffice.Client.SetmealByID]")
	}
	return &sm, nil
}

func (c *Client) SaveSetmeal(ctx context.Context, form SetmealForm) error {
	return errors.Wrap(c.api.Post(ctx, "/setmeal", nil, form, nil), "[backoffice.Client.SaveSetmeal]")
}

func (c *Client) UpdateSetmeal(ctx context.Context, form SetmealForm) error {
	return errors.Wrap(c.api.Put(ctx, "/setmeal", nil, form, nil), "[backoffice.Client.UpdateSetmeal]")
}

func (c *Client) DeleteSetmeals(ctx context.Context, ids []string) error {
	v := url.Values{}
	v.Set("ids", strings.Join(ids, ","))
	return errors.Wrap(c.api.Delete(ctx, "/setmeal", v, nil), "[backoffice.Client.DeleteSetmeals]")
}

func (c *Client) SetSetmealStatus(ctx context.Context, id string, status int) error {
	v := url.Values{}
	v.Set("id", id)
	path := fmt.Sprintf("/setmeal/status/%d", status)
	return errors.Wrap(c.api.Post(ctx, path, v, nil, nil), "[backoffice.Client.SetSetmealStatus]")
}

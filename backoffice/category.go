package backoffice

import (
	"context"
	"fmt"
	"net/url"
	"strconv"

	"github.com/pkg/errors"
)

// Category types: 1 dish category, 2 setmeal category.
const (
	CategoryTypeDish    = 1
	CategoryTypeSetmeal = 2
)

type Category struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	Type       int    `json:"type"`
	Sort       int    `json:"sort"`
	Status     int    `json:"status"`
	CreateTime string `json:"createTime,omitempty"`
	UpdateTime string `json:"updateTime,omitempty"`
}

type CategoryForm struct {
	ID   string `json:"id,omitempty"`
	Name string `json:"name"`
	Type int    `json:"type"`
	Sort int    `json:"sort"`
}

type CategoryPage struct {
	Total   string     `json:"total"`
	Records []Category `json:"records"`
}

type CategoryPageQuery struct {
	PageQuery
	Name string
	Type *int
}

func (c *Client) CategoryPage(ctx context.Context, q CategoryPageQuery) (*CategoryPage, error) {
	v := q.values()
	setString(v, "name", q.Name)
	setInt(v, "type", q.Type)

	var page CategoryPage
	if err := c.api.Get(ctx, "/category/page", v, &page); err != nil {
		return nil, errors.Wrap(err, "[backoffice.Client.CategoryPage]")
	}
	return &page, nil
}

// CategoriesByType lists every category of the given type, unpaged.
func (c *Client) CategoriesByType(ctx context.Context, categoryType int) ([]Category, error) {
	v := url.Values{}
	v.Set("type", strconv.Itoa(categoryType))

	var list []Category
	if err := c.api.Get(ctx, "/category/list", v, &list); err != nil {
		return nil, errors.Wrap(err, "[backoffice.Client.CategoriesByType]")
	}
	return list, nil
}

func (c *Client) SaveCategory(ctx context.Context, form CategoryForm) error {
	return errors.Wrap(c.api.Post(ctx, "/category", nil, form, nil), "[backoffice.Client.SaveCategory]")
}

func (c *Client) UpdateCategory(ctx context.Context, form CategoryForm) error {
	return errors.Wrap(c.api.Put(ctx, "/category", nil, form, nil), "[backoffice.Client.UpdateCategory]")
}

func (c *Client) DeleteCategory(ctx context.Context, id string) error {
	v := url.Values{}
	v.Set("id", id)
	return errors.Wrap(c.api.Delete(ctx, "/category", v, nil), "[backoffice.Client.DeleteCategory]")
}

func (c *Client) SetCategoryStatus(ctx context.Context, id string, status int) error {
	v := url.Values{}
	v.Set("id", id)
	path := fmt.Sprintf("/category/status/%d", status)
	return errors.Wrap(c.api.Post(ctx, path, v, nil, nil), "[backoffice.Client.SetCategoryStatus]")
}

package backoffice

import (
	"context"
	"fmt"
	"net/url"

	"github.com/pkg/errors"
)

// Employee mirrors the backend's employee view object. The backend
// serialises Long ids as strings.
type Employee struct {
	ID         string `json:"id"`
	Username   string `json:"username"`
	Name       string `json:"name"`
	Phone      string `json:"phone"`
	Sex        string `json:"sex"`
	IDNumber   string `json:"idNumber"`
	Status     int    `json:"status"`
	UpdateTime string `json:"updateTime,omitempty"`
}

// EmployeeForm is the save/update payload.
type EmployeeForm struct {
	ID       string `json:"id,omitempty"`
	Username string `json:"username"`
	Name     string `json:"name"`
	Phone    string `json:"phone"`
	Sex      string `json:"sex"`
	IDNumber string `json:"idNumber"`
}

// EmployeePage is one page of employees.
type EmployeePage struct {
	Total   string     `json:"total"`
	Records []Employee `json:"records"`
}

// EmployeePageQuery filters the employee page query.
type EmployeePageQuery struct {
	PageQuery
	Name string
}

func (c *Client) EmployeePage(ctx context.Context, q EmployeePageQuery) (*EmployeePage, error) {
	v := q.values()
	setString(v, "name", q.Name)

	var page EmployeePage
	if err := c.api.Get(ctx, "/employee/page", v, &page); err != nil {
		return nil, errors.Wrap(err, "[backoffice.Client.EmployeePage]")
	}
	return &page, nil
}

func (c *Client) EmployeeByID(ctx context.Context, id string) (*Employee, error) {
	var emp Employee
	if err := c.api.Get(ctx, "/employee/"+id, nil, &emp); err != nil {
		return nil, errors.Wrap(err, "[backoffice.Client.EmployeeByID]")
	}
	return &emp, nil
}

func (c *Client) SaveEmployee(ctx context.Context, form EmployeeForm) error {
	return errors.Wrap(c.api.Post(ctx, "/employee", nil, form, nil), "[backoffice.Client.SaveEmployee]")
}

func (c *Client) UpdateEmployee(ctx context.Context, form EmployeeForm) error {
	return errors.Wrap(c.api.Put(ctx, "/employee", nil, form, nil), "[backoffice.Client.UpdateEmployee]")
}

// SetEmployeeStatus enables (1) or disables (0) an employee account.
func (c *Client) SetEmployeeStatus(ctx context.Context, id string, status int) error {
	v := url.Values{}
	v.Set("id", id)
	path := fmt.Sprintf("/employee/status/%d", status)
	return errors.Wrap(c.api.Post(ctx, path, v, nil, nil), "[backoffice.Client.SetEmployeeStatus]")
}

package backoffice

import (
	"context"
	"net/http"
	"net/url"

	"github.com/pkg/errors"
)

// Report lists come back as comma-joined strings, one element per day, e.g.
// dateList "2022-10-01,2022-10-02" with turnoverList "406.0,1520.0".

type TurnoverReport struct {
	DateList     string `json:"dateList"`
	TurnoverList string `json:"turnoverList"`
}

type UserReport struct {
	DateList      string `json:"dateList"`
	TotalUserList string `json:"totalUserList"`
	NewUserList   string `json:"newUserList"`
}

type OrderReport struct {
	DateList            string  `json:"dateList"`
	OrderCountList      string  `json:"orderCountList"`
	ValidOrderCountList string  `json:"validOrderCountList"`
	TotalOrderCount     int     `json:"totalOrderCount"`
	ValidOrderCount     int     `json:"validOrderCount"`
	OrderCompletionRate float64 `json:"orderCompletionRate"`
}

type SalesTop10Report struct {
	NameList   string `json:"nameList"`
	NumberList string `json:"numberList"`
}

func rangeValues(begin, end string) url.Values {
	v := url.Values{}
	v.Set("begin", begin)
	v.Set("end", end)
	return v
}

// TurnoverStatistics reports daily turnover between begin and end (yyyy-MM-dd).
func (c *Client) TurnoverStatistics(ctx context.Context, begin, end string) (*TurnoverReport, error) {
	var report TurnoverReport
	if err := c.api.Get(ctx, "/report/turnoverStatistics", rangeValues(begin, end), &report); err != nil {
		return nil, errors.Wrap(err, "[backoffice.Client.TurnoverStatistics]")
	}
	return &report, nil
}

func (c *Client) UserStatistics(ctx context.Context, begin, end string) (*UserReport, error) {
	var report UserReport
	if err := c.api.Get(ctx, "/report/userStatistics", rangeValues(begin, end), &report); err != nil {
		return nil, errors.Wrap(err, "[backoffice.Client.UserStatistics]")
	}
	return &report, nil
}

func (c *Client) OrdersStatistics(ctx context.Context, begin, end string) (*OrderReport, error) {
	var report OrderReport
	if err := c.api.Get(ctx, "/report/ordersStatistics", rangeValues(begin, end), &report); err != nil {
		return nil, errors.Wrap(err, "[backoffice.Client.OrdersStatistics]")
	}
	return &report, nil
}

func (c *Client) SalesTop10(ctx context.Context, begin, end string) (*SalesTop10Report, error) {
	var report SalesTop10Report
	if err := c.api.Get(ctx, "/report/top10", rangeValues(begin, end), &report); err != nil {
		return nil, errors.Wrap(err, "[backoffice.Client.SalesTop10]")
	}
	return &report, nil
}

// ExportReport downloads the 30-day spreadsheet export. The endpoint streams
// a file rather than the envelope, so the bytes come back verbatim.
func (c *Client) ExportReport(ctx context.Context) ([]byte, error) {
	raw, err := c.api.DoRaw(ctx, http.MethodGet, "/report/export", nil)
	if err != nil {
		return nil, errors.Wrap(err, "[backoffice.Client.ExportReport]")
	}
	return raw, nil
}

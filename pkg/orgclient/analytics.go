package orgclient

import (
	"context"
	"net/url"
)

// Statistics fetches appointment statistics for the organization, optionally
// bounded to an inclusive date range. startDate and endDate must be given
// together, as YYYY-MM-DD, or both left empty.
//
// A fetch failure is logged and reported as nil: statistics decorate the
// dashboard, they never block it.
func (c *Client) Statistics(ctx context.Context, startDate, endDate string) *Statistics {
	q := url.Values{}
	if startDate != "" {
		q.Set("start_date", startDate)
	}
	if endDate != "" {
		q.Set("end_date", endDate)
	}

	var stats Statistics
	if err := c.get(ctx, "/api/org/appointments/statistics", q, &stats); err != nil {
		c.logger.Warn("statistics fetch failed", "error", err)
		return nil
	}
	return &stats
}

// DashboardOverview fetches the organization dashboard summary. Requires an
// organization admin session.
func (c *Client) DashboardOverview(ctx context.Context) (*Overview, error) {
	var overview Overview
	if err := c.get(ctx, "/api/org/dashboard/overview", nil, &overview); err != nil {
		return nil, err
	}
	return &overview, nil
}

// Report fetches the engagement report, optionally bounded to an inclusive
// date range. startDate and endDate must be given together, as YYYY-MM-DD,
// or both left empty. Requires an organization admin session.
func (c *Client) Report(ctx context.Context, startDate, endDate string) (*Report, error) {
	q := url.Values{}
	if startDate != "" {
		q.Set("start_date", startDate)
	}
	if endDate != "" {
		q.Set("end_date", endDate)
	}

	var report Report
	if err := c.get(ctx, "/api/org/dashboard/reports", q, &report); err != nil {
		return nil, err
	}
	return &report, nil
}

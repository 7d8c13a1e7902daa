// LANWatch - Network Monitoring Ingestion and State Reconciliation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/lanwatch

package api

import (
	"fmt"
	"net/http"

	"github.com/tomtom215/lanwatch/internal/config"
	"github.com/tomtom215/lanwatch/internal/models"
)

// DevicesRequest holds the validated query of GET /devices.
//
// Fields:
//   - Status: active or idle; empty lists both
//   - Page: 1-based page number
//   - PageSize: devices per page, at most api.max_page_size
type DevicesRequest struct {
	Status   string `query:"status" validate:"omitempty,oneof=active idle"`
	Page     int    `query:"page" validate:"min=1,max=1000000"`
	PageSize int    `query:"page_size" validate:"min=1"`
}

// EventsRequest holds the validated query of GET /events.
type EventsRequest struct {
	Limit int    `query:"limit" validate:"min=1"`
	Type  string `query:"type" validate:"omitempty,eventtype"`
}

func parseDevicesRequest(r *http.Request, cfg config.APIConfig) (DevicesRequest, *models.APIError) {
	req := DevicesRequest{Status: r.URL.Query().Get("status")}

	var apiErr *models.APIError
	if req.Page, apiErr = parseIntParam(r, "page", 1); apiErr != nil {
		return req, apiErr
	}
	if req.PageSize, apiErr = parseIntParam(r, "page_size", cfg.DefaultPageSize); apiErr != nil {
		return req, apiErr
	}
	if apiErr = validateRequest(&req); apiErr != nil {
		return req, apiErr
	}
	if req.PageSize > cfg.MaxPageSize {
		return req, upperBoundError("page_size", cfg.MaxPageSize)
	}
	return req, nil
}

func parseEventsRequest(r *http.Request, cfg config.APIConfig, capacity int) (EventsRequest, *models.APIError) {
	req := EventsRequest{Type: r.URL.Query().Get("type")}

	var apiErr *models.APIError
	if req.Limit, apiErr = parseIntParam(r, "limit", cfg.DefaultEventLimit); apiErr != nil {
		return req, apiErr
	}
	if apiErr = validateRequest(&req); apiErr != nil {
		return req, apiErr
	}
	if capacity > 0 && req.Limit > capacity {
		req.Limit = capacity
	}
	return req, nil
}

func upperBoundError(field string, limit int) *models.APIError {
	return &models.APIError{
		Code:    ErrCodeValidationFailed,
		Message: fmt.Sprintf("%s must be at most %d", field, limit),
		Details: map[string]interface{}{"field": field, "tag": "max"},
	}
}

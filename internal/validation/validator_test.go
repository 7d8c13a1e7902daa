// LANWatch - Network Monitoring Ingestion and State Reconciliation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/lanwatch

package validation

import (
	"strings"
	"testing"
)

func TestGetValidator_Singleton(t *testing.T) {
	v1 := GetValidator()
	v2 := GetValidator()
	if v1 == nil || v1 != v2 {
		t.Error("GetValidator() should return the same non-nil instance")
	}
}

type feedSection struct {
	URL string `koanf:"url" validate:"required,wsurl"`
}

type sampleConfig struct {
	Feed   feedSection `koanf:"feed"`
	Mirror string      `koanf:"mirror_url" validate:"omitempty,natsurl"`
}

func TestValidateStruct_CustomURLTags(t *testing.T) {
	tests := []struct {
		name      string
		cfg       sampleConfig
		wantField string
	}{
		{"valid ws", sampleConfig{Feed: feedSection{URL: "ws://localhost:8000/ws/frontend"}}, ""},
		{"valid wss and nats", sampleConfig{Feed: feedSection{URL: "wss://feed.lan/ws"}, Mirror: "nats://127.0.0.1:4222"}, ""},
		{"http feed rejected", sampleConfig{Feed: feedSection{URL: "http://localhost:8000"}}, "feed.url"},
		{"missing host", sampleConfig{Feed: feedSection{URL: "ws:///ws/frontend"}}, "feed.url"},
		{"empty feed", sampleConfig{}, "feed.url"},
		{"bad mirror scheme", sampleConfig{Feed: feedSection{URL: "ws://h"}, Mirror: "amqp://h"}, "mirror_url"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateStruct(&tt.cfg)
			if tt.wantField == "" {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			if err == nil {
				t.Fatalf("expected error on %s", tt.wantField)
			}
			if got := err.Errors()[0].Field(); got != tt.wantField {
				t.Errorf("Field() = %q, want %q", got, tt.wantField)
			}
		})
	}
}

type eventsQuery struct {
	Limit int    `query:"limit" validate:"min=1,max=500"`
	Type  string `query:"type" validate:"omitempty,eventtype"`
}

func TestValidateStruct_EventType(t *testing.T) {
	if err := ValidateStruct(&eventsQuery{Limit: 10, Type: "metric"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	err := ValidateStruct(&eventsQuery{Limit: 10, Type: "reboot"})
	if err == nil {
		t.Fatal("expected error for unknown event type")
	}
	if !strings.Contains(err.Error(), "type must be one of") {
		t.Errorf("Error() = %q", err.Error())
	}
}

func TestToAPIError(t *testing.T) {
	single := ValidateStruct(&eventsQuery{Limit: 0})
	if single == nil {
		t.Fatal("expected error")
	}
	apiErr := single.ToAPIError()
	if apiErr.Code != "VALIDATION_ERROR" {
		t.Errorf("Code = %q", apiErr.Code)
	}
	if apiErr.Message != "limit must be at least 1" {
		t.Errorf("Message = %q", apiErr.Message)
	}
	if apiErr.Details["field"] != "limit" {
		t.Errorf("Details[field] = %v", apiErr.Details["field"])
	}

	multi := ValidateStruct(&eventsQuery{Limit: 1000, Type: "nope"})
	if multi == nil {
		t.Fatal("expected error")
	}
	fields, ok := multi.ToAPIError().Details["fields"].([]map[string]interface{})
	if !ok || len(fields) != 2 {
		t.Errorf("expected 2 field entries, got %v", multi.ToAPIError().Details)
	}
}

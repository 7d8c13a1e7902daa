// LANWatch - Network Monitoring Ingestion and State Reconciliation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/lanwatch

package services

import (
	"context"
	"errors"

	"github.com/thejerf/suture/v4"

	"github.com/tomtom215/lanwatch/internal/engine"
)

// Engine is the part of *engine.Engine the service needs.
type Engine interface {
	Serve(ctx context.Context) error
}

// EngineService supervises the ingestion engine.
type EngineService struct {
	engine Engine
	name   string
}

// NewEngineService wraps eng.
func NewEngineService(eng Engine) *EngineService {
	return &EngineService{engine: eng, name: "ingest-engine"}
}

// Serve runs the engine. An engine that was disconnected or already ran
// cannot be started again, so both cases tell suture not to restart.
func (s *EngineService) Serve(ctx context.Context) error {
	err := s.engine.Serve(ctx)
	switch {
	case err == nil:
		return suture.ErrDoNotRestart
	case errors.Is(err, engine.ErrAlreadyStarted):
		return suture.ErrDoNotRestart
	default:
		return err
	}
}

func (s *EngineService) String() string {
	return s.name
}

// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package service

import (
	"context"
	"fmt"
	"sync"

	"github.com/MKhiriev/go-flock-sync/internal/adapter"
	"github.com/MKhiriev/go-flock-sync/models"
)

// HandlerRegistry maps action types to the handlers that replay them. The
// built-in types all submit through the API adapter; consumers can register
// additional types or override the defaults before Initialize.
type HandlerRegistry struct {
	mu       sync.RWMutex
	handlers map[models.ActionType]ActionHandler
}

// NewHandlerRegistry returns a registry preloaded with the built-in action
// types, all submitting through api.
func NewHandlerRegistry(api adapter.APIClient) *HandlerRegistry {
	submit := func(ctx context.Context, action models.QueuedAction) error {
		return api.Submit(ctx, action)
	}

	return &HandlerRegistry{
		handlers: map[models.ActionType]ActionHandler{
			models.ActionCheckIn:     submit,
			models.ActionRSVP:        submit,
			models.ActionGroupJoin:   submit,
			models.ActionPathwayStep: submit,
		},
	}
}

// Register sets the handler for an action type, replacing any previous one.
func (r *HandlerRegistry) Register(actionType models.ActionType, handler ActionHandler) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.handlers[actionType] = handler
}

// Dispatch runs the handler registered for the action's type.
func (r *HandlerRegistry) Dispatch(ctx context.Context, action models.QueuedAction) error {
	r.mu.RLock()
	handler, ok := r.handlers[action.Type]
	r.mu.RUnlock()

	if !ok {
		return fmt.Errorf("action type %q: %w", action.Type, ErrUnknownActionType)
	}

	return handler(ctx, action)
}

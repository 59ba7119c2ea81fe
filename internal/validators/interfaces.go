// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

// Package validators provides abstractions for input validation and
// enforcement of business rules across the application.
//
// Core concepts:
//   - Validator: generic interface to validate request bodies.
//     Supports optional field-level scoping for targeted validation.
//
// Usage patterns:
//  1. Declare rules with `validate` struct tags on the request models.
//  2. Inject a Validator into the HTTP handlers.
//  3. Call Validate with context, value, and optional field names to enforce rules.
//
// Validation failures wrap [ErrInvalidRequest] and carry one message per
// offending field, named after its JSON key.
package validators

import "context"

// Validator defines a generic validation interface for arbitrary input values.
// Implementations may perform structural validation, semantic checks,
// cross-field rules.
type Validator interface {

	// Validate validates the provided input and optionally
	// restricts validation to specific named fields.
	Validate(context.Context, any, ...string) error
}

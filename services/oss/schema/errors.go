// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package schema assembles an Operation Synthesis Schema (OSS) payload into a
// fully derived in-memory model.
//
// The OSS is a DAG of operations (input, synthesis, replica) that load,
// combine and substitute concept schemas. Assemble turns the raw payload plus
// the caller's visible library items into a Model carrying:
//
//   - the dependency graph built from argument edges (argument → operation)
//   - the containment graph built from block/operation parent pointers
//   - per-operation ownership and consolidation ("diamond synthesis") flags
//   - resolved geometry and aggregate statistics
//
// # Pipeline
//
// Assembly is a fixed sequence of stages. Each stage is a function that
// receives the intermediate assembly value and returns an updated copy, so
// every stage can be exercised on its own in tests.
//
// # Thread Safety
//
// A Model is read-only after Assemble returns and may be shared between
// goroutines. Assemble itself keeps no state between calls.
package schema

import "errors"

// Sentinel errors for assembly.
var (
	// ErrNilInput is returned when Assemble receives a nil payload.
	ErrNilInput = errors.New("nil payload")

	// ErrInvalidPayload is returned when payload fields fail validation.
	ErrInvalidPayload = errors.New("invalid payload")

	// ErrDuplicateID is returned when two operations or two blocks share an id.
	ErrDuplicateID = errors.New("duplicate id")

	// ErrUnknownOperation is returned when an argument, substitution or replica
	// target references an operation missing from the payload.
	ErrUnknownOperation = errors.New("unknown operation")

	// ErrUnknownBlock is returned when a parent pointer references a block
	// missing from the payload.
	ErrUnknownBlock = errors.New("unknown block")

	// ErrOperationCycle is returned when argument edges form a cycle.
	ErrOperationCycle = errors.New("operation dependency cycle")

	// ErrBlockCycle is returned when block parent pointers form a cycle.
	ErrBlockCycle = errors.New("block containment cycle")
)

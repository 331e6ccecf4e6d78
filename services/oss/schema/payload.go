// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package schema

import (
	"fmt"

	"github.com/go-playground/validator/v10"
)

// payloadValidate is the validator instance for payload datatypes.
var payloadValidate = validator.New()

// OperationType is the kind of an operation.
type OperationType string

const (
	// OperationInput loads an existing concept schema.
	OperationInput OperationType = "input"

	// OperationSynthesis combines argument schemas applying substitutions.
	OperationSynthesis OperationType = "synthesis"

	// OperationReplica mirrors the result of another operation.
	OperationReplica OperationType = "replica"
)

// OperationData is one operation as delivered by the data-fetching layer.
type OperationData struct {
	ID            int           `json:"id" yaml:"id" validate:"required,gt=0"`
	Alias         string        `json:"alias" yaml:"alias"`
	Title         string        `json:"title,omitempty" yaml:"title,omitempty"`
	Description   string        `json:"description,omitempty" yaml:"description,omitempty"`
	OperationType OperationType `json:"operation_type" yaml:"operation_type" validate:"required,oneof=input synthesis replica"`

	// Parent is the containing block, if any.
	Parent *int `json:"parent,omitempty" yaml:"parent,omitempty" validate:"omitempty,gt=0"`

	// Result is the attached result schema (library item id), if any.
	Result *int `json:"result,omitempty" yaml:"result,omitempty" validate:"omitempty,gt=0"`

	// Target is the replicated operation. Required for replicas.
	Target *int `json:"target,omitempty" yaml:"target,omitempty" validate:"omitempty,gt=0"`
}

// BlockData is one block as delivered by the data-fetching layer.
type BlockData struct {
	ID          int    `json:"id" yaml:"id" validate:"required,gt=0"`
	Title       string `json:"title" yaml:"title"`
	Description string `json:"description,omitempty" yaml:"description,omitempty"`
	Parent      *int   `json:"parent,omitempty" yaml:"parent,omitempty" validate:"omitempty,gt=0"`
}

// ArgumentData declares that Operation consumes the result of Argument.
type ArgumentData struct {
	Operation int `json:"operation" yaml:"operation" validate:"required,gt=0"`
	Argument  int `json:"argument" yaml:"argument" validate:"required,gt=0"`
}

// SubstitutionData is a substitution pair scoped to an operation.
type SubstitutionData struct {
	Operation         int    `json:"operation" yaml:"operation" validate:"required,gt=0"`
	Original          int    `json:"original" yaml:"original" validate:"required,gt=0"`
	Substitution      int    `json:"substitution" yaml:"substitution" validate:"required,gt=0,nefield=Original"`
	OriginalAlias     string `json:"original_alias,omitempty" yaml:"original_alias,omitempty"`
	SubstitutionAlias string `json:"substitution_alias,omitempty" yaml:"substitution_alias,omitempty"`
}

// NodePosition is a geometry override keyed by item id.
type NodePosition struct {
	ID     int     `json:"id" yaml:"id" validate:"required,gt=0"`
	X      float64 `json:"x" yaml:"x"`
	Y      float64 `json:"y" yaml:"y"`
	Width  float64 `json:"width,omitempty" yaml:"width,omitempty" validate:"gte=0"`
	Height float64 `json:"height,omitempty" yaml:"height,omitempty" validate:"gte=0"`
}

// Layout holds geometry overrides for operations and blocks.
type Layout struct {
	Operations []NodePosition `json:"operations" yaml:"operations" validate:"dive"`
	Blocks     []NodePosition `json:"blocks" yaml:"blocks" validate:"dive"`
}

// Payload is the raw operation schema.
type Payload struct {
	ID            int                `json:"id" yaml:"id" validate:"required,gt=0"`
	Alias         string             `json:"alias" yaml:"alias"`
	Title         string             `json:"title,omitempty" yaml:"title,omitempty"`
	Owner         *int               `json:"owner,omitempty" yaml:"owner,omitempty"`
	Location      string             `json:"location" yaml:"location" validate:"required"`
	Operations    []OperationData    `json:"operations" yaml:"operations" validate:"dive"`
	Blocks        []BlockData        `json:"blocks" yaml:"blocks" validate:"dive"`
	Arguments     []ArgumentData     `json:"arguments" yaml:"arguments" validate:"dive"`
	Substitutions []SubstitutionData `json:"substitutions" yaml:"substitutions" validate:"dive"`
	Layout        Layout             `json:"layout" yaml:"layout"`
}

// Validate checks payload field constraints.
//
// Referential integrity (arguments pointing at real operations, parents at
// real blocks) is checked during assembly, not here.
func (p *Payload) Validate() error {
	if err := payloadValidate.Struct(p); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidPayload, err)
	}
	return nil
}

// LibraryItem is a library entry visible to the current user.
type LibraryItem struct {
	ID       int    `json:"id" yaml:"id"`
	Alias    string `json:"alias" yaml:"alias"`
	Title    string `json:"title,omitempty" yaml:"title,omitempty"`
	Owner    *int   `json:"owner,omitempty" yaml:"owner,omitempty"`
	Location string `json:"location" yaml:"location"`
	Visible  bool   `json:"visible" yaml:"visible"`
}

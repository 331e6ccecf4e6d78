// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package substitution

import (
	"encoding/hex"
	"encoding/json"
	"fmt"

	"github.com/AleutianAI/ConceptOSS/services/oss/rsform"
	"github.com/zeebo/blake3"
)

// Request is a self-contained validation document: the referenced schemas
// and the proposed pairs.
type Request struct {
	Schemas       []rsform.SchemaData `json:"schemas" yaml:"schemas"`
	Substitutions []Pair              `json:"substitutions" yaml:"substitutions"`
}

// IndexSchemas indexes the request schemas in listing order.
//
// Outputs:
//
//	[]*rsform.Schema - Indexed schemas.
//	error - ErrDuplicateSchema or an rsform indexing error.
func (r *Request) IndexSchemas() ([]*rsform.Schema, error) {
	seen := make(map[int]struct{}, len(r.Schemas))
	schemas := make([]*rsform.Schema, 0, len(r.Schemas))
	for _, data := range r.Schemas {
		if _, dup := seen[data.ID]; dup {
			return nil, fmt.Errorf("schema %d: %w", data.ID, ErrDuplicateSchema)
		}
		seen[data.ID] = struct{}{}
		s, err := rsform.NewSchema(data)
		if err != nil {
			return nil, err
		}
		schemas = append(schemas, s)
	}
	return schemas, nil
}

// Build indexes the schemas and creates a Validator for the request.
func (r *Request) Build(opts ...Option) (*Validator, error) {
	schemas, err := r.IndexSchemas()
	if err != nil {
		return nil, fmt.Errorf("build validator: %w", err)
	}
	return New(schemas, r.Substitutions, opts...), nil
}

// Fingerprint returns a hex blake3 digest of the request content.
func (r *Request) Fingerprint() (string, error) {
	data, err := json.Marshal(r)
	if err != nil {
		return "", fmt.Errorf("fingerprint request: %w", err)
	}
	sum := blake3.Sum256(data)
	return hex.EncodeToString(sum[:]), nil
}

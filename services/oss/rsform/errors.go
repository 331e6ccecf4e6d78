// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package rsform

import "errors"

// Sentinel errors for schema indexing.
var (
	// ErrDuplicateConstituent is returned when two items share an id or alias.
	ErrDuplicateConstituent = errors.New("duplicate constituent")

	// ErrUnknownConstituent is returned when an edge references an id that is
	// not part of the schema.
	ErrUnknownConstituent = errors.New("unknown constituent")
)

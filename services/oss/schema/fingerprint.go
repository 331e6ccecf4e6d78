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
	"encoding/hex"
	"encoding/json"
	"fmt"

	"github.com/zeebo/blake3"
)

// Fingerprint returns a hex blake3 digest of the derived model.
//
// The digest covers everything the model serializes (operations, blocks,
// flags, geometry and statistics), so two assemblies of equivalent payloads
// share a fingerprint.
func (m *Model) Fingerprint() (string, error) {
	data, err := json.Marshal(m)
	if err != nil {
		return "", fmt.Errorf("fingerprint oss %d: %w", m.ID, err)
	}
	sum := blake3.Sum256(data)
	return hex.EncodeToString(sum[:]), nil
}

// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/AleutianAI/ConceptOSS/services/oss/schema"
	"github.com/tidwall/jsonc"
	"gopkg.in/yaml.v3"
)

// errUnsupportedFormat is returned for input files with an unknown extension.
var errUnsupportedFormat = errors.New("unsupported input format")

// AssembleInput is the document read by the assemble command.
type AssembleInput struct {
	OSS     schema.Payload       `json:"oss" yaml:"oss"`
	Library []schema.LibraryItem `json:"library" yaml:"library"`
}

// decodeFile reads path and decodes it into v by file extension.
//
// Description:
//
//	.yaml and .yml are decoded with yaml.v3, .json with encoding/json and
//	.jsonc is stripped of comments and trailing commas before JSON decoding.
//
// Outputs:
//
//	error - Read errors, errUnsupportedFormat or a decode error naming the file.
func decodeFile(path string, v any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", path, err)
	}
	if err := decode(path, data, v); err != nil {
		return fmt.Errorf("failed to parse %s: %w", path, err)
	}
	return nil
}

func decode(name string, data []byte, v any) error {
	switch ext := strings.ToLower(filepath.Ext(name)); ext {
	case ".yaml", ".yml":
		return yaml.Unmarshal(data, v)
	case ".json":
		return json.Unmarshal(data, v)
	case ".jsonc":
		return json.Unmarshal(jsonc.ToJSON(data), v)
	default:
		return fmt.Errorf("%w: %q", errUnsupportedFormat, ext)
	}
}

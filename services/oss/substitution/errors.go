// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package substitution checks a proposed table of cross-schema constituent
// identifications and mines additional candidate identifications.
//
// A Validator is built once per request from the referenced schemas and the
// substitution pairs, then Validate runs a fixed pipeline:
//
//  1. suggestion mining (always runs)
//  2. type-class compatibility of every pair
//  3. typification cycle detection over an auxiliary dependency graph
//  4. substitution consistency of typifications and arguments
//
// Validation problems are data, not errors: they are reported through
// Result and its Issues. Only unequalExpressions is a warning; every other
// kind stops the pipeline.
package substitution

import (
	"errors"
	"fmt"
)

// ErrDuplicateSchema is returned when a request lists a schema twice.
var ErrDuplicateSchema = errors.New("duplicate schema")

// MsgSuccess is appended to the message of a valid result.
const MsgSuccess = "Substitutions are correct"

// ErrorKind classifies a validation issue.
type ErrorKind int

const (
	InvalidIDs ErrorKind = iota + 1
	IncorrectCst
	InvalidClasses
	InvalidBasic
	InvalidConstant
	TypificationCycle
	BaseSubstitutionNotSet
	UnequalTypification
	UnequalExpressions
	UnequalArgsCount
	UnequalArgs
)

var kindNames = map[ErrorKind]string{
	InvalidIDs:             "invalidIDs",
	IncorrectCst:           "incorrectCst",
	InvalidClasses:         "invalidClasses",
	InvalidBasic:           "invalidBasic",
	InvalidConstant:        "invalidConstant",
	TypificationCycle:      "typificationCycle",
	BaseSubstitutionNotSet: "baseSubstitutionNotSet",
	UnequalTypification:    "unequalTypification",
	UnequalExpressions:     "unequalExpressions",
	UnequalArgsCount:       "unequalArgsCount",
	UnequalArgs:            "unequalArgs",
}

// kindTemplates are the message formats. Positional verbs refer to Issue
// params, original first.
var kindTemplates = map[ErrorKind]string{
	InvalidIDs:             "Substitution references an unknown constituent",
	IncorrectCst:           "Constituent %[1]s has an incorrect definition",
	InvalidClasses:         "Constituent %[1]s cannot be substituted by %[2]s",
	InvalidBasic:           "Base set %[2]s can only substitute a base or constant set, not %[1]s",
	InvalidConstant:        "Constant set %[2]s can only substitute a constant set, not %[1]s",
	TypificationCycle:      "Substitutions create a typification cycle: %[1]s",
	BaseSubstitutionNotSet: "Substitute %[2]s of %[1]s does not denote a set",
	UnequalTypification:    "Typification of %[1]s differs from %[2]s",
	UnequalExpressions:     "Warning: definitions of %[1]s and %[2]s differ",
	UnequalArgsCount:       "Argument count of %[1]s differs from %[2]s",
	UnequalArgs:            "Argument typifications of %[1]s differ from %[2]s",
}

// String returns the kind name, e.g. "typificationCycle".
func (k ErrorKind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("ErrorKind(%d)", int(k))
}

// MarshalText encodes the kind by name.
func (k ErrorKind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// UnmarshalText decodes a kind name produced by MarshalText.
func (k *ErrorKind) UnmarshalText(text []byte) error {
	for kind, name := range kindNames {
		if name == string(text) {
			*k = kind
			return nil
		}
	}
	return fmt.Errorf("unknown error kind %q", text)
}

// Fatal reports whether the kind makes the substitution table invalid.
func (k ErrorKind) Fatal() bool {
	return k != UnequalExpressions
}

// Issue is one validation finding.
type Issue struct {
	Kind ErrorKind `json:"kind" yaml:"kind"`

	// Params are qualified aliases or cycle paths used in the message.
	Params []string `json:"params,omitempty" yaml:"params,omitempty"`
}

// Message renders the issue.
func (i Issue) Message() string {
	template, ok := kindTemplates[i.Kind]
	if !ok {
		return i.Kind.String()
	}
	args := make([]any, len(i.Params))
	for n, p := range i.Params {
		args[n] = p
	}
	return fmt.Sprintf(template, args...)
}

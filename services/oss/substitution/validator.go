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
	"context"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/AleutianAI/ConceptOSS/services/oss/rsform"
	"go.opentelemetry.io/otel/codes"
)

// DefaultSemanticIndex is the first number used for synthetic aliases. It
// sits above any naturally numbered alias.
const DefaultSemanticIndex = 900

// Options configures a Validator.
type Options struct {
	// SemanticIndex seeds the synthetic alias counter.
	SemanticIndex int

	// Logger receives warnings and debug output. Nil uses slog.Default().
	Logger *slog.Logger
}

// Option is a functional option for configuring a Validator.
type Option func(*Options)

// WithSemanticIndex sets the first synthetic alias number.
func WithSemanticIndex(index int) Option {
	return func(o *Options) {
		o.SemanticIndex = index
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(o *Options) {
		o.Logger = logger
	}
}

// Pair identifies Original with Substitution.
type Pair struct {
	Original     int `json:"original" yaml:"original"`
	Substitution int `json:"substitution" yaml:"substitution"`
}

// Result is the outcome of Validate.
type Result struct {
	Valid bool `json:"valid" yaml:"valid"`

	// Message joins every issue message, and the success message for a
	// valid table, with newlines.
	Message string `json:"message" yaml:"message"`

	// Suggestions are mined candidate pairs. Computed for valid and invalid
	// tables alike.
	Suggestions []Pair `json:"suggestions" yaml:"suggestions"`

	Issues []Issue `json:"issues,omitempty" yaml:"issues,omitempty"`
}

// Validator checks one substitution table against its schemas.
//
// Thread Safety:
//
//	Read-only after New. Validate may be called concurrently.
type Validator struct {
	schemas []*rsform.Schema
	pairs   []Pair
	logger  *slog.Logger

	constituents map[int]*rsform.Constituent
	owner        map[int]*rsform.Schema
	originals    map[int]struct{}
	substitutes  map[int]struct{}

	// mapping renames, per schema id, every constituent of a resolvable pair
	// to the synthetic alias shared by both sides.
	mapping map[int]rsform.AliasMapping
}

// New creates a Validator.
//
// Description:
//
//	Indexes the constituents of every schema and assigns each resolvable
//	pair a synthetic alias built from the substitute's alias letter and a
//	counter starting at the semantic index. A substitute used by several
//	pairs keeps its first synthetic alias.
//
// Inputs:
//
//	schemas - Schemas referenced by the pairs, in display order.
//	pairs - The proposed substitutions, in submission order.
//	opts - Optional configuration.
//
// Outputs:
//
//	*Validator - Ready to Validate.
func New(schemas []*rsform.Schema, pairs []Pair, opts ...Option) *Validator {
	options := Options{SemanticIndex: DefaultSemanticIndex}
	for _, opt := range opts {
		opt(&options)
	}
	logger := options.Logger
	if logger == nil {
		logger = slog.Default()
	}

	v := &Validator{
		schemas:      schemas,
		pairs:        append([]Pair(nil), pairs...),
		logger:       logger,
		constituents: make(map[int]*rsform.Constituent),
		owner:        make(map[int]*rsform.Schema),
		originals:    make(map[int]struct{}, len(pairs)),
		substitutes:  make(map[int]struct{}, len(pairs)),
		mapping:      make(map[int]rsform.AliasMapping, len(schemas)),
	}
	for _, s := range schemas {
		v.mapping[s.ID] = make(rsform.AliasMapping)
		for _, cst := range s.Items {
			v.constituents[cst.ID] = cst
			v.owner[cst.ID] = s
		}
	}

	index := options.SemanticIndex
	for _, pair := range v.pairs {
		v.originals[pair.Original] = struct{}{}
		v.substitutes[pair.Substitution] = struct{}{}

		original, substitution, ok := v.resolve(pair)
		if !ok {
			continue
		}
		subMapping := v.mapping[v.owner[substitution.ID].ID]
		alias, assigned := subMapping[substitution.Alias]
		if !assigned {
			alias = aliasPrefix(substitution.Alias) + strconv.Itoa(index)
			index++
			subMapping[substitution.Alias] = alias
		}
		v.mapping[v.owner[original.ID].ID][original.Alias] = alias
	}
	return v
}

// aliasPrefix returns the first rune of alias, e.g. "X" for "X12".
func aliasPrefix(alias string) string {
	for _, r := range alias {
		return string(r)
	}
	return ""
}

// resolve looks up both sides of a pair.
func (v *Validator) resolve(pair Pair) (*rsform.Constituent, *rsform.Constituent, bool) {
	original, ok := v.constituents[pair.Original]
	if !ok || original.Alias == "" {
		return nil, nil, false
	}
	substitution, ok := v.constituents[pair.Substitution]
	if !ok || substitution.Alias == "" {
		return nil, nil, false
	}
	return original, substitution, true
}

// qualified renders a constituent as "Schema::Alias".
func (v *Validator) qualified(cst *rsform.Constituent) string {
	return v.owner[cst.ID].QualifiedAlias(cst)
}

// run accumulates the findings of one Validate call.
type run struct {
	issues []Issue
}

func (r *run) add(kind ErrorKind, params ...string) {
	r.issues = append(r.issues, Issue{Kind: kind, Params: params})
}

// Validate runs the validation pipeline.
//
// Description:
//
//	Suggestions are always mined. An empty table is valid. Otherwise the
//	compatibility, cycle and consistency stages run in order and the first
//	fatal issue ends validation. Definition mismatches only warn.
//
// Outputs:
//
//	Result - Validity, the joined message, suggestions and issues.
func (v *Validator) Validate(ctx context.Context) Result {
	ctx, span := startValidateSpan(ctx, len(v.schemas), len(v.pairs))
	defer span.End()
	start := time.Now()

	result := v.validate()

	recordValidateMetrics(ctx, time.Since(start), result)
	setValidateSpanResult(span, result)
	if !result.Valid {
		span.SetStatus(codes.Error, "substitutions invalid")
	}
	return result
}

func (v *Validator) validate() Result {
	r := &run{}
	result := Result{Suggestions: v.suggest()}

	stages := []func(*run) bool{
		v.checkCompatibility,
		v.checkCycles,
		v.checkConsistency,
	}
	result.Valid = true
	if len(v.pairs) > 0 {
		for _, stage := range stages {
			if !stage(r) {
				result.Valid = false
				break
			}
		}
	}

	messages := make([]string, 0, len(r.issues)+1)
	for _, issue := range r.issues {
		messages = append(messages, issue.Message())
	}
	if result.Valid {
		messages = append(messages, MsgSuccess)
	} else {
		last := r.issues[len(r.issues)-1]
		v.logger.Debug("substitution table rejected",
			slog.String("kind", last.Kind.String()),
			slog.Any("params", last.Params),
		)
	}
	result.Issues = r.issues
	result.Message = strings.Join(messages, "\n")
	return result
}

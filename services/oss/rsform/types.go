// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package rsform models the read-only view of concept schemas consumed by
// the substitution validator and the relocation filter.
//
// A concept schema is a list of constituents (formal definitions) plus the
// schema's own internal dependency graph. The package also provides the text
// utilities shared by validation: global identifier extraction, alias
// remapping and typification rewriting.
package rsform

import (
	"fmt"

	"github.com/AleutianAI/ConceptOSS/services/oss/graph"
)

// CstType is the kind of a constituent.
type CstType string

const (
	CstBase       CstType = "basic"
	CstConstant   CstType = "constant"
	CstStructured CstType = "structure"
	CstAxiom      CstType = "axiom"
	CstTerm       CstType = "term"
	CstFunction   CstType = "function"
	CstPredicate  CstType = "predicate"
	CstTheorem    CstType = "theorem"
)

// IsBasicConcept reports whether the type is a base set or a constant set.
func (t CstType) IsBasicConcept() bool {
	return t == CstBase || t == CstConstant
}

// CstClass is the role of a constituent inside its schema.
type CstClass string

const (
	ClassBasic     CstClass = "basic"
	ClassDerived   CstClass = "derived"
	ClassStatement CstClass = "statement"
	ClassTemplate  CstClass = "template"
)

// ParseStatus is the outcome of parsing a constituent definition.
type ParseStatus string

const (
	StatusUndefined ParseStatus = "undefined"
	StatusVerified  ParseStatus = "verified"
	StatusIncorrect ParseStatus = "incorrect"
)

// ArgumentInfo describes one declared argument of a function or predicate.
type ArgumentInfo struct {
	Alias        string `json:"alias" yaml:"alias"`
	Typification string `json:"typification" yaml:"typification"`
}

// ParseInfo is the parser output attached to a constituent.
type ParseInfo struct {
	Status       ParseStatus    `json:"status" yaml:"status"`
	Typification string         `json:"typification" yaml:"typification"`
	Args         []ArgumentInfo `json:"args,omitempty" yaml:"args,omitempty"`
}

// Constituent is an atomic formal definition inside a concept schema.
type Constituent struct {
	ID               int       `json:"id" yaml:"id"`
	Schema           int       `json:"schema" yaml:"schema"`
	Alias            string    `json:"alias" yaml:"alias"`
	CstType          CstType   `json:"cst_type" yaml:"cst_type"`
	CstClass         CstClass  `json:"cst_class" yaml:"cst_class"`
	DefinitionFormal string    `json:"definition_formal" yaml:"definition_formal"`
	Parse            ParseInfo `json:"parse" yaml:"parse"`

	// IsInherited is true when the constituent was carried into this schema
	// from an input schema by synthesis.
	IsInherited bool `json:"is_inherited" yaml:"is_inherited"`

	// ParentSchema is the schema the constituent was inherited from.
	ParentSchema *int `json:"parent_schema,omitempty" yaml:"parent_schema,omitempty"`
}

// Inheritance links an inherited constituent to its parent constituent.
type Inheritance struct {
	Child        int `json:"child" yaml:"child"`
	ChildSource  int `json:"child_source" yaml:"child_source"`
	Parent       int `json:"parent" yaml:"parent"`
	ParentSource int `json:"parent_source" yaml:"parent_source"`
}

// Dependency is an internal dependency edge: To uses From.
type Dependency struct {
	From int `json:"from" yaml:"from"`
	To   int `json:"to" yaml:"to"`
}

// SchemaData is the inbound representation of a concept schema.
type SchemaData struct {
	ID           int           `json:"id" yaml:"id"`
	Alias        string        `json:"alias" yaml:"alias"`
	Title        string        `json:"title,omitempty" yaml:"title,omitempty"`
	Items        []Constituent `json:"items" yaml:"items"`
	Inheritance  []Inheritance `json:"inheritance,omitempty" yaml:"inheritance,omitempty"`
	Dependencies []Dependency  `json:"graph,omitempty" yaml:"graph,omitempty"`
}

// Schema is an indexed concept schema with its dependency graph.
//
// Schema is read-only after NewSchema returns.
type Schema struct {
	ID          int
	Alias       string
	Title       string
	Items       []*Constituent
	Inheritance []Inheritance

	// Graph is the internal dependency graph (constituent → dependent).
	Graph *graph.Graph[int]

	byID    map[int]*Constituent
	byAlias map[string]*Constituent
}

// NewSchema indexes schema data and builds its dependency graph.
//
// Description:
//
//	Every item becomes a graph node in item order before dependency edges
//	are added, so traversal order follows the schema listing. Constituents
//	whose Schema field is zero are attributed to this schema.
//
// Outputs:
//
//	*Schema - The indexed schema.
//	error - ErrDuplicateConstituent for repeated ids or aliases,
//	ErrUnknownConstituent for dependency or inheritance edges that reference
//	nothing in the schema.
func NewSchema(data SchemaData) (*Schema, error) {
	s := &Schema{
		ID:          data.ID,
		Alias:       data.Alias,
		Title:       data.Title,
		Inheritance: append([]Inheritance(nil), data.Inheritance...),
		Graph:       graph.New[int](),
		byID:        make(map[int]*Constituent, len(data.Items)),
		byAlias:     make(map[string]*Constituent, len(data.Items)),
	}

	for i := range data.Items {
		cst := data.Items[i]
		if cst.Schema == 0 {
			cst.Schema = data.ID
		}
		if _, exists := s.byID[cst.ID]; exists {
			return nil, fmt.Errorf("schema %s: id %d: %w", data.Alias, cst.ID, ErrDuplicateConstituent)
		}
		if _, exists := s.byAlias[cst.Alias]; exists {
			return nil, fmt.Errorf("schema %s: alias %s: %w", data.Alias, cst.Alias, ErrDuplicateConstituent)
		}
		s.Items = append(s.Items, &cst)
		s.byID[cst.ID] = &cst
		s.byAlias[cst.Alias] = &cst
		s.Graph.AddNode(cst.ID)
	}

	for _, dep := range data.Dependencies {
		if !s.Graph.Has(dep.From) || !s.Graph.Has(dep.To) {
			return nil, fmt.Errorf("schema %s: dependency %d→%d: %w", data.Alias, dep.From, dep.To, ErrUnknownConstituent)
		}
		s.Graph.AddEdge(dep.From, dep.To)
	}

	for _, link := range s.Inheritance {
		if _, ok := s.byID[link.Child]; !ok {
			return nil, fmt.Errorf("schema %s: inheritance child %d: %w", data.Alias, link.Child, ErrUnknownConstituent)
		}
	}
	return s, nil
}

// ByID returns the constituent with the given id.
func (s *Schema) ByID(id int) (*Constituent, bool) {
	cst, ok := s.byID[id]
	return cst, ok
}

// ByAlias returns the constituent with the given alias.
func (s *Schema) ByAlias(alias string) (*Constituent, bool) {
	cst, ok := s.byAlias[alias]
	return cst, ok
}

// InheritanceParent returns the parent constituent id of an inherited
// constituent, if recorded.
func (s *Schema) InheritanceParent(child int) (int, bool) {
	for _, link := range s.Inheritance {
		if link.Child == child && link.ChildSource == s.ID {
			return link.Parent, true
		}
	}
	return 0, false
}

// QualifiedAlias renders a constituent alias prefixed by its schema alias,
// e.g. "S1::X1".
func (s *Schema) QualifiedAlias(cst *Constituent) string {
	return s.Alias + "::" + cst.Alias
}

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
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/AleutianAI/ConceptOSS/services/oss/graph"
	"go.opentelemetry.io/otel/codes"
)

// Default minimum block size applied when no override or a smaller one is
// given.
const (
	DefaultBlockMinWidth  = 160
	DefaultBlockMinHeight = 100
)

// Options configures Assemble.
type Options struct {
	// BlockMinWidth is the smallest width a block may have.
	BlockMinWidth float64

	// BlockMinHeight is the smallest height a block may have.
	BlockMinHeight float64

	// Logger receives per-stage debug output. Nil uses slog.Default().
	Logger *slog.Logger
}

// DefaultOptions returns the default assembly options.
func DefaultOptions() Options {
	return Options{
		BlockMinWidth:  DefaultBlockMinWidth,
		BlockMinHeight: DefaultBlockMinHeight,
	}
}

// Option is a functional option for configuring Assemble.
type Option func(*Options)

// WithBlockMinSize sets the minimum block size.
func WithBlockMinSize(width, height float64) Option {
	return func(o *Options) {
		o.BlockMinWidth = width
		o.BlockMinHeight = height
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(o *Options) {
		o.Logger = logger
	}
}

// assembly is the intermediate value threaded through the pipeline stages.
//
// Stages never mutate the payload. Each stage fills the fields it owns and
// returns the updated value.
type assembly struct {
	payload *Payload
	library map[int]LibraryItem
	options Options
	logger  *slog.Logger

	operationData map[int]*OperationData
	blockData     map[int]*BlockData

	graph     *graph.Graph[int]
	hierarchy *graph.Graph[ItemRef]

	// schemas lists attached result schema ids in first-seen payload order.
	schemas []int

	operations []*Operation
	blocks     []*Block
	stats      Stats
}

// stage is one step of the assembly pipeline.
type stage struct {
	name string
	run  func(assembly) (assembly, error)
}

// pipeline is the fixed stage order. Operations must be derived before
// statistics, and both graphs must exist before anything else.
var pipeline = []stage{
	{name: "graphs", run: buildGraphs},
	{name: "schemas", run: collectSchemas},
	{name: "operations", run: deriveOperations},
	{name: "blocks", run: deriveBlocks},
	{name: "stats", run: computeStats},
}

// newAssembly creates the initial pipeline value.
func newAssembly(payload *Payload, library []LibraryItem, options Options) assembly {
	logger := options.Logger
	if logger == nil {
		logger = slog.Default()
	}
	byID := make(map[int]LibraryItem, len(library))
	for _, item := range library {
		byID[item.ID] = item
	}
	return assembly{
		payload: payload,
		library: byID,
		options: options,
		logger:  logger,
	}
}

// Assemble derives the full OSS model from a raw payload.
//
// Description:
//
//	Validates payload fields, then runs the assembly pipeline: both graphs
//	are built and checked for cycles, attached schemas are collected,
//	operations are derived in topological order (position, ownership,
//	consolidation, arguments, substitutions), blocks get their geometry
//	and statistics are aggregated.
//
// Inputs:
//
//	ctx - Context for tracing.
//	payload - The raw operation schema. Must not be nil.
//	library - Library items visible to the user, used for ownership.
//	opts - Optional configuration.
//
// Outputs:
//
//	*Model - The derived model. Read-only.
//	error - ErrNilInput, ErrInvalidPayload, ErrDuplicateID,
//	ErrUnknownOperation, ErrUnknownBlock, ErrOperationCycle or
//	ErrBlockCycle, wrapped with the offending ids.
//
// Example:
//
//	model, err := schema.Assemble(ctx, payload, library,
//	    schema.WithBlockMinSize(200, 120),
//	)
//
// Thread Safety:
//
//	Safe for concurrent use. Each call works on its own assembly value.
func Assemble(ctx context.Context, payload *Payload, library []LibraryItem, opts ...Option) (*Model, error) {
	if payload == nil {
		return nil, ErrNilInput
	}
	options := DefaultOptions()
	for _, opt := range opts {
		opt(&options)
	}

	ctx, span := startAssembleSpan(ctx, payload)
	defer span.End()
	start := time.Now()

	model, err := assemble(payload, library, options)
	recordAssembleMetrics(ctx, time.Since(start), err == nil)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	setAssembleSpanResult(span, model.Stats)
	return model, nil
}

func assemble(payload *Payload, library []LibraryItem, options Options) (*Model, error) {
	if err := payload.Validate(); err != nil {
		return nil, err
	}

	a := newAssembly(payload, library, options)
	for _, s := range pipeline {
		var err error
		if a, err = s.run(a); err != nil {
			return nil, fmt.Errorf("assemble oss %d: %w", payload.ID, err)
		}
		a.logger.Debug("oss assembly stage done",
			slog.String("stage", s.name),
			slog.Int("oss_id", payload.ID),
		)
	}
	return a.model(), nil
}

// buildGraphs indexes items, builds the dependency and containment graphs
// and checks referential integrity.
func buildGraphs(a assembly) (assembly, error) {
	a.operationData = make(map[int]*OperationData, len(a.payload.Operations))
	a.blockData = make(map[int]*BlockData, len(a.payload.Blocks))
	a.graph = graph.New[int]()
	a.hierarchy = graph.New[ItemRef]()

	for i := range a.payload.Blocks {
		block := &a.payload.Blocks[i]
		if _, exists := a.blockData[block.ID]; exists {
			return a, fmt.Errorf("block %d: %w", block.ID, ErrDuplicateID)
		}
		a.blockData[block.ID] = block
		a.hierarchy.AddNode(BlockRef(block.ID))
	}
	for i := range a.payload.Operations {
		op := &a.payload.Operations[i]
		if _, exists := a.operationData[op.ID]; exists {
			return a, fmt.Errorf("operation %d: %w", op.ID, ErrDuplicateID)
		}
		a.operationData[op.ID] = op
		a.graph.AddNode(op.ID)
		a.hierarchy.AddNode(OperationRef(op.ID))
	}

	for _, arg := range a.payload.Arguments {
		if _, ok := a.operationData[arg.Operation]; !ok {
			return a, fmt.Errorf("argument of operation %d: %w", arg.Operation, ErrUnknownOperation)
		}
		if _, ok := a.operationData[arg.Argument]; !ok {
			return a, fmt.Errorf("argument %d of operation %d: %w", arg.Argument, arg.Operation, ErrUnknownOperation)
		}
		a.graph.AddEdge(arg.Argument, arg.Operation)
	}
	for _, sub := range a.payload.Substitutions {
		if _, ok := a.operationData[sub.Operation]; !ok {
			return a, fmt.Errorf("substitution %d→%d: operation %d: %w", sub.Original, sub.Substitution, sub.Operation, ErrUnknownOperation)
		}
	}
	for _, op := range a.payload.Operations {
		if op.OperationType != OperationReplica {
			continue
		}
		if op.Target == nil {
			return a, fmt.Errorf("%w: replica %d has no target", ErrInvalidPayload, op.ID)
		}
		if _, ok := a.operationData[*op.Target]; !ok || *op.Target == op.ID {
			return a, fmt.Errorf("replica %d target %d: %w", op.ID, *op.Target, ErrUnknownOperation)
		}
	}
	if cycle := a.graph.FindCycle(); cycle != nil {
		return a, fmt.Errorf("%w: %v", ErrOperationCycle, cycle)
	}

	for _, block := range a.payload.Blocks {
		if block.Parent == nil {
			continue
		}
		if _, ok := a.blockData[*block.Parent]; !ok {
			return a, fmt.Errorf("parent %d of block %d: %w", *block.Parent, block.ID, ErrUnknownBlock)
		}
		a.hierarchy.AddEdge(BlockRef(*block.Parent), BlockRef(block.ID))
	}
	for _, op := range a.payload.Operations {
		if op.Parent == nil {
			continue
		}
		if _, ok := a.blockData[*op.Parent]; !ok {
			return a, fmt.Errorf("parent %d of operation %d: %w", *op.Parent, op.ID, ErrUnknownBlock)
		}
		a.hierarchy.AddEdge(BlockRef(*op.Parent), OperationRef(op.ID))
	}
	if cycle := a.hierarchy.FindCycle(); cycle != nil {
		return a, fmt.Errorf("%w: %v", ErrBlockCycle, cycle)
	}
	return a, nil
}

// collectSchemas records the distinct attached result schemas.
func collectSchemas(a assembly) (assembly, error) {
	seen := make(map[int]struct{})
	a.schemas = nil
	for _, op := range a.payload.Operations {
		if op.Result == nil {
			continue
		}
		if _, ok := seen[*op.Result]; ok {
			continue
		}
		seen[*op.Result] = struct{}{}
		a.schemas = append(a.schemas, *op.Result)
	}
	return a, nil
}

// deriveOperations computes per-operation attributes in topological order.
func deriveOperations(a assembly) (assembly, error) {
	positions := make(map[int]NodePosition, len(a.payload.Layout.Operations))
	for _, p := range a.payload.Layout.Operations {
		positions[p.ID] = p
	}

	derived := make(map[int]*Operation, len(a.operationData))
	for _, id := range a.graph.TopologicalOrder() {
		data := a.operationData[id]
		op := &Operation{
			OperationData:   *data,
			IsOwned:         a.isOwned(data),
			IsConsolidation: isConsolidation(a.graph, id),
			Arguments:       []int{},
			Substitutions:   []Substitution{},
		}
		if p, ok := positions[id]; ok {
			op.Position = Position{X: p.X, Y: p.Y}
		}
		for _, arg := range a.payload.Arguments {
			if arg.Operation == id {
				op.Arguments = append(op.Arguments, arg.Argument)
			}
		}
		for _, sub := range a.payload.Substitutions {
			if sub.Operation == id {
				op.Substitutions = append(op.Substitutions, Substitution(sub))
			}
		}
		derived[id] = op
	}

	a.operations = make([]*Operation, 0, len(a.payload.Operations))
	for _, data := range a.payload.Operations {
		a.operations = append(a.operations, derived[data.ID])
	}
	return a, nil
}

// isOwned reports whether the attached schema is absent or shares the OSS
// owner and location. A schema missing from the library is not owned.
func (a assembly) isOwned(op *OperationData) bool {
	if op.Result == nil {
		return true
	}
	item, ok := a.library[*op.Result]
	if !ok {
		return false
	}
	return sameOwner(item.Owner, a.payload.Owner) && item.Location == a.payload.Location
}

func sameOwner(a, b *int) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}

// isConsolidation reports whether some ancestor of id is reachable through
// two or more of its direct arguments.
func isConsolidation(g *graph.Graph[int], id int) bool {
	direct := g.ExpandInputs([]int{id})
	if len(direct) == 0 {
		return false
	}
	ancestors := append([]int(nil), direct...)
	for _, d := range direct {
		ancestors = append(ancestors, g.ExpandAllInputs([]int{d})...)
	}
	unique := make(map[int]struct{}, len(ancestors))
	for _, ancestor := range ancestors {
		unique[ancestor] = struct{}{}
	}
	return len(ancestors) > len(unique)
}

// deriveBlocks resolves block geometry.
func deriveBlocks(a assembly) (assembly, error) {
	overrides := make(map[int]NodePosition, len(a.payload.Layout.Blocks))
	for _, p := range a.payload.Layout.Blocks {
		overrides[p.ID] = p
	}

	a.blocks = make([]*Block, 0, len(a.payload.Blocks))
	for _, data := range a.payload.Blocks {
		geometry := Geometry{
			Width:  a.options.BlockMinWidth,
			Height: a.options.BlockMinHeight,
		}
		if p, ok := overrides[data.ID]; ok {
			geometry.X, geometry.Y = p.X, p.Y
			geometry.Width = max(p.Width, a.options.BlockMinWidth)
			geometry.Height = max(p.Height, a.options.BlockMinHeight)
		}
		a.blocks = append(a.blocks, &Block{BlockData: data, Geometry: geometry})
	}
	return a, nil
}

// computeStats aggregates counts in one pass over the derived items.
//
// CountAll counts operations; blocks are counted separately in CountBlocks.
func computeStats(a assembly) (assembly, error) {
	stats := Stats{
		CountAll:     len(a.operations),
		CountSchemas: len(a.schemas),
		CountBlocks:  len(a.blocks),
	}
	owned := make(map[int]struct{})
	for _, op := range a.operations {
		switch op.OperationType {
		case OperationInput:
			stats.CountInputs++
		case OperationSynthesis:
			stats.CountSynthesis++
		case OperationReplica:
			stats.CountReplicas++
		}
		if op.Result != nil && op.IsOwned {
			owned[*op.Result] = struct{}{}
		}
	}
	stats.CountOwned = len(owned)
	a.stats = stats
	return a, nil
}

// model packages the finished assembly.
func (a assembly) model() *Model {
	m := &Model{
		ID:                a.payload.ID,
		Alias:             a.payload.Alias,
		Title:             a.payload.Title,
		Owner:             a.payload.Owner,
		Location:          a.payload.Location,
		Operations:        a.operations,
		Blocks:            a.blocks,
		Graph:             a.graph,
		Hierarchy:         a.hierarchy,
		Stats:             a.stats,
		operationByID:     make(map[int]*Operation, len(a.operations)),
		blockByID:         make(map[int]*Block, len(a.blocks)),
		operationByResult: make(map[int]*Operation),
	}
	for _, op := range a.operations {
		m.operationByID[op.ID] = op
		if op.Result != nil {
			if _, exists := m.operationByResult[*op.Result]; !exists {
				m.operationByResult[*op.Result] = op
			}
		}
	}
	for _, block := range a.blocks {
		m.blockByID[block.ID] = block
	}
	return m
}

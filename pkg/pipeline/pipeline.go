// Package pipeline wires the four analysis stages for one source unit:
// parse, build, normalize, render. Each call is purely functional over its
// inputs; nothing is cached or shared, so independent units can be analyzed
// concurrently without coordination.
package pipeline

import (
	"fmt"

	"github.com/LLAYUAN/SimulateExe-SelfDebug/pkg/ast"
	"github.com/LLAYUAN/SimulateExe-SelfDebug/pkg/cfg"
	"github.com/LLAYUAN/SimulateExe-SelfDebug/pkg/frontend"
	"github.com/LLAYUAN/SimulateExe-SelfDebug/pkg/render"
)

// SourceUnit is one function or method body to analyze. The caller owns it
// for the duration of one Analyze call; the pipeline never retains it.
type SourceUnit struct {
	Language ast.Language
	Source   []byte
	Function string // empty selects the first function in the source
	Bindings []render.Binding
}

// Options selects rendering and composition behavior for one analysis.
type Options struct {
	Format render.Format
	// Compose inlines every sibling function the selected unit calls,
	// one level deep, before rendering.
	Compose bool
}

// Analysis is the result of one pipeline run. Warnings live on both the
// graph and the rendered path; neither is ever fatal.
type Analysis struct {
	Function string
	Graph    *cfg.Graph
	Path     *render.RenderedPath
}

// Analyze runs parse, build, normalize, and render for one unit.
// ParseError and StructuralError pass through typed for the caller to
// inspect; the caller decides whether to skip the unit or retry.
func Analyze(unit SourceUnit, opts Options) (*Analysis, error) {
	g, err := BuildGraph(unit, opts)
	if err != nil {
		return nil, err
	}

	path := render.Render(g, render.Options{
		Format:   opts.Format,
		Subject:  subject(unit.Language),
		Bindings: unit.Bindings,
	})
	return &Analysis{Function: g.Function, Graph: g, Path: path}, nil
}

// BuildGraph runs parse, build, normalize, and optional composition for one
// unit without rendering it.
func BuildGraph(unit SourceUnit, opts Options) (*cfg.Graph, error) {
	root, err := frontend.Parse(unit.Language, unit.Source)
	if err != nil {
		return nil, err
	}
	fn, err := frontend.FindFunction(root, unit.Function)
	if err != nil {
		return nil, err
	}

	g, err := buildOne(fn)
	if err != nil {
		return nil, err
	}

	if opts.Compose {
		callees, err := siblingGraphs(root, fn)
		if err != nil {
			return nil, err
		}
		if len(callees) > 0 {
			g, err = cfg.Compose(g, callees)
			if err != nil {
				return nil, err
			}
		}
	}
	return g, nil
}

// buildOne builds and normalizes the graph for one function definition.
func buildOne(fn *ast.Node) (*cfg.Graph, error) {
	g, err := cfg.Build(fn)
	if err != nil {
		return nil, err
	}
	return cfg.Normalize(g)
}

// siblingGraphs builds a normalized graph for every other function in the
// parsed source, keyed by name for call-site lookup.
func siblingGraphs(root, selected *ast.Node) (map[string]*cfg.Graph, error) {
	callees := make(map[string]*cfg.Graph)
	for _, fn := range frontend.Functions(root) {
		if fn == selected || fn.Name == "" || fn.Name == selected.Name {
			continue
		}
		g, err := buildOne(fn)
		if err != nil {
			return nil, fmt.Errorf("building callee %s: %w", fn.Name, err)
		}
		callees[fn.Name] = g
	}
	return callees, nil
}

func subject(lang ast.Language) string {
	if lang == ast.LanguageJava {
		return "Method"
	}
	return "Function"
}

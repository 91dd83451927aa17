// Package render serializes a normalized control-flow graph into the textual
// artifact a downstream reasoning process consumes. The output is finite by
// construction: one entry per block, with loop back-edges described as a
// return to an earlier block instead of re-emitting the body.
package render

import (
	"fmt"
	"sort"
	"strings"

	"github.com/LLAYUAN/SimulateExe-SelfDebug/pkg/cfg"
)

// Format selects the textual shape of the artifact.
type Format string

const (
	// FormatPath is the line-grammar form: one line per block,
	// "[<rank>] <shape>: <source-text> -> <successor-description>".
	FormatPath Format = "path"
	// FormatProse is the narrated form: a graph header followed by one
	// sentence per block and per edge.
	FormatProse Format = "prose"
)

// Binding is one test-case input supplied by the caller. Bindings are
// embedded as a labeled prefix and never interpreted.
type Binding struct {
	Name  string `json:"name,omitempty"`
	Value string `json:"value"`
}

// Options controls rendering. The zero value renders the path format with the
// "Function" subject and no bindings.
type Options struct {
	Format   Format
	Subject  string // "Function" or "Method" in the prose header
	Bindings []Binding
}

// RenderedPath is the finished artifact: ordered lines plus the warnings that
// accumulated during build and normalization. It is never mutated after
// creation.
type RenderedPath struct {
	Function string        `json:"function"`
	Lines    []string      `json:"lines"`
	Warnings []cfg.Warning `json:"warnings,omitempty"`
}

// Text joins the lines into the handoff string.
func (p *RenderedPath) Text() string {
	return strings.Join(p.Lines, "\n")
}

// Render serializes the graph. The graph must already be normalized: blocks
// are emitted in block-array order, which normalization makes rank order.
func Render(g *cfg.Graph, opts Options) *RenderedPath {
	p := &RenderedPath{
		Function: g.Function,
		Warnings: append([]cfg.Warning(nil), g.Warnings...),
	}
	for _, b := range opts.Bindings {
		if b.Name != "" {
			p.Lines = append(p.Lines, fmt.Sprintf("binding %s = %s", b.Name, b.Value))
		} else {
			p.Lines = append(p.Lines, "binding "+b.Value)
		}
	}
	if opts.Format == FormatProse {
		p.Lines = append(p.Lines, proseLines(g, opts.Subject)...)
		return p
	}
	p.Lines = append(p.Lines, pathLines(g)...)
	return p
}

// pathLines emits one line per block in rank order. The Exit block is folded
// into the successor descriptions of the blocks that reach it.
func pathLines(g *cfg.Graph) []string {
	var out []string
	for _, b := range g.Blocks {
		if b.Index == g.Exit {
			continue
		}
		var dests []string
		for _, e := range g.Successors(b.Index) {
			dests = append(dests, describeEdge(g, e))
		}
		line := fmt.Sprintf("[%d] %s: %s", b.Rank, b.Shape, b.Text())
		if len(dests) > 0 {
			line += " -> " + strings.Join(dests, "; ")
		}
		out = append(out, line)
	}
	return out
}

// describeEdge phrases one outgoing edge in plain language. Back-edges read
// "return to block N" so a cyclic graph still renders finitely.
func describeEdge(g *cfg.Graph, e cfg.Edge) string {
	target := fmt.Sprintf("block %d", e.To)
	if e.To == g.Exit {
		target = "exit"
	}
	switch e.Label {
	case cfg.LabelBranchTrue:
		return target + " if the condition holds"
	case cfg.LabelBranchFalse:
		return target + " otherwise"
	case cfg.LabelCaseMatch:
		return fmt.Sprintf("%s on case %q", target, e.Value)
	case cfg.LabelExceptionRaised:
		if e.Value == "" || e.Value == "*" {
			return target + " on any raised exception"
		}
		return fmt.Sprintf("%s on raised %s", target, e.Value)
	case cfg.LabelLoopContinue:
		return fmt.Sprintf("return to block %d", e.To)
	case cfg.LabelLoopExit:
		return target + " when the loop exits"
	case cfg.LabelReturn:
		return target
	case cfg.LabelCallEnter:
		return target + " on call entry"
	case cfg.LabelCallReturn:
		return target + " on call return"
	default:
		return target
	}
}

// proseLines narrates the graph: a header naming the unit, one sentence per
// block, then one sentence per distinct edge sorted by endpoints. The Exit
// block appears as the END block.
func proseLines(g *cfg.Graph, subject string) []string {
	if subject == "" {
		subject = "Function"
	}
	name := g.Signature
	if name == "" {
		name = g.Function
	}
	out := []string{
		fmt.Sprintf("G describes a control flow graph of %s `%s`", subject, name),
		"In this graph:",
	}

	out = append(out, fmt.Sprintf("Entry Point: Block %d represents code snippet: %s.", g.Entry, snippet(g.Blocks[g.Entry])))
	out = append(out, fmt.Sprintf("END Block: Block %d represents code snippet: END.", g.Exit))
	for _, b := range g.Blocks {
		if b.Index == g.Exit {
			continue
		}
		out = append(out, fmt.Sprintf("Block %d represents code snippet: %s.", b.Index, snippet(b)))
	}
	out = append(out, fmt.Sprintf("Block %d represents code snippet: END.", g.Exit))

	edges := append([]cfg.Edge(nil), g.Edges...)
	sort.SliceStable(edges, func(i, j int) bool {
		if edges[i].From != edges[j].From {
			return edges[i].From < edges[j].From
		}
		return edges[i].To < edges[j].To
	})
	seen := map[cfg.Edge]bool{}
	for _, e := range edges {
		if seen[e] {
			continue
		}
		seen[e] = true
		out = append(out, proseEdge(g, e))
	}
	return out
}

func proseEdge(g *cfg.Graph, e cfg.Edge) string {
	from := g.Blocks[e.From]
	switch e.Label {
	case cfg.LabelBranchTrue:
		return fmt.Sprintf("Block %d match case %q points to Block %d.", e.From, condition(from), e.To)
	case cfg.LabelBranchFalse:
		return fmt.Sprintf("Block %d not match case %q points to Block %d.", e.From, condition(from), e.To)
	case cfg.LabelCaseMatch:
		return fmt.Sprintf("Block %d case match %q points to Block %d.", e.From, e.Value, e.To)
	case cfg.LabelExceptionRaised:
		return fmt.Sprintf("Block %d exception points to Block %d.", e.From, e.To)
	case cfg.LabelLoopContinue:
		if from.Shape == cfg.ShapeLoopLatch {
			return fmt.Sprintf("Block %d loop back to Block %d.", e.From, e.To)
		}
		return fmt.Sprintf("Block %d continue points to Block %d.", e.From, e.To)
	case cfg.LabelLoopExit:
		if from.Shape == cfg.ShapeLoopHeader {
			return fmt.Sprintf("Block %d not match case %q points to Block %d.", e.From, condition(from), e.To)
		}
		return fmt.Sprintf("Block %d break exit points to Block %d.", e.From, e.To)
	case cfg.LabelCallEnter:
		return fmt.Sprintf("Block %d method call points to Block %d.", e.From, e.To)
	case cfg.LabelCallReturn:
		return fmt.Sprintf("Block %d method return points to Block %d.", e.From, e.To)
	default:
		if from.Shape == cfg.ShapeLoopHeader {
			return fmt.Sprintf("Block %d match case %q points to Block %d.", e.From, condition(from), e.To)
		}
		return fmt.Sprintf("Block %d unconditional points to Block %d.", e.From, e.To)
	}
}

// condition is the branch text of a Decision or LoopHeader block: the parsed
// condition expression when the front end captured one, the block's source
// text otherwise.
func condition(b *cfg.Block) string {
	for i := len(b.Stmts) - 1; i >= 0; i-- {
		if b.Stmts[i].Cond != "" {
			return b.Stmts[i].Cond
		}
	}
	return b.Text()
}

// snippet is a block's source text with newlines escaped, END-safe for the
// single-line prose sentences.
func snippet(b *cfg.Block) string {
	t := b.Text()
	if t == "" {
		t = "pass"
	}
	return strings.ReplaceAll(t, "\n", "\\n")
}

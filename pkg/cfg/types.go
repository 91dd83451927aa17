// Package cfg builds and normalizes control-flow graphs over the shared AST.
// A graph is a flat block array with index-based edges: loop back-edges make
// the control relation cyclic, so blocks never hold direct references to one
// another.
package cfg

import (
	"fmt"

	"github.com/LLAYUAN/SimulateExe-SelfDebug/pkg/ast"
)

// Shape classifies a block's control role.
type Shape string

const (
	ShapeEntry          Shape = "entry"           // unique function entry
	ShapeExit           Shape = "exit"            // unique function exit
	ShapeLinear         Shape = "linear"          // straight-line statements
	ShapeDecision       Shape = "decision"        // conditional branch
	ShapeLoopHeader     Shape = "loop_header"     // loop condition
	ShapeLoopLatch      Shape = "loop_latch"      // back-edge source
	ShapeExceptionGuard Shape = "exception_guard" // guarded block that may raise
	ShapeCallSite       Shape = "call_site"       // call statement
	ShapeSuspend        Shape = "suspend"         // generator yield point
)

// Label classifies the transfer an edge represents.
type Label string

const (
	LabelUnconditional   Label = "unconditional"
	LabelBranchTrue      Label = "branch_true"
	LabelBranchFalse     Label = "branch_false"
	LabelCaseMatch       Label = "case_match"       // Value holds the case pattern
	LabelExceptionRaised Label = "exception_raised" // Value holds the exception kind
	LabelLoopContinue    Label = "loop_continue"
	LabelLoopExit        Label = "loop_exit"
	LabelReturn          Label = "return"
	LabelCallEnter       Label = "call_enter"  // added by Compose only
	LabelCallReturn      Label = "call_return" // added by Compose only
)

// Stmt is one statement carried by a block: the source text as written plus
// enough classification for rendering and composition.
type Stmt struct {
	Text       string   `json:"text"`
	Line       int      `json:"line"`
	Kind       ast.Kind `json:"kind"`
	Cond       string   `json:"cond,omitempty"`
	CallTarget string   `json:"call_target,omitempty"`
}

// Block is a maximal straight-line run with single entry and exit. Blocks are
// owned by the graph and referenced only by index.
type Block struct {
	Index     int    `json:"index"`
	Rank      int    `json:"rank"`
	Shape     Shape  `json:"shape"`
	Stmts     []Stmt `json:"stmts"`
	Dead      []Stmt `json:"dead,omitempty"` // unreachable statements kept for traceability
	StartLine int    `json:"start_line"`
	EndLine   int    `json:"end_line"`
}

// Text joins the block's statements into its rendered source form.
func (b *Block) Text() string {
	switch len(b.Stmts) {
	case 0:
		return ""
	case 1:
		return b.Stmts[0].Text
	}
	out := b.Stmts[0].Text
	for _, s := range b.Stmts[1:] {
		out += "; " + s.Text
	}
	return out
}

// Edge is a directed transfer between two blocks, by index.
type Edge struct {
	From  int    `json:"from"`
	To    int    `json:"to"`
	Label Label  `json:"label"`
	Value string `json:"value,omitempty"` // case pattern or exception kind
}

// WarningKind distinguishes the advisory diagnostics a build can attach.
type WarningKind string

const (
	WarnDeadCode         WarningKind = "dead_code"         // statements after an unconditional exit
	WarnUnreachableBlock WarningKind = "unreachable_block" // block pruned during normalization
)

// Warning is advisory: it rides along with a successful result and never
// aborts rendering.
type Warning struct {
	Kind    WarningKind `json:"kind"`
	Line    int         `json:"line"`
	Message string      `json:"message"`
}

func (w Warning) String() string {
	return fmt.Sprintf("%s (line %d): %s", w.Kind, w.Line, w.Message)
}

// Graph is the control-flow graph of one source unit.
type Graph struct {
	Function  string    `json:"function"`  // function name
	Signature string    `json:"signature"` // name(arg, ...) header form
	Blocks    []*Block  `json:"blocks"`
	Edges     []Edge    `json:"edges"`
	Entry     int       `json:"entry"`
	Exit      int       `json:"exit"`
	Warnings  []Warning `json:"warnings,omitempty"`
}

// Successors returns the edges leaving a block in insertion order.
func (g *Graph) Successors(index int) []Edge {
	var out []Edge
	for _, e := range g.Edges {
		if e.From == index {
			out = append(out, e)
		}
	}
	return out
}

// Predecessors returns the edges entering a block in insertion order.
func (g *Graph) Predecessors(index int) []Edge {
	var out []Edge
	for _, e := range g.Edges {
		if e.To == index {
			out = append(out, e)
		}
	}
	return out
}

// Complexity is the cyclomatic complexity computed from the finished graph:
// edges - nodes + 2 for a single connected component.
func (g *Graph) Complexity() int {
	c := len(g.Edges) - len(g.Blocks) + 2
	if c < 1 {
		return 1
	}
	return c
}

// StructuralError reports an AST shape the builder cannot place, such as a
// break outside any loop. It indicates a front-end or grammar defect, never a
// defect in the analyzed source, and is not recovered.
type StructuralError struct {
	Kind   ast.Kind
	Line   int
	Reason string
}

func (e *StructuralError) Error() string {
	return fmt.Sprintf("structural error at line %d (%s): %s", e.Line, e.Kind, e.Reason)
}

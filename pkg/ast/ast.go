// Package ast defines the shared statement-level AST vocabulary emitted by
// both language front ends. The control-flow builder consumes only these
// node kinds, so the graph stage stays language-agnostic.
package ast

import "fmt"

// Language identifies which front end produced a source unit.
type Language string

const (
	LanguagePython Language = "python" // indentation-delimited family
	LanguageJava   Language = "java"   // brace-delimited family
)

// Kind tags a node with one of the fixed control-shape variants. The set is
// closed: the builder matches it exhaustively and treats anything it cannot
// classify as an opaque ExprStatement.
type Kind string

const (
	KindSequence      Kind = "sequence"       // ordered child statements
	KindIf            Kind = "if"             // two-way (or case) decision
	KindLoop          Kind = "loop"           // for/while loop
	KindReturn        Kind = "return"         // explicit return
	KindBreak         Kind = "break"          // loop break
	KindContinue      Kind = "continue"       // loop continue
	KindCall          Kind = "call"           // call expression statement
	KindTryCatch      Kind = "try_catch"      // guarded body with handlers
	KindRaise         Kind = "raise"          // raise/throw
	KindYield         Kind = "yield"          // generator suspension point
	KindAssign        Kind = "assign"         // assignment statement
	KindExprStatement Kind = "expr_statement" // opaque statement
	KindFunctionDef   Kind = "function_def"   // function/method definition
)

// LoopKind distinguishes the two loop surface forms. The graph treats them
// identically; the renderer uses the distinction only for edge wording.
type LoopKind string

const (
	LoopFor   LoopKind = "for"
	LoopWhile LoopKind = "while"
)

// Handler is one catch/except arm of a TryCatch node. Kind is the exception
// type as written in the source, or "*" for a wildcard handler.
type Handler struct {
	Kind      string  `json:"kind"`
	Body      []*Node `json:"body"`
	StartLine int     `json:"start_line"`
}

// Node is a statement-level AST node. It is a strict tree: every node owns
// its children exclusively, and cross-references between distant nodes never
// exist at this stage (the graph layer uses indices instead).
//
// Fields beyond Kind/Text/lines are populated per kind:
//   - If:          Cond, Children (then), Else, CaseValue (desugared switch/match arm)
//   - Loop:        LoopKind, Cond, Children (body)
//   - TryCatch:    Children (guarded body), Handlers, Final
//   - Call:        CallTarget
//   - Raise:       Exception (kind as written, "" when re-raising)
//   - FunctionDef: Name, Signature, Children (body)
//   - Sequence:    Children
type Node struct {
	Kind       Kind      `json:"kind"`
	Text       string    `json:"text"` // source text as written (first line for compound statements)
	StartLine  int       `json:"start_line"`
	EndLine    int       `json:"end_line"`
	Cond       string    `json:"cond,omitempty"`
	CaseValue  string    `json:"case_value,omitempty"`
	Exception  string    `json:"exception,omitempty"`
	LoopKind   LoopKind  `json:"loop_kind,omitempty"`
	CallTarget string    `json:"call_target,omitempty"`
	Name       string    `json:"name,omitempty"`
	Signature  string    `json:"signature,omitempty"`
	Children   []*Node   `json:"children,omitempty"`
	Else       []*Node   `json:"else,omitempty"`
	Handlers   []Handler `json:"handlers,omitempty"`
	Final      []*Node   `json:"final,omitempty"`
}

// IsTerminator reports whether the node unconditionally leaves the current
// straight-line run (no fall-through to the next sibling).
func (n *Node) IsTerminator() bool {
	switch n.Kind {
	case KindReturn, KindBreak, KindContinue, KindRaise:
		return true
	}
	return false
}

// ParseError reports a syntax error found by a front end. The caller decides
// whether to retry with a different strategy or skip the unit.
type ParseError struct {
	Line    int
	Message string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse error at line %d: %s", e.Line, e.Message)
}

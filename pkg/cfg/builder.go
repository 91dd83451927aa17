package cfg

import (
	"fmt"

	"github.com/LLAYUAN/SimulateExe-SelfDebug/pkg/ast"
)

// buildContext carries the open successor targets for the construct being
// built: where continue/break/raise/return transfer to. It is immutable and
// passed by value, extended only when entering a Loop or TryCatch, so the
// builder stays reentrant per subtree.
type buildContext struct {
	loopHeader int          // LoopContinue target, -1 outside any loop
	loopExit   int          // LoopExit target, -1 outside any loop
	handlers   []handlerRef // nearest enclosing handler set, innermost try only
	exit       int          // the function's single Exit block
}

// handlerRef points at one handler's entry block.
type handlerRef struct {
	kind  string
	entry int
}

type builder struct {
	g          *Graph
	lastClosed int // most recently terminated block, sink for dead statements
}

// Build constructs the control-flow graph for one function. The argument is
// either a FunctionDef (its children are the body) or a bare Sequence.
// Identical input always yields an isomorphic graph: construction is a single
// deterministic recursion with no map iteration anywhere.
//
// The returned graph is raw: callers normalize it before rendering.
func Build(fn *ast.Node) (*Graph, error) {
	if fn == nil {
		return nil, &StructuralError{Reason: "nil root node"}
	}
	if fn.Kind != ast.KindFunctionDef && fn.Kind != ast.KindSequence {
		return nil, &StructuralError{Kind: fn.Kind, Line: fn.StartLine, Reason: "root must be a function definition or sequence"}
	}

	b := &builder{g: &Graph{Function: fn.Name, Signature: fn.Signature}, lastClosed: -1}

	entry := b.newBlock(ShapeEntry, fn.StartLine)
	if fn.Kind == ast.KindFunctionDef {
		b.g.Blocks[entry].Stmts = append(b.g.Blocks[entry].Stmts, Stmt{Text: fn.Text, Line: fn.StartLine, Kind: ast.KindFunctionDef})
	}
	exit := b.newBlock(ShapeExit, fn.EndLine)
	b.g.Entry, b.g.Exit = entry, exit

	ctx := buildContext{loopHeader: -1, loopExit: -1, exit: exit}
	out, err := b.seq(fn.Children, ctx, entry)
	if err != nil {
		return nil, err
	}
	// Implicit fall-through exit: an edge, never a synthesized Return node.
	if out >= 0 {
		b.edge(out, exit, LabelUnconditional, "")
	}
	return b.g, nil
}

// seq builds an ordered statement list starting from the open block cur.
// It returns the block left open for the continuation, or -1 when every path
// through the sequence already transferred elsewhere.
func (b *builder) seq(stmts []*ast.Node, ctx buildContext, cur int) (int, error) {
	for i, s := range stmts {
		if cur < 0 {
			b.deadCode(stmts[i:])
			return -1, nil
		}
		var err error
		cur, err = b.statement(s, ctx, cur)
		if err != nil {
			return -1, err
		}
	}
	return cur, nil
}

func (b *builder) statement(s *ast.Node, ctx buildContext, cur int) (int, error) {
	switch s.Kind {
	case ast.KindSequence:
		return b.seq(s.Children, ctx, cur)

	case ast.KindAssign, ast.KindExprStatement, ast.KindFunctionDef:
		// An assignment whose value is a single call is a call site too.
		if s.Kind == ast.KindAssign && s.CallTarget != "" {
			return b.callSite(s, cur), nil
		}
		// Nested function definitions stay opaque: no interprocedural descent.
		cur = b.ensureLinear(cur)
		b.appendStmt(cur, s)
		return cur, nil

	case ast.KindCall:
		return b.callSite(s, cur), nil

	case ast.KindYield:
		susp := b.newBlock(ShapeSuspend, s.StartLine)
		b.appendStmt(susp, s)
		b.edge(cur, susp, LabelUnconditional, "")
		return susp, nil

	case ast.KindReturn:
		cur = b.ensureLinear(cur)
		b.appendStmt(cur, s)
		b.edge(cur, ctx.exit, LabelReturn, "")
		b.lastClosed = cur
		return -1, nil

	case ast.KindBreak:
		if ctx.loopExit < 0 {
			return -1, &StructuralError{Kind: s.Kind, Line: s.StartLine, Reason: "break outside any enclosing loop"}
		}
		cur = b.ensureLinear(cur)
		b.appendStmt(cur, s)
		b.edge(cur, ctx.loopExit, LabelLoopExit, "")
		b.lastClosed = cur
		return -1, nil

	case ast.KindContinue:
		if ctx.loopHeader < 0 {
			return -1, &StructuralError{Kind: s.Kind, Line: s.StartLine, Reason: "continue outside any enclosing loop"}
		}
		cur = b.ensureLinear(cur)
		b.appendStmt(cur, s)
		b.edge(cur, ctx.loopHeader, LabelLoopContinue, "")
		b.lastClosed = cur
		return -1, nil

	case ast.KindRaise:
		cur = b.ensureLinear(cur)
		b.appendStmt(cur, s)
		if len(ctx.handlers) > 0 {
			b.g.Blocks[cur].Shape = ShapeExceptionGuard
			for _, h := range ctx.handlers {
				b.edge(cur, h.entry, LabelExceptionRaised, handlerEdgeKind(h.kind, s.Exception))
			}
		} else {
			// Uncaught: propagates out of the function.
			b.edge(cur, ctx.exit, LabelExceptionRaised, s.Exception)
		}
		b.lastClosed = cur
		return -1, nil

	case ast.KindIf:
		return b.ifStatement(s, ctx, cur)

	case ast.KindLoop:
		return b.loop(s, ctx, cur)

	case ast.KindTryCatch:
		return b.tryCatch(s, ctx, cur)

	default:
		return -1, &StructuralError{Kind: s.Kind, Line: s.StartLine, Reason: "unknown AST node kind"}
	}
}

// ifStatement closes the current block into a Decision with a label-partitioned
// pair of outgoing edges. Branch terminals meet in a fresh merge block; when
// both branches transfer elsewhere no merge block exists at all.
func (b *builder) ifStatement(s *ast.Node, ctx buildContext, cur int) (int, error) {
	d := b.newBlock(ShapeDecision, s.StartLine)
	b.appendStmt(d, s)
	b.edge(cur, d, LabelUnconditional, "")

	trueLabel, trueValue := LabelBranchTrue, ""
	if s.CaseValue != "" {
		trueLabel, trueValue = LabelCaseMatch, s.CaseValue
	}

	thenB := b.newBlock(ShapeLinear, s.StartLine)
	b.edge(d, thenB, trueLabel, trueValue)
	thenOut, err := b.seq(s.Children, ctx, thenB)
	if err != nil {
		return -1, err
	}

	if len(s.Else) == 0 {
		// No else arm: BranchFalse goes straight to the continuation block.
		merge := b.newBlock(ShapeLinear, s.EndLine)
		b.edge(d, merge, LabelBranchFalse, "")
		if thenOut >= 0 {
			b.edge(thenOut, merge, LabelUnconditional, "")
		}
		return merge, nil
	}

	elseB := b.newBlock(ShapeLinear, s.Else[0].StartLine)
	b.edge(d, elseB, LabelBranchFalse, "")
	elseOut, err := b.seq(s.Else, ctx, elseB)
	if err != nil {
		return -1, err
	}

	if thenOut < 0 && elseOut < 0 {
		return -1, nil
	}
	merge := b.newBlock(ShapeLinear, s.EndLine)
	if thenOut >= 0 {
		b.edge(thenOut, merge, LabelUnconditional, "")
	}
	if elseOut >= 0 {
		b.edge(elseOut, merge, LabelUnconditional, "")
	}
	return merge, nil
}

// loop emits the LoopHeader/LoopLatch pair with the single LoopContinue
// back-edge. The continuation block exists before the body is built so that
// break statements can target it directly.
func (b *builder) loop(s *ast.Node, ctx buildContext, cur int) (int, error) {
	header := b.newBlock(ShapeLoopHeader, s.StartLine)
	b.appendStmt(header, s)
	b.edge(cur, header, LabelUnconditional, "")

	body := b.newBlock(ShapeLinear, s.StartLine)
	b.edge(header, body, LabelUnconditional, "")
	cont := b.newBlock(ShapeLinear, s.EndLine)
	b.edge(header, cont, LabelLoopExit, "")

	inner := ctx
	inner.loopHeader = header
	inner.loopExit = cont
	bodyOut, err := b.seq(s.Children, inner, body)
	if err != nil {
		return -1, err
	}

	latch := b.newBlock(ShapeLoopLatch, s.EndLine)
	if bodyOut >= 0 {
		b.edge(bodyOut, latch, LabelUnconditional, "")
	}
	b.edge(latch, header, LabelLoopContinue, "")
	return cont, nil
}

// tryCatch builds the guarded body with the handler set in scope, then fans
// ExceptionRaised edges out of every statement-carrying block in the guarded
// region. Handler bodies build under the outer context: a break inside a
// handler still targets the enclosing loop.
func (b *builder) tryCatch(s *ast.Node, ctx buildContext, cur int) (int, error) {
	refs := make([]handlerRef, 0, len(s.Handlers))
	for _, h := range s.Handlers {
		entry := b.newBlock(ShapeLinear, h.StartLine)
		refs = append(refs, handlerRef{kind: h.Kind, entry: entry})
	}

	inner := ctx
	inner.handlers = refs

	guardStart := len(b.g.Blocks)
	guarded := b.newBlock(ShapeLinear, s.StartLine)
	b.edge(cur, guarded, LabelUnconditional, "")
	guardOut, err := b.seq(s.Children, inner, guarded)
	if err != nil {
		return -1, err
	}
	guardEnd := len(b.g.Blocks)

	// Any statement in the guarded region may raise: reshape and fan out.
	for idx := guardStart; idx < guardEnd; idx++ {
		blk := b.g.Blocks[idx]
		if len(blk.Stmts) == 0 {
			continue
		}
		switch blk.Shape {
		case ShapeLinear, ShapeCallSite, ShapeSuspend, ShapeExceptionGuard:
			blk.Shape = ShapeExceptionGuard
			for _, h := range refs {
				if !b.hasEdge(idx, h.entry, LabelExceptionRaised) {
					b.edge(idx, h.entry, LabelExceptionRaised, h.kind)
				}
			}
		}
	}

	outs := make([]int, 0, len(refs)+1)
	if guardOut >= 0 {
		outs = append(outs, guardOut)
	}
	for i, h := range s.Handlers {
		hout, err := b.seq(h.Body, ctx, refs[i].entry)
		if err != nil {
			return -1, err
		}
		if hout >= 0 {
			outs = append(outs, hout)
		}
	}

	if len(s.Final) > 0 {
		final := b.newBlock(ShapeLinear, s.Final[0].StartLine)
		for _, o := range outs {
			b.edge(o, final, LabelUnconditional, "")
		}
		return b.seq(s.Final, ctx, final)
	}
	if len(outs) == 0 {
		return -1, nil
	}
	merge := b.newBlock(ShapeLinear, s.EndLine)
	for _, o := range outs {
		b.edge(o, merge, LabelUnconditional, "")
	}
	return merge, nil
}

// deadCode records statements that can never execute. They stay on the block
// that closed the path, never gain blocks or edges, and surface as a warning.
func (b *builder) deadCode(stmts []*ast.Node) {
	if len(stmts) == 0 {
		return
	}
	first := stmts[0]
	b.g.Warnings = append(b.g.Warnings, Warning{
		Kind:    WarnDeadCode,
		Line:    first.StartLine,
		Message: fmt.Sprintf("unreachable code starting at %q", first.Text),
	})
	if b.lastClosed < 0 {
		return
	}
	for _, s := range stmts {
		b.g.Blocks[b.lastClosed].Dead = append(b.g.Blocks[b.lastClosed].Dead, Stmt{
			Text: s.Text, Line: s.StartLine, Kind: s.Kind,
		})
	}
}

// callSite closes the current block into a dedicated CallSite block so the
// call stays visible as a composition point.
func (b *builder) callSite(s *ast.Node, cur int) int {
	call := b.newBlock(ShapeCallSite, s.StartLine)
	b.appendStmt(call, s)
	b.edge(cur, call, LabelUnconditional, "")
	return call
}

// ensureLinear returns a block statements can be appended to, opening a fresh
// Linear block when the current one is a non-appendable shape.
func (b *builder) ensureLinear(cur int) int {
	if b.g.Blocks[cur].Shape == ShapeLinear {
		return cur
	}
	nb := b.newBlock(ShapeLinear, b.g.Blocks[cur].EndLine)
	b.edge(cur, nb, LabelUnconditional, "")
	return nb
}

func (b *builder) newBlock(shape Shape, line int) int {
	idx := len(b.g.Blocks)
	b.g.Blocks = append(b.g.Blocks, &Block{Index: idx, Shape: shape, StartLine: line, EndLine: line})
	return idx
}

func (b *builder) appendStmt(idx int, s *ast.Node) {
	blk := b.g.Blocks[idx]
	blk.Stmts = append(blk.Stmts, Stmt{Text: s.Text, Line: s.StartLine, Kind: s.Kind, Cond: s.Cond, CallTarget: s.CallTarget})
	if blk.StartLine == 0 || (s.StartLine > 0 && s.StartLine < blk.StartLine) {
		blk.StartLine = s.StartLine
	}
	if s.EndLine > blk.EndLine {
		blk.EndLine = s.EndLine
	}
}

func (b *builder) edge(from, to int, label Label, value string) {
	b.g.Edges = append(b.g.Edges, Edge{From: from, To: to, Label: label, Value: value})
}

func (b *builder) hasEdge(from, to int, label Label) bool {
	for _, e := range b.g.Edges {
		if e.From == from && e.To == to && e.Label == label {
			return true
		}
	}
	return false
}

// handlerEdgeKind labels an explicit raise edge: the handler's declared kind,
// or the raised kind when the handler is a wildcard.
func handlerEdgeKind(handlerKind, raisedKind string) string {
	if handlerKind == "*" && raisedKind != "" {
		return raisedKind
	}
	return handlerKind
}

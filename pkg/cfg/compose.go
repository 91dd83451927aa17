package cfg

import "github.com/LLAYUAN/SimulateExe-SelfDebug/pkg/ast"

// Compose inlines callee graphs into a caller at its call sites. Every
// CallSite block whose target names a graph in callees gets a CallEnter edge
// into a fresh copy of that callee; the copy's exit forwards to the call
// site's original continuation with a CallReturn edge. A return statement
// whose value is a single call composes the same way, except the inlined
// frame's exit forwards straight to the caller's Exit. A call site whose
// target is unknown, or that names the caller itself, is left untouched.
//
// Inlining is one level deep. Call sites inside an inlined callee stay call
// sites; callers wanting deeper expansion compose the callees first. The
// result is re-normalized, so ranks are fresh and invariants re-checked.
func Compose(caller *Graph, callees map[string]*Graph) (*Graph, error) {
	out := &Graph{
		Function:  caller.Function,
		Signature: caller.Signature,
		Entry:     caller.Entry,
		Exit:      caller.Exit,
		Warnings:  append([]Warning(nil), caller.Warnings...),
		Edges:     append([]Edge(nil), caller.Edges...),
	}
	for _, b := range caller.Blocks {
		out.Blocks = append(out.Blocks, copyBlock(b))
	}

	// Caller blocks are scanned in rank order, so repeated composition of the
	// same inputs always yields the same graph.
	for idx := 0; idx < len(caller.Blocks); idx++ {
		target := callTarget(out.Blocks[idx])
		if target == "" || target == caller.Function {
			continue
		}
		callee, ok := callees[target]
		if !ok {
			continue
		}
		inline(out, idx, callee)
	}

	return Normalize(out)
}

// callTarget is a block's composable callee: a CallSite block's recorded
// target, or the target of a return statement whose value is a single call.
func callTarget(b *Block) string {
	if len(b.Stmts) == 0 {
		return ""
	}
	last := b.Stmts[len(b.Stmts)-1]
	if b.Shape == ShapeCallSite || last.Kind == ast.KindReturn {
		return last.CallTarget
	}
	return ""
}

// inline splices one copy of callee into g at the given call site.
func inline(g *Graph, site int, callee *Graph) {
	offset := len(g.Blocks)
	for _, b := range callee.Blocks {
		cp := copyBlock(b)
		cp.Index = b.Index + offset
		// The inlined frame has no entry or exit of its own inside the caller.
		switch cp.Shape {
		case ShapeEntry, ShapeExit:
			cp.Shape = ShapeLinear
		}
		g.Blocks = append(g.Blocks, cp)
	}
	for _, w := range callee.Warnings {
		g.Warnings = append(g.Warnings, w)
	}

	calleeEntry := callee.Entry + offset
	calleeExit := callee.Exit + offset

	// The call site's continuation becomes the return target: the normal
	// successor for a plain call, the caller's Exit for a return-position
	// call. Forward edges are collected first so appending cannot invalidate
	// the edge being rewritten.
	var forwards []Edge
	for i := range g.Edges {
		e := &g.Edges[i]
		if e.From != site {
			continue
		}
		switch e.Label {
		case LabelUnconditional:
			forwards = append(forwards, Edge{From: calleeExit, To: e.To, Label: LabelCallReturn})
		case LabelReturn:
			forwards = append(forwards, Edge{From: calleeExit, To: e.To, Label: LabelReturn})
		default:
			continue
		}
		e.To = calleeEntry
		e.Label = LabelCallEnter
	}
	g.Edges = append(g.Edges, forwards...)

	for _, e := range callee.Edges {
		g.Edges = append(g.Edges, Edge{
			From:  e.From + offset,
			To:    e.To + offset,
			Label: e.Label,
			Value: e.Value,
		})
	}
}

func copyBlock(b *Block) *Block {
	cp := *b
	cp.Stmts = append([]Stmt(nil), b.Stmts...)
	cp.Dead = append([]Stmt(nil), b.Dead...)
	return &cp
}

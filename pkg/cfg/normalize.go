package cfg

import "fmt"

// Normalize coalesces trivial straight-line chains, assigns deterministic
// ranks, prunes blocks unreachable from Entry, and checks every graph
// invariant. The input graph is not modified; the result is a fresh graph
// whose block array is ordered by rank.
//
// Rank assignment is a depth-first traversal from Entry in edge insertion
// order; back-edges land on already-visited blocks, so the walk terminates on
// cyclic graphs. Normalization never changes the set of Decision outcomes.
func Normalize(g *Graph) (*Graph, error) {
	n := &normalizer{
		blocks:   make([]*Block, len(g.Blocks)),
		edges:    append([]Edge(nil), g.Edges...),
		removed:  make([]bool, len(g.Blocks)),
		entry:    g.Entry,
		exit:     g.Exit,
		warnings: append([]Warning(nil), g.Warnings...),
	}
	for i, b := range g.Blocks {
		cp := *b
		cp.Stmts = append([]Stmt(nil), b.Stmts...)
		cp.Dead = append([]Stmt(nil), b.Dead...)
		n.blocks[i] = &cp
	}

	n.coalesce()
	out := n.finish(g)
	if err := Validate(out); err != nil {
		return nil, err
	}
	return out, nil
}

type normalizer struct {
	blocks   []*Block
	edges    []Edge
	removed  []bool
	entry    int
	exit     int
	warnings []Warning
}

func (n *normalizer) outEdges(idx int) []Edge {
	var out []Edge
	for _, e := range n.edges {
		if e.From == idx {
			out = append(out, e)
		}
	}
	return out
}

func (n *normalizer) inEdges(idx int) []Edge {
	var out []Edge
	for _, e := range n.edges {
		if e.To == idx {
			out = append(out, e)
		}
	}
	return out
}

// coalesce splices empty pass-through blocks and merges Linear chains until a
// fixpoint. Both transformations preserve all edge labels.
func (n *normalizer) coalesce() {
	for changed := true; changed; {
		changed = false
		for idx := range n.blocks {
			if n.spliceEmpty(idx) || n.mergeChain(idx) {
				changed = true
			}
		}
	}
}

// spliceEmpty removes an empty Linear block by redirecting its incoming edges
// to its single unconditional successor. Merge blocks the builder allocated
// but never filled disappear here without a trace.
func (n *normalizer) spliceEmpty(idx int) bool {
	b := n.blocks[idx]
	if n.removed[idx] || idx == n.entry || idx == n.exit {
		return false
	}
	if b.Shape != ShapeLinear || len(b.Stmts) > 0 || len(b.Dead) > 0 {
		return false
	}
	outs := n.outEdges(idx)
	if len(outs) != 1 || outs[0].Label != LabelUnconditional || outs[0].To == idx {
		return false
	}
	target := outs[0].To

	kept := n.edges[:0]
	for _, e := range n.edges {
		if e.From == idx {
			continue
		}
		if e.To == idx {
			e.To = target
		}
		kept = append(kept, e)
	}
	n.edges = kept
	n.removed[idx] = true
	return true
}

// mergeChain folds a Linear block's single Linear successor into it when that
// successor has no other predecessors.
func (n *normalizer) mergeChain(idx int) bool {
	a := n.blocks[idx]
	if n.removed[idx] || idx == n.entry || idx == n.exit || a.Shape != ShapeLinear {
		return false
	}
	outs := n.outEdges(idx)
	if len(outs) != 1 || outs[0].Label != LabelUnconditional {
		return false
	}
	cIdx := outs[0].To
	c := n.blocks[cIdx]
	if n.removed[cIdx] || cIdx == idx || cIdx == n.entry || cIdx == n.exit || c.Shape != ShapeLinear {
		return false
	}
	if len(n.inEdges(cIdx)) != 1 {
		return false
	}

	a.Stmts = append(a.Stmts, c.Stmts...)
	a.Dead = append(a.Dead, c.Dead...)
	if c.EndLine > a.EndLine {
		a.EndLine = c.EndLine
	}

	kept := n.edges[:0]
	for _, e := range n.edges {
		if e.From == idx && e.To == cIdx && e.Label == LabelUnconditional {
			continue // the chain edge itself
		}
		if e.From == cIdx {
			e.From = idx
		}
		kept = append(kept, e)
	}
	n.edges = kept
	n.removed[cIdx] = true
	return true
}

// finish computes ranks, prunes unreachable blocks, and rebuilds the graph
// with the block array in rank order.
func (n *normalizer) finish(src *Graph) *Graph {
	seen := make([]bool, len(n.blocks))
	var order []int
	var walk func(idx int)
	walk = func(idx int) {
		if seen[idx] {
			return
		}
		seen[idx] = true
		order = append(order, idx)
		for _, e := range n.outEdges(idx) {
			walk(e.To)
		}
	}
	walk(n.entry)

	// The Exit block always survives and always ranks last.
	if !seen[n.exit] {
		seen[n.exit] = true
		order = append(order, n.exit)
	}
	filtered := order[:0]
	for _, idx := range order {
		if idx != n.exit {
			filtered = append(filtered, idx)
		}
	}
	order = append(filtered, n.exit)

	// Blocks never reached: coalesced leftovers vanish silently, real code is
	// reported before it is dropped.
	for idx, b := range n.blocks {
		if seen[idx] || n.removed[idx] {
			continue
		}
		if len(b.Stmts) > 0 {
			n.warnings = append(n.warnings, Warning{
				Kind:    WarnUnreachableBlock,
				Line:    b.StartLine,
				Message: fmt.Sprintf("unreachable block dropped: %q", b.Text()),
			})
		}
	}

	remap := make(map[int]int, len(order))
	for rank, idx := range order {
		remap[idx] = rank
	}

	out := &Graph{
		Function:  src.Function,
		Signature: src.Signature,
		Warnings:  n.warnings,
	}
	for rank, idx := range order {
		b := n.blocks[idx]
		b.Index = rank
		b.Rank = rank
		out.Blocks = append(out.Blocks, b)
	}
	out.Entry = remap[n.entry]
	out.Exit = remap[n.exit]
	for _, e := range n.edges {
		from, okF := remap[e.From]
		to, okT := remap[e.To]
		if !okF || !okT {
			continue
		}
		out.Edges = append(out.Edges, Edge{From: from, To: to, Label: e.Label, Value: e.Value})
	}
	return out
}

// Validate checks the structural invariants a finished graph must satisfy.
// A violation is an internal defect of the builder or normalizer, never a
// property of the analyzed source.
func Validate(g *Graph) error {
	entries, exits := 0, 0
	for _, b := range g.Blocks {
		switch b.Shape {
		case ShapeEntry:
			entries++
		case ShapeExit:
			exits++
		}
	}
	if entries != 1 {
		return fmt.Errorf("invariant violation: graph has %d entry blocks", entries)
	}
	if exits != 1 {
		return fmt.Errorf("invariant violation: graph has %d exit blocks", exits)
	}
	if len(g.Predecessors(g.Entry)) != 0 {
		return fmt.Errorf("invariant violation: entry block has incoming edges")
	}

	for _, b := range g.Blocks {
		outs := g.Successors(b.Index)
		switch b.Shape {
		case ShapeDecision:
			if err := checkDecision(b, outs); err != nil {
				return err
			}
		case ShapeExceptionGuard:
			if err := checkGuard(b, outs); err != nil {
				return err
			}
		case ShapeLoopHeader:
			if len(outs) != 2 {
				return fmt.Errorf("invariant violation: loop header %d has %d outgoing edges", b.Index, len(outs))
			}
		case ShapeLoopLatch:
			if len(outs) != 1 || outs[0].Label != LabelLoopContinue {
				return fmt.Errorf("invariant violation: loop latch %d lacks its back-edge", b.Index)
			}
		case ShapeExit:
			if len(outs) != 0 {
				return fmt.Errorf("invariant violation: exit block has outgoing edges")
			}
		default:
			if len(outs) > 1 {
				return fmt.Errorf("invariant violation: %s block %d has %d outgoing edges", b.Shape, b.Index, len(outs))
			}
		}
	}
	return nil
}

// checkDecision verifies a Decision's outgoing labels partition its outcomes:
// exactly one false arm plus one true arm or at least one case arm.
func checkDecision(b *Block, outs []Edge) error {
	if len(outs) < 2 {
		return fmt.Errorf("invariant violation: decision block %d has %d outgoing edges", b.Index, len(outs))
	}
	trues, falses, cases := 0, 0, 0
	for _, e := range outs {
		switch e.Label {
		case LabelBranchTrue:
			trues++
		case LabelBranchFalse:
			falses++
		case LabelCaseMatch:
			cases++
		default:
			return fmt.Errorf("invariant violation: decision block %d has %s edge", b.Index, e.Label)
		}
	}
	if falses != 1 || (trues+cases) < 1 || (trues > 0 && cases > 0) || trues > 1 {
		return fmt.Errorf("invariant violation: decision block %d labels do not partition outcomes", b.Index)
	}
	return nil
}

// checkGuard verifies an ExceptionGuard fans out at least one exception edge
// beside at most one normal continuation. A guard whose statement list ends
// in an explicit raise has no normal continuation at all.
func checkGuard(b *Block, outs []Edge) error {
	raised, normal := 0, 0
	for _, e := range outs {
		if e.Label == LabelExceptionRaised {
			raised++
		} else {
			normal++
		}
	}
	if raised < 1 || normal > 1 {
		return fmt.Errorf("invariant violation: exception guard %d has %d raise and %d normal edges", b.Index, raised, normal)
	}
	return nil
}

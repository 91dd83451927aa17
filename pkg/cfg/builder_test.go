package cfg

import (
	"testing"

	"github.com/LLAYUAN/SimulateExe-SelfDebug/pkg/ast"
)

func fnNode(name string, body ...*ast.Node) *ast.Node {
	return &ast.Node{
		Kind:      ast.KindFunctionDef,
		Text:      "def " + name + "(x):",
		Name:      name,
		Signature: name + "(x)",
		StartLine: 1,
		EndLine:   10,
		Children:  body,
	}
}

func stmtNode(kind ast.Kind, text string, line int) *ast.Node {
	return &ast.Node{Kind: kind, Text: text, StartLine: line, EndLine: line}
}

func blockWith(g *Graph, text string) *Block {
	for _, b := range g.Blocks {
		for _, s := range b.Stmts {
			if s.Text == text {
				return b
			}
		}
	}
	return nil
}

func TestBuildStraightLine(t *testing.T) {
	fn := fnNode("f",
		stmtNode(ast.KindAssign, "y = x + 1", 2),
		stmtNode(ast.KindAssign, "z = y * 2", 3),
	)
	g, err := Build(fn)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}

	if g.Function != "f" || g.Signature != "f(x)" {
		t.Errorf("function identity = %q/%q", g.Function, g.Signature)
	}
	if g.Blocks[g.Entry].Shape != ShapeEntry {
		t.Errorf("entry shape = %s", g.Blocks[g.Entry].Shape)
	}
	if g.Blocks[g.Exit].Shape != ShapeExit {
		t.Errorf("exit shape = %s", g.Blocks[g.Exit].Shape)
	}

	// Implicit fall-through: one unconditional edge into Exit, no Return node.
	ins := g.Predecessors(g.Exit)
	if len(ins) != 1 || ins[0].Label != LabelUnconditional {
		t.Fatalf("exit predecessors = %+v, want one unconditional edge", ins)
	}
	b := blockWith(g, "y = x + 1")
	if b == nil || len(b.Stmts) != 2 {
		t.Fatalf("straight-line statements not coalesced into one block: %+v", b)
	}
}

func TestBuildIfReturnBoth(t *testing.T) {
	fn := fnNode("f", &ast.Node{
		Kind:      ast.KindIf,
		Text:      "if x > 0:",
		Cond:      "x > 0",
		StartLine: 2,
		EndLine:   5,
		Children:  []*ast.Node{stmtNode(ast.KindReturn, "return 1", 3)},
		Else:      []*ast.Node{stmtNode(ast.KindReturn, "return -1", 5)},
	})
	g, err := Build(fn)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	g, err = Normalize(g)
	if err != nil {
		t.Fatalf("Normalize: %v", err)
	}

	// Entry, Decision, two Return blocks, Exit.
	if len(g.Blocks) != 5 {
		t.Fatalf("block count = %d, want 5", len(g.Blocks))
	}
	d := blockWith(g, "if x > 0:")
	if d == nil || d.Shape != ShapeDecision {
		t.Fatalf("decision block missing or misshapen: %+v", d)
	}
	outs := g.Successors(d.Index)
	if len(outs) != 2 {
		t.Fatalf("decision out-edges = %d, want 2", len(outs))
	}
	if outs[0].Label != LabelBranchTrue || outs[1].Label != LabelBranchFalse {
		t.Errorf("decision labels = %s, %s", outs[0].Label, outs[1].Label)
	}

	// Both returns edge into Exit; no merge block exists.
	ins := g.Predecessors(g.Exit)
	if len(ins) != 2 {
		t.Fatalf("exit predecessors = %d, want 2", len(ins))
	}
	for _, e := range ins {
		if e.Label != LabelReturn {
			t.Errorf("exit in-edge label = %s, want return", e.Label)
		}
	}
}

func TestBuildLoopWithBreak(t *testing.T) {
	fn := fnNode("f",
		&ast.Node{
			Kind:      ast.KindLoop,
			LoopKind:  ast.LoopWhile,
			Text:      "while n > 0:",
			Cond:      "n > 0",
			StartLine: 2,
			EndLine:   5,
			Children: []*ast.Node{
				&ast.Node{
					Kind:      ast.KindIf,
					Text:      "if n == 1:",
					Cond:      "n == 1",
					StartLine: 3,
					EndLine:   4,
					Children:  []*ast.Node{stmtNode(ast.KindBreak, "break", 4)},
				},
				stmtNode(ast.KindAssign, "n = n - 1", 5),
			},
		},
		stmtNode(ast.KindReturn, "return n", 6),
	)
	g, err := Build(fn)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	g, err = Normalize(g)
	if err != nil {
		t.Fatalf("Normalize: %v", err)
	}

	header := blockWith(g, "while n > 0:")
	if header == nil || header.Shape != ShapeLoopHeader {
		t.Fatalf("loop header missing: %+v", header)
	}

	// Exactly one latch with a back-edge to the header.
	var latch *Block
	for _, b := range g.Blocks {
		if b.Shape == ShapeLoopLatch {
			if latch != nil {
				t.Fatalf("more than one loop latch")
			}
			latch = b
		}
	}
	if latch == nil {
		t.Fatal("no loop latch block")
	}
	back := g.Successors(latch.Index)
	if len(back) != 1 || back[0].Label != LabelLoopContinue || back[0].To != header.Index {
		t.Fatalf("latch back-edge = %+v, want loop_continue to header %d", back, header.Index)
	}

	// The break targets the continuation (the return block), not the latch.
	cont := blockWith(g, "return n")
	if cont == nil {
		t.Fatal("continuation block missing")
	}
	brk := blockWith(g, "break")
	if brk == nil {
		t.Fatal("break block missing")
	}
	outs := g.Successors(brk.Index)
	if len(outs) != 1 || outs[0].Label != LabelLoopExit {
		t.Fatalf("break out-edge = %+v", outs)
	}
	if outs[0].To != cont.Index {
		t.Errorf("break targets block %d, want continuation %d", outs[0].To, cont.Index)
	}
	if outs[0].To == latch.Index {
		t.Error("break must not target the loop latch")
	}
}

func TestBuildTryCatchAroundCall(t *testing.T) {
	fn := fnNode("f",
		&ast.Node{
			Kind:      ast.KindTryCatch,
			Text:      "try:",
			StartLine: 2,
			EndLine:   5,
			Children: []*ast.Node{
				&ast.Node{Kind: ast.KindCall, Text: "risky(x)", CallTarget: "risky", StartLine: 3, EndLine: 3},
			},
			Handlers: []ast.Handler{{
				Kind:      "ValueError",
				StartLine: 4,
				Body:      []*ast.Node{stmtNode(ast.KindReturn, "return 0", 5)},
			}},
		},
		stmtNode(ast.KindReturn, "return 1", 6),
	)
	g, err := Build(fn)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	g, err = Normalize(g)
	if err != nil {
		t.Fatalf("Normalize: %v", err)
	}

	guarded := blockWith(g, "risky(x)")
	if guarded == nil || guarded.Shape != ShapeExceptionGuard {
		t.Fatalf("guarded call block missing or misshapen: %+v", guarded)
	}
	outs := g.Successors(guarded.Index)
	if len(outs) != 2 {
		t.Fatalf("guarded out-edges = %d, want 2", len(outs))
	}
	var normal, raised *Edge
	for i := range outs {
		switch outs[i].Label {
		case LabelExceptionRaised:
			raised = &outs[i]
		default:
			normal = &outs[i]
		}
	}
	if normal == nil || normal.Label != LabelUnconditional {
		t.Fatalf("normal-path edge = %+v", normal)
	}
	if raised == nil || raised.Value != "ValueError" {
		t.Fatalf("exception edge = %+v, want kind ValueError", raised)
	}
	handler := blockWith(g, "return 0")
	if handler == nil || raised.To != handler.Index {
		t.Errorf("exception edge targets %d, want handler %v", raised.To, handler)
	}
}

func TestBuildDeadCodeAfterReturn(t *testing.T) {
	fn := fnNode("f", &ast.Node{
		Kind:      ast.KindIf,
		Text:      "if x > 0:",
		Cond:      "x > 0",
		StartLine: 2,
		EndLine:   4,
		Children: []*ast.Node{
			stmtNode(ast.KindReturn, "return 1", 3),
			stmtNode(ast.KindAssign, "x = 2", 4),
		},
	},
		stmtNode(ast.KindReturn, "return 0", 5),
	)
	g, err := Build(fn)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	g, err = Normalize(g)
	if err != nil {
		t.Fatalf("Normalize: %v", err)
	}

	found := false
	for _, w := range g.Warnings {
		if w.Kind == WarnDeadCode {
			found = true
		}
	}
	if !found {
		t.Error("dead statement after return produced no warning")
	}

	// The dead statement gains no block of its own.
	if b := blockWith(g, "x = 2"); b != nil {
		t.Errorf("dead statement placed in live block %d", b.Index)
	}
	ret := blockWith(g, "return 1")
	if ret == nil || len(ret.Dead) != 1 || ret.Dead[0].Text != "x = 2" {
		t.Errorf("dead statement not retained on terminating block: %+v", ret)
	}
}

func TestBuildRaiseUncaught(t *testing.T) {
	fn := fnNode("f",
		stmtNode(ast.KindAssign, "y = x", 2),
		&ast.Node{Kind: ast.KindRaise, Text: "raise ValueError(x)", Exception: "ValueError", StartLine: 3, EndLine: 3},
	)
	g, err := Build(fn)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	g, err = Normalize(g)
	if err != nil {
		t.Fatalf("Normalize: %v", err)
	}

	b := blockWith(g, "raise ValueError(x)")
	if b == nil {
		t.Fatal("raise block missing")
	}
	outs := g.Successors(b.Index)
	if len(outs) != 1 || outs[0].Label != LabelExceptionRaised || outs[0].To != g.Exit {
		t.Fatalf("uncaught raise edge = %+v, want exception_raised to exit", outs)
	}
	if outs[0].Value != "ValueError" {
		t.Errorf("raise edge kind = %q", outs[0].Value)
	}
}

func TestBuildBreakOutsideLoop(t *testing.T) {
	fn := fnNode("f", stmtNode(ast.KindBreak, "break", 2))
	_, err := Build(fn)
	var serr *StructuralError
	if err == nil {
		t.Fatal("break outside loop did not fail")
	}
	if !asStructural(err, &serr) {
		t.Fatalf("error type = %T, want *StructuralError", err)
	}
	if serr.Kind != ast.KindBreak || serr.Line != 2 {
		t.Errorf("structural error = %+v", serr)
	}
}

func asStructural(err error, target **StructuralError) bool {
	if s, ok := err.(*StructuralError); ok {
		*target = s
		return true
	}
	return false
}

func TestBuildContinueTargetsHeader(t *testing.T) {
	fn := fnNode("f", &ast.Node{
		Kind:      ast.KindLoop,
		LoopKind:  ast.LoopFor,
		Text:      "for i in xs:",
		Cond:      "i in xs",
		StartLine: 2,
		EndLine:   5,
		Children: []*ast.Node{
			&ast.Node{
				Kind:      ast.KindIf,
				Text:      "if skip(i):",
				Cond:      "skip(i)",
				StartLine: 3,
				EndLine:   4,
				Children:  []*ast.Node{stmtNode(ast.KindContinue, "continue", 4)},
			},
			&ast.Node{Kind: ast.KindCall, Text: "use(i)", CallTarget: "use", StartLine: 5, EndLine: 5},
		},
	})
	g, err := Build(fn)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	g, err = Normalize(g)
	if err != nil {
		t.Fatalf("Normalize: %v", err)
	}

	header := blockWith(g, "for i in xs:")
	cont := blockWith(g, "continue")
	if header == nil || cont == nil {
		t.Fatal("loop header or continue block missing")
	}
	outs := g.Successors(cont.Index)
	if len(outs) != 1 || outs[0].Label != LabelLoopContinue || outs[0].To != header.Index {
		t.Fatalf("continue edge = %+v, want loop_continue to header %d", outs, header.Index)
	}
}

func TestBuildDeterministic(t *testing.T) {
	make := func() *ast.Node {
		return fnNode("f",
			stmtNode(ast.KindAssign, "y = 0", 2),
			&ast.Node{
				Kind: ast.KindLoop, LoopKind: ast.LoopWhile,
				Text: "while x > 0:", Cond: "x > 0", StartLine: 3, EndLine: 5,
				Children: []*ast.Node{
					stmtNode(ast.KindAssign, "y = y + x", 4),
					stmtNode(ast.KindAssign, "x = x - 1", 5),
				},
			},
			stmtNode(ast.KindReturn, "return y", 6),
		)
	}

	a, err := Build(make())
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	b, err := Build(make())
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	a, _ = Normalize(a)
	b, _ = Normalize(b)

	if len(a.Blocks) != len(b.Blocks) || len(a.Edges) != len(b.Edges) {
		t.Fatalf("graph sizes differ: %d/%d blocks, %d/%d edges",
			len(a.Blocks), len(b.Blocks), len(a.Edges), len(b.Edges))
	}
	for i := range a.Blocks {
		if a.Blocks[i].Shape != b.Blocks[i].Shape || a.Blocks[i].Text() != b.Blocks[i].Text() {
			t.Errorf("block %d differs: %s %q vs %s %q", i,
				a.Blocks[i].Shape, a.Blocks[i].Text(), b.Blocks[i].Shape, b.Blocks[i].Text())
		}
	}
	for i := range a.Edges {
		if a.Edges[i] != b.Edges[i] {
			t.Errorf("edge %d differs: %+v vs %+v", i, a.Edges[i], b.Edges[i])
		}
	}
}

func TestComplexity(t *testing.T) {
	straight, _ := Build(fnNode("f", stmtNode(ast.KindAssign, "y = 1", 2)))
	straight, _ = Normalize(straight)
	if c := straight.Complexity(); c != 1 {
		t.Errorf("straight-line complexity = %d, want 1", c)
	}

	branched, _ := Build(fnNode("f", &ast.Node{
		Kind: ast.KindIf, Text: "if x:", Cond: "x", StartLine: 2, EndLine: 3,
		Children: []*ast.Node{stmtNode(ast.KindAssign, "y = 1", 3)},
	}))
	branched, _ = Normalize(branched)
	if c := branched.Complexity(); c != 2 {
		t.Errorf("one-decision complexity = %d, want 2", c)
	}
}

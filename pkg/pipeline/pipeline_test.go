package pipeline

import (
	"strings"
	"testing"

	"github.com/LLAYUAN/SimulateExe-SelfDebug/pkg/ast"
	"github.com/LLAYUAN/SimulateExe-SelfDebug/pkg/cfg"
	"github.com/LLAYUAN/SimulateExe-SelfDebug/pkg/render"
)

func analyzePy(t *testing.T, src string, opts Options) *Analysis {
	t.Helper()
	res, err := Analyze(SourceUnit{Language: ast.LanguagePython, Source: []byte(src)}, opts)
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}
	return res
}

func TestAnalyzeBranchReturnsFourLines(t *testing.T) {
	res := analyzePy(t, `def f(x):
    if x > 0:
        return 1
    else:
        return -1
`, Options{})

	if len(res.Path.Lines) != 4 {
		t.Fatalf("rendered lines = %d, want 4:\n%s", len(res.Path.Lines), res.Path.Text())
	}
	// Entry, one Decision, two Return blocks, one Exit.
	if len(res.Graph.Blocks) != 5 {
		t.Errorf("block count = %d, want 5", len(res.Graph.Blocks))
	}
	decisions := 0
	for _, b := range res.Graph.Blocks {
		if b.Shape == cfg.ShapeDecision {
			decisions++
		}
	}
	if decisions != 1 {
		t.Errorf("decision blocks = %d, want 1", decisions)
	}
}

func TestAnalyzeWhileBreakTargetsContinuation(t *testing.T) {
	res := analyzePy(t, `def f(n):
    while n > 0:
        if n == 1:
            break
        n = n - 1
    return n
`, Options{})
	g := res.Graph

	var header, latch, brk, cont *cfg.Block
	for _, b := range g.Blocks {
		switch {
		case b.Shape == cfg.ShapeLoopHeader:
			header = b
		case b.Shape == cfg.ShapeLoopLatch:
			latch = b
		case strings.Contains(b.Text(), "break"):
			brk = b
		case strings.Contains(b.Text(), "return n"):
			cont = b
		}
	}
	if header == nil || latch == nil || brk == nil || cont == nil {
		t.Fatalf("missing shape: header=%v latch=%v break=%v cont=%v", header, latch, brk, cont)
	}

	outs := g.Successors(brk.Index)
	if len(outs) != 1 || outs[0].Label != cfg.LabelLoopExit || outs[0].To != cont.Index {
		t.Errorf("break edge = %+v, want loop_exit to block %d", outs, cont.Index)
	}
	back := g.Successors(latch.Index)
	if len(back) != 1 || back[0].To != header.Index {
		t.Errorf("latch back-edge = %+v, want target %d", back, header.Index)
	}
}

func TestAnalyzeImplicitFallThrough(t *testing.T) {
	res := analyzePy(t, `def f(x):
    y = x + 1
    z = y * 2
`, Options{})
	g := res.Graph

	ins := g.Predecessors(g.Exit)
	if len(ins) != 1 || ins[0].Label != cfg.LabelUnconditional {
		t.Fatalf("exit in-edges = %+v, want one unconditional fall-through", ins)
	}
}

func TestAnalyzeDeadCodeExcludedFromPath(t *testing.T) {
	res := analyzePy(t, `def f(x):
    if x > 0:
        return 1
        x = 99
    return 0
`, Options{})

	if strings.Contains(res.Path.Text(), "x = 99") {
		t.Errorf("dead statement rendered:\n%s", res.Path.Text())
	}
	flagged := false
	for _, w := range res.Path.Warnings {
		if w.Kind == cfg.WarnDeadCode {
			flagged = true
		}
	}
	if !flagged {
		t.Errorf("dead code not flagged, warnings = %+v", res.Path.Warnings)
	}
}

func TestAnalyzeDeterministic(t *testing.T) {
	src := `def f(items):
    total = 0
    for item in items:
        if item < 0:
            continue
        total = total + item
    return total
`
	first := analyzePy(t, src, Options{}).Path.Text()
	for i := 0; i < 3; i++ {
		if got := analyzePy(t, src, Options{}).Path.Text(); got != first {
			t.Fatalf("run %d differs:\n%s\n---\n%s", i, first, got)
		}
	}
}

func TestAnalyzeReturnEdgeCount(t *testing.T) {
	res := analyzePy(t, `def f(x):
    if x == 0:
        return "zero"
    if x < 0:
        return "negative"
    return "positive"
`, Options{})
	g := res.Graph

	returns := 0
	for _, e := range g.Predecessors(g.Exit) {
		if e.Label == cfg.LabelReturn {
			returns++
		}
	}
	if returns != 3 {
		t.Errorf("return edges into exit = %d, want 3", returns)
	}
}

func TestAnalyzeJavaMethod(t *testing.T) {
	res, err := Analyze(SourceUnit{
		Language: ast.LanguageJava,
		Source: []byte(`class Calc {
    int abs(int x) {
        if (x < 0) {
            return -x;
        }
        return x;
    }
}
`),
		Function: "abs",
	}, Options{Format: render.FormatProse})
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}
	if res.Function != "abs" {
		t.Errorf("function = %q", res.Function)
	}
	if !strings.HasPrefix(res.Path.Text(), "G describes a control flow graph of Method `abs(x)`") {
		t.Errorf("prose header for Java unit:\n%s", res.Path.Lines[0])
	}
}

func TestAnalyzeJavaSwitchWithBreaks(t *testing.T) {
	res, err := Analyze(SourceUnit{
		Language: ast.LanguageJava,
		Source: []byte(`class T {
    int pick(int code) {
        int r = 0;
        switch (code) {
        case 1:
            r = 10;
            break;
        case 2:
            r = 20;
            break;
        default:
            r = 30;
        }
        return r;
    }
}
`),
		Function: "pick",
	}, Options{})
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}
	// No loop anywhere, so no loop_exit edges either: the arm breaks are
	// desugared away, not passed through.
	for _, e := range res.Graph.Edges {
		if e.Label == cfg.LabelLoopExit {
			t.Errorf("loop_exit edge in a loop-free method: %+v", e)
		}
	}
	if !strings.Contains(res.Path.Text(), `on case "1"`) {
		t.Errorf("case arm missing from path:\n%s", res.Path.Text())
	}
}

func TestAnalyzeJavaSwitchBreakInsideLoop(t *testing.T) {
	res, err := Analyze(SourceUnit{
		Language: ast.LanguageJava,
		Source: []byte(`class T {
    int tally(int[] xs) {
        int acc = 0;
        for (int i = 0; i < xs.length; i++) {
            switch (xs[i]) {
            case 1:
                acc += 1;
                break;
            default:
                acc += 5;
            }
            acc += 10;
        }
        return acc;
    }
}
`),
		Function: "tally",
	}, Options{})
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}
	g := res.Graph

	// The only loop_exit belongs to the for header; the arm breaks must not
	// become extra loop exits that skip the rest of the body.
	exits := 0
	for _, e := range g.Edges {
		if e.Label != cfg.LabelLoopExit {
			continue
		}
		exits++
		if g.Blocks[e.From].Shape != cfg.ShapeLoopHeader {
			t.Errorf("loop_exit from %s block %d", g.Blocks[e.From].Shape, e.From)
		}
	}
	if exits != 1 {
		t.Errorf("loop_exit edges = %d, want 1", exits)
	}

	// Both arms rejoin on the statement after the switch.
	var after *cfg.Block
	for _, b := range g.Blocks {
		if strings.Contains(b.Text(), "acc += 10") {
			after = b
		}
	}
	if after == nil {
		t.Fatalf("statement after the switch missing from graph:\n%s", res.Path.Text())
	}
	if ins := g.Predecessors(after.Index); len(ins) < 2 {
		t.Errorf("post-switch block has %d predecessors, want both arms", len(ins))
	}
}

func TestAnalyzeComposeInlinesSibling(t *testing.T) {
	res := analyzePy(t, `def helper(y):
    return y * 2

def f(x):
    helper(x)
    return x
`, Options{Compose: true})

	if res.Function != "helper" {
		// first function is selected by default; re-run targeting f
		t.Fatalf("default selection = %q", res.Function)
	}

	resF, err := Analyze(SourceUnit{
		Language: ast.LanguagePython,
		Source: []byte(`def helper(y):
    return y * 2

def f(x):
    helper(x)
    return x
`),
		Function: "f",
	}, Options{Compose: true})
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}

	foundEnter, foundBody := false, false
	for _, e := range resF.Graph.Edges {
		if e.Label == cfg.LabelCallEnter {
			foundEnter = true
		}
	}
	for _, b := range resF.Graph.Blocks {
		if strings.Contains(b.Text(), "return y * 2") {
			foundBody = true
		}
	}
	if !foundEnter || !foundBody {
		t.Errorf("composition incomplete: enter=%v body=%v\n%s", foundEnter, foundBody, resF.Path.Text())
	}
}

func TestAnalyzeComposeAssignedCall(t *testing.T) {
	res, err := Analyze(SourceUnit{
		Language: ast.LanguagePython,
		Source: []byte(`def helper(y):
    return y * 2

def f(x):
    z = helper(x)
    return z
`),
		Function: "f",
	}, Options{Compose: true})
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}

	foundEnter, foundBody := false, false
	for _, e := range res.Graph.Edges {
		if e.Label == cfg.LabelCallEnter {
			foundEnter = true
		}
	}
	for _, b := range res.Graph.Blocks {
		if strings.Contains(b.Text(), "return y * 2") {
			foundBody = true
		}
	}
	if !foundEnter || !foundBody {
		t.Errorf("assigned call not composed: enter=%v body=%v\n%s", foundEnter, foundBody, res.Path.Text())
	}
}

func TestAnalyzeParseErrorTyped(t *testing.T) {
	_, err := Analyze(SourceUnit{
		Language: ast.LanguagePython,
		Source:   []byte("def broken(:\n    pass\n"),
	}, Options{})
	if err == nil {
		t.Fatal("malformed unit analyzed without error")
	}
	if _, ok := err.(*ast.ParseError); !ok {
		t.Errorf("error type = %T, want *ast.ParseError", err)
	}
}

func TestAnalyzeBindingsPrefix(t *testing.T) {
	res, err := Analyze(SourceUnit{
		Language: ast.LanguagePython,
		Source:   []byte("def f(x):\n    return x\n"),
		Bindings: []render.Binding{{Name: "x", Value: "41"}},
	}, Options{})
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}
	if res.Path.Lines[0] != "binding x = 41" {
		t.Errorf("first line = %q", res.Path.Lines[0])
	}
}

package frontend

import (
	"strings"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/python"

	"github.com/LLAYUAN/SimulateExe-SelfDebug/pkg/ast"
)

// pythonFrontend converts a tree-sitter Python parse into the shared AST.
type pythonFrontend struct {
	src []byte
}

// parsePython parses Python source text into the shared AST vocabulary.
func parsePython(source []byte) (*ast.Node, error) {
	parser := sitter.NewParser()
	parser.SetLanguage(python.GetLanguage())
	tree := parser.Parse(nil, source)
	defer tree.Close()

	root := tree.RootNode()
	if root.HasError() {
		return nil, syntaxError(root, source)
	}

	fe := &pythonFrontend{src: source}
	unit := &ast.Node{
		Kind:      ast.KindSequence,
		StartLine: 1,
		EndLine:   int(root.EndPoint().Row) + 1,
		Children:  fe.statements(root),
	}
	return unit, nil
}

// statements converts the named children of a block-like node, preserving
// source order. Comments are the only construct skipped outright; anything
// else unclassifiable survives as an opaque ExprStatement.
func (fe *pythonFrontend) statements(block *sitter.Node) []*ast.Node {
	var out []*ast.Node
	for i := 0; i < int(block.NamedChildCount()); i++ {
		child := block.NamedChild(i)
		if child == nil || child.Type() == "comment" {
			continue
		}
		stmt := fe.statement(child)
		if stmt == nil {
			continue
		}
		// Sequence wrappers (with-bodies, loop else-clauses) flatten in place.
		if stmt.Kind == ast.KindSequence && stmt.Text == "" {
			out = append(out, stmt.Children...)
		} else {
			out = append(out, stmt)
		}
	}
	return out
}

func (fe *pythonFrontend) statement(n *sitter.Node) *ast.Node {
	start, end := lines(n)

	switch n.Type() {
	case "function_definition":
		return fe.functionDef(n)

	case "decorated_definition":
		if def := n.ChildByFieldName("definition"); def != nil {
			return fe.statement(def)
		}
		return fe.opaque(n)

	case "if_statement":
		return fe.ifStatement(n)

	case "while_statement":
		loop := &ast.Node{
			Kind:      ast.KindLoop,
			LoopKind:  ast.LoopWhile,
			Text:      firstLine(text(n, fe.src)),
			Cond:      text(n.ChildByFieldName("condition"), fe.src),
			StartLine: start,
			EndLine:   end,
			Children:  fe.statements(n.ChildByFieldName("body")),
		}
		return fe.withLoopElse(n, loop)

	case "for_statement":
		loop := &ast.Node{
			Kind:      ast.KindLoop,
			LoopKind:  ast.LoopFor,
			Text:      firstLine(text(n, fe.src)),
			Cond:      text(n.ChildByFieldName("left"), fe.src) + " in " + text(n.ChildByFieldName("right"), fe.src),
			StartLine: start,
			EndLine:   end,
			Children:  fe.statements(n.ChildByFieldName("body")),
		}
		return fe.withLoopElse(n, loop)

	case "return_statement":
		node := &ast.Node{Kind: ast.KindReturn, Text: firstLine(text(n, fe.src)), StartLine: start, EndLine: end}
		if expr := n.NamedChild(0); expr != nil && expr.Type() == "call" {
			node.CallTarget = text(expr.ChildByFieldName("function"), fe.src)
		}
		return node

	case "break_statement":
		return &ast.Node{Kind: ast.KindBreak, Text: "break", StartLine: start, EndLine: end}

	case "continue_statement":
		return &ast.Node{Kind: ast.KindContinue, Text: "continue", StartLine: start, EndLine: end}

	case "raise_statement":
		return &ast.Node{
			Kind:      ast.KindRaise,
			Text:      firstLine(text(n, fe.src)),
			Exception: fe.raisedKind(n),
			StartLine: start,
			EndLine:   end,
		}

	case "try_statement":
		return fe.tryStatement(n)

	case "with_statement":
		// The with-header is opaque, but the body statements must survive.
		header := &ast.Node{Kind: ast.KindExprStatement, Text: firstLine(text(n, fe.src)), StartLine: start, EndLine: start}
		body := fe.statements(n.ChildByFieldName("body"))
		return &ast.Node{Kind: ast.KindSequence, StartLine: start, EndLine: end,
			Children: append([]*ast.Node{header}, body...)}

	case "match_statement":
		return fe.matchStatement(n)

	case "expression_statement":
		return fe.expressionStatement(n)

	case "pass_statement":
		return &ast.Node{Kind: ast.KindExprStatement, Text: "pass", StartLine: start, EndLine: end}

	default:
		return fe.opaque(n)
	}
}

func (fe *pythonFrontend) functionDef(n *sitter.Node) *ast.Node {
	start, end := lines(n)
	name := text(n.ChildByFieldName("name"), fe.src)
	params := fe.paramNames(n.ChildByFieldName("parameters"))
	return &ast.Node{
		Kind:      ast.KindFunctionDef,
		Text:      firstLine(text(n, fe.src)),
		Name:      name,
		Signature: name + "(" + strings.Join(params, ", ") + ")",
		StartLine: start,
		EndLine:   end,
		Children:  fe.statements(n.ChildByFieldName("body")),
	}
}

// paramNames extracts bare parameter names, dropping defaults and annotations.
func (fe *pythonFrontend) paramNames(params *sitter.Node) []string {
	var out []string
	if params == nil {
		return out
	}
	for i := 0; i < int(params.NamedChildCount()); i++ {
		p := params.NamedChild(i)
		if p == nil {
			continue
		}
		switch p.Type() {
		case "identifier":
			out = append(out, text(p, fe.src))
		case "typed_parameter", "default_parameter", "typed_default_parameter":
			if id := p.NamedChild(0); id != nil {
				out = append(out, text(id, fe.src))
			}
		default:
			out = append(out, text(p, fe.src))
		}
	}
	return out
}

func (fe *pythonFrontend) ifStatement(n *sitter.Node) *ast.Node {
	start, end := lines(n)
	node := &ast.Node{
		Kind:      ast.KindIf,
		Text:      "if " + text(n.ChildByFieldName("condition"), fe.src) + ":",
		Cond:      text(n.ChildByFieldName("condition"), fe.src),
		StartLine: start,
		EndLine:   end,
		Children:  fe.statements(n.ChildByFieldName("consequence")),
	}

	// elif/else arms hang off the if_statement as alternative children; an
	// elif chain folds into nested If nodes on the Else branch.
	tail := node
	for i := 0; i < int(n.NamedChildCount()); i++ {
		alt := n.NamedChild(i)
		if alt == nil {
			continue
		}
		switch alt.Type() {
		case "elif_clause":
			elif := &ast.Node{
				Kind:      ast.KindIf,
				Text:      "elif " + text(alt.ChildByFieldName("condition"), fe.src) + ":",
				Cond:      text(alt.ChildByFieldName("condition"), fe.src),
				StartLine: int(alt.StartPoint().Row) + 1,
				EndLine:   int(alt.EndPoint().Row) + 1,
				Children:  fe.statements(alt.ChildByFieldName("consequence")),
			}
			tail.Else = []*ast.Node{elif}
			tail = elif
		case "else_clause":
			tail.Else = fe.statements(alt.ChildByFieldName("body"))
		}
	}
	return node
}

// withLoopElse appends a Python loop-else body as statements following the
// loop. The else arm runs when the loop exits normally; at statement
// granularity that is the loop's continuation.
func (fe *pythonFrontend) withLoopElse(n *sitter.Node, loop *ast.Node) *ast.Node {
	alt := n.ChildByFieldName("alternative")
	if alt == nil {
		return loop
	}
	elseBody := fe.statements(alt.ChildByFieldName("body"))
	if len(elseBody) == 0 {
		return loop
	}
	return &ast.Node{Kind: ast.KindSequence, StartLine: loop.StartLine, EndLine: loop.EndLine,
		Children: append([]*ast.Node{loop}, elseBody...)}
}

func (fe *pythonFrontend) tryStatement(n *sitter.Node) *ast.Node {
	start, end := lines(n)
	node := &ast.Node{
		Kind:      ast.KindTryCatch,
		Text:      "try:",
		StartLine: start,
		EndLine:   end,
		Children:  fe.statements(n.ChildByFieldName("body")),
	}

	for i := 0; i < int(n.NamedChildCount()); i++ {
		child := n.NamedChild(i)
		if child == nil {
			continue
		}
		switch child.Type() {
		case "except_clause", "except_group_clause":
			node.Handlers = append(node.Handlers, fe.handler(child))
		case "else_clause":
			// try-else runs only on the normal path; statement granularity
			// places it after the guarded body.
			node.Children = append(node.Children, fe.statements(child.ChildByFieldName("body"))...)
		case "finally_clause":
			for j := 0; j < int(child.NamedChildCount()); j++ {
				if blk := child.NamedChild(j); blk != nil && blk.Type() == "block" {
					node.Final = fe.statements(blk)
				}
			}
		}
	}
	return node
}

// handler converts one except clause. The clause has no field names in the
// grammar: any expression before the block is the caught kind.
func (fe *pythonFrontend) handler(clause *sitter.Node) ast.Handler {
	h := ast.Handler{Kind: "*", StartLine: int(clause.StartPoint().Row) + 1}
	for i := 0; i < int(clause.NamedChildCount()); i++ {
		child := clause.NamedChild(i)
		if child == nil {
			continue
		}
		if child.Type() == "block" {
			h.Body = fe.statements(child)
			continue
		}
		if h.Kind == "*" {
			kind := text(child, fe.src)
			// `except ValueError as e` arrives as an as_pattern; the kind is
			// the expression before "as".
			if idx := strings.Index(kind, " as "); idx >= 0 {
				kind = kind[:idx]
			}
			h.Kind = strings.TrimSpace(kind)
		}
	}
	return h
}

// matchStatement desugars a match statement into an If chain so the graph
// stays inside the fixed construct set. Each arm keeps its pattern as a
// CaseValue so the builder can label its edge CaseMatch.
func (fe *pythonFrontend) matchStatement(n *sitter.Node) *ast.Node {
	subject := text(n.ChildByFieldName("subject"), fe.src)
	if subject == "" && n.NamedChildCount() > 0 {
		subject = text(n.NamedChild(0), fe.src)
	}

	var cases []*sitter.Node
	var collect func(node *sitter.Node)
	collect = func(node *sitter.Node) {
		for i := 0; i < int(node.NamedChildCount()); i++ {
			child := node.NamedChild(i)
			if child == nil {
				continue
			}
			if child.Type() == "case_clause" {
				cases = append(cases, child)
			} else {
				collect(child)
			}
		}
	}
	collect(n)

	if len(cases) == 0 {
		return fe.opaque(n)
	}

	var head, tail *ast.Node
	for _, c := range cases {
		pattern := ""
		var body []*ast.Node
		for i := 0; i < int(c.NamedChildCount()); i++ {
			child := c.NamedChild(i)
			if child == nil {
				continue
			}
			if child.Type() == "block" {
				body = fe.statements(child)
			} else if pattern == "" {
				pattern = text(child, fe.src)
			}
		}
		arm := &ast.Node{
			Kind:      ast.KindIf,
			Text:      "case " + pattern + ":",
			Cond:      subject + " matches " + pattern,
			CaseValue: pattern,
			StartLine: int(c.StartPoint().Row) + 1,
			EndLine:   int(c.EndPoint().Row) + 1,
			Children:  body,
		}
		if head == nil {
			head = arm
		} else {
			tail.Else = []*ast.Node{arm}
		}
		tail = arm
	}
	head.Text = "match " + subject + ": " + head.Text
	return head
}

func (fe *pythonFrontend) expressionStatement(n *sitter.Node) *ast.Node {
	start, end := lines(n)
	expr := n.NamedChild(0)
	if expr == nil {
		return fe.opaque(n)
	}

	switch expr.Type() {
	case "assignment", "augmented_assignment":
		node := &ast.Node{Kind: ast.KindAssign, Text: firstLine(text(n, fe.src)), StartLine: start, EndLine: end}
		if right := expr.ChildByFieldName("right"); right != nil && right.Type() == "call" {
			node.CallTarget = text(right.ChildByFieldName("function"), fe.src)
		}
		return node
	case "call":
		return &ast.Node{
			Kind:       ast.KindCall,
			Text:       firstLine(text(n, fe.src)),
			CallTarget: text(expr.ChildByFieldName("function"), fe.src),
			StartLine:  start,
			EndLine:    end,
		}
	case "yield":
		return &ast.Node{Kind: ast.KindYield, Text: firstLine(text(n, fe.src)), StartLine: start, EndLine: end}
	default:
		return &ast.Node{Kind: ast.KindExprStatement, Text: firstLine(text(n, fe.src)), StartLine: start, EndLine: end}
	}
}

// raisedKind extracts the exception type from a raise statement: the callee
// of `raise ValueError(...)`, the identifier of `raise StopIteration`, or ""
// for a bare re-raise.
func (fe *pythonFrontend) raisedKind(n *sitter.Node) string {
	expr := n.NamedChild(0)
	if expr == nil {
		return ""
	}
	if expr.Type() == "call" {
		return text(expr.ChildByFieldName("function"), fe.src)
	}
	return firstLine(text(expr, fe.src))
}

// opaque wraps an unclassified construct as an ExprStatement leaf so the
// graph remains a faithful cover of the source.
func (fe *pythonFrontend) opaque(n *sitter.Node) *ast.Node {
	start, end := lines(n)
	return &ast.Node{Kind: ast.KindExprStatement, Text: firstLine(text(n, fe.src)), StartLine: start, EndLine: end}
}

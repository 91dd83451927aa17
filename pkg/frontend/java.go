package frontend

import (
	"strings"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/java"

	"github.com/LLAYUAN/SimulateExe-SelfDebug/pkg/ast"
)

// javaFrontend converts a tree-sitter Java parse into the shared AST.
type javaFrontend struct {
	src []byte
}

// parseJava parses Java source text into the shared AST vocabulary. Classes
// and interfaces become Sequence nodes so that method FunctionDefs stay
// discoverable without a Java-specific walk.
func parseJava(source []byte) (*ast.Node, error) {
	parser := sitter.NewParser()
	parser.SetLanguage(java.GetLanguage())
	tree := parser.Parse(nil, source)
	defer tree.Close()

	root := tree.RootNode()
	if root.HasError() {
		return nil, syntaxError(root, source)
	}

	fe := &javaFrontend{src: source}
	unit := &ast.Node{
		Kind:      ast.KindSequence,
		StartLine: 1,
		EndLine:   int(root.EndPoint().Row) + 1,
		Children:  fe.topLevel(root),
	}
	return unit, nil
}

// topLevel converts compilation-unit members: type declarations expand into
// their methods, everything else (package, imports) stays opaque.
func (fe *javaFrontend) topLevel(root *sitter.Node) []*ast.Node {
	var out []*ast.Node
	for i := 0; i < int(root.NamedChildCount()); i++ {
		child := root.NamedChild(i)
		if child == nil {
			continue
		}
		switch child.Type() {
		case "class_declaration", "interface_declaration", "enum_declaration":
			out = append(out, fe.typeDecl(child))
		case "line_comment", "block_comment":
			// skip
		default:
			out = append(out, fe.opaque(child))
		}
	}
	return out
}

func (fe *javaFrontend) typeDecl(n *sitter.Node) *ast.Node {
	start, end := lines(n)
	decl := &ast.Node{
		Kind:      ast.KindSequence,
		Text:      firstLine(text(n, fe.src)),
		Name:      text(n.ChildByFieldName("name"), fe.src),
		StartLine: start,
		EndLine:   end,
	}
	body := n.ChildByFieldName("body")
	if body == nil {
		return decl
	}
	for i := 0; i < int(body.NamedChildCount()); i++ {
		member := body.NamedChild(i)
		if member == nil {
			continue
		}
		switch member.Type() {
		case "method_declaration", "constructor_declaration":
			if fn := fe.methodDecl(member); fn != nil {
				decl.Children = append(decl.Children, fn)
			}
		case "class_declaration", "interface_declaration", "enum_declaration":
			decl.Children = append(decl.Children, fe.typeDecl(member))
		}
	}
	return decl
}

// methodDecl converts a method or constructor. Abstract and interface methods
// without bodies are skipped: there is no control flow to analyze.
func (fe *javaFrontend) methodDecl(n *sitter.Node) *ast.Node {
	body := n.ChildByFieldName("body")
	if body == nil {
		return nil
	}
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
		Children:  fe.statements(body),
	}
}

// paramNames extracts formal parameter names without their types.
func (fe *javaFrontend) paramNames(params *sitter.Node) []string {
	var out []string
	if params == nil {
		return out
	}
	for i := 0; i < int(params.NamedChildCount()); i++ {
		p := params.NamedChild(i)
		if p == nil {
			continue
		}
		if name := p.ChildByFieldName("name"); name != nil {
			out = append(out, text(name, fe.src))
		}
	}
	return out
}

// statements converts the named children of a block node.
func (fe *javaFrontend) statements(block *sitter.Node) []*ast.Node {
	var out []*ast.Node
	if block == nil {
		return out
	}
	for i := 0; i < int(block.NamedChildCount()); i++ {
		child := block.NamedChild(i)
		if child == nil || child.Type() == "line_comment" || child.Type() == "block_comment" {
			continue
		}
		stmt := fe.statement(child)
		if stmt == nil {
			continue
		}
		if stmt.Kind == ast.KindSequence && stmt.Text == "" {
			out = append(out, stmt.Children...)
		} else {
			out = append(out, stmt)
		}
	}
	return out
}

// body converts an embedded statement position: either a block or a single
// statement (Java allows both after if/while/for).
func (fe *javaFrontend) body(n *sitter.Node) []*ast.Node {
	if n == nil {
		return nil
	}
	if n.Type() == "block" {
		return fe.statements(n)
	}
	stmt := fe.statement(n)
	if stmt == nil {
		return nil
	}
	if stmt.Kind == ast.KindSequence && stmt.Text == "" {
		return stmt.Children
	}
	return []*ast.Node{stmt}
}

func (fe *javaFrontend) statement(n *sitter.Node) *ast.Node {
	start, end := lines(n)

	switch n.Type() {
	case "if_statement":
		return fe.ifStatement(n)

	case "while_statement":
		return &ast.Node{
			Kind:      ast.KindLoop,
			LoopKind:  ast.LoopWhile,
			Text:      firstLine(text(n, fe.src)),
			Cond:      stripParens(text(n.ChildByFieldName("condition"), fe.src)),
			StartLine: start,
			EndLine:   end,
			Children:  fe.body(n.ChildByFieldName("body")),
		}

	case "do_statement":
		// Modeled as a condition-first loop; the first-iteration guarantee is
		// below statement granularity.
		return &ast.Node{
			Kind:      ast.KindLoop,
			LoopKind:  ast.LoopWhile,
			Text:      "do ... while (" + stripParens(text(n.ChildByFieldName("condition"), fe.src)) + ")",
			Cond:      stripParens(text(n.ChildByFieldName("condition"), fe.src)),
			StartLine: start,
			EndLine:   end,
			Children:  fe.body(n.ChildByFieldName("body")),
		}

	case "for_statement":
		cond := stripParens(text(n.ChildByFieldName("condition"), fe.src))
		if cond == "" {
			cond = "true"
		}
		return &ast.Node{
			Kind:      ast.KindLoop,
			LoopKind:  ast.LoopFor,
			Text:      firstLine(text(n, fe.src)),
			Cond:      cond,
			StartLine: start,
			EndLine:   end,
			Children:  fe.body(n.ChildByFieldName("body")),
		}

	case "enhanced_for_statement":
		return &ast.Node{
			Kind:      ast.KindLoop,
			LoopKind:  ast.LoopFor,
			Text:      firstLine(text(n, fe.src)),
			Cond:      text(n.ChildByFieldName("name"), fe.src) + " : " + text(n.ChildByFieldName("value"), fe.src),
			StartLine: start,
			EndLine:   end,
			Children:  fe.body(n.ChildByFieldName("body")),
		}

	case "return_statement":
		node := &ast.Node{Kind: ast.KindReturn, Text: firstLine(text(n, fe.src)), StartLine: start, EndLine: end}
		if expr := n.NamedChild(0); expr != nil && expr.Type() == "method_invocation" {
			node.CallTarget = text(expr.ChildByFieldName("name"), fe.src)
		}
		return node

	case "break_statement":
		return &ast.Node{Kind: ast.KindBreak, Text: firstLine(text(n, fe.src)), StartLine: start, EndLine: end}

	case "continue_statement":
		return &ast.Node{Kind: ast.KindContinue, Text: firstLine(text(n, fe.src)), StartLine: start, EndLine: end}

	case "throw_statement":
		return &ast.Node{
			Kind:      ast.KindRaise,
			Text:      firstLine(text(n, fe.src)),
			Exception: fe.thrownKind(n),
			StartLine: start,
			EndLine:   end,
		}

	case "try_statement", "try_with_resources_statement":
		return fe.tryStatement(n)

	case "switch_expression", "switch_statement":
		return fe.switchStatement(n)

	case "local_variable_declaration":
		return &ast.Node{
			Kind:       ast.KindAssign,
			Text:       firstLine(text(n, fe.src)),
			CallTarget: fe.declaredCall(n),
			StartLine:  start,
			EndLine:    end,
		}

	case "expression_statement":
		return fe.expressionStatement(n)

	case "block":
		return &ast.Node{Kind: ast.KindSequence, StartLine: start, EndLine: end, Children: fe.statements(n)}

	case "labeled_statement":
		// Label prefix stays opaque; the labeled statement itself is converted.
		var inner []*ast.Node
		for i := 0; i < int(n.NamedChildCount()); i++ {
			child := n.NamedChild(i)
			if child != nil && child.Type() != "identifier" {
				inner = fe.body(child)
			}
		}
		return &ast.Node{Kind: ast.KindSequence, StartLine: start, EndLine: end, Children: inner}

	default:
		return fe.opaque(n)
	}
}

func (fe *javaFrontend) ifStatement(n *sitter.Node) *ast.Node {
	start, end := lines(n)
	cond := stripParens(text(n.ChildByFieldName("condition"), fe.src))
	node := &ast.Node{
		Kind:      ast.KindIf,
		Text:      "if (" + cond + ")",
		Cond:      cond,
		StartLine: start,
		EndLine:   end,
		Children:  fe.body(n.ChildByFieldName("consequence")),
	}
	if alt := n.ChildByFieldName("alternative"); alt != nil {
		if alt.Type() == "if_statement" {
			node.Else = []*ast.Node{fe.ifStatement(alt)}
		} else {
			node.Else = fe.body(alt)
		}
	}
	return node
}

func (fe *javaFrontend) tryStatement(n *sitter.Node) *ast.Node {
	start, end := lines(n)
	node := &ast.Node{
		Kind:      ast.KindTryCatch,
		Text:      "try {",
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
		case "catch_clause":
			node.Handlers = append(node.Handlers, fe.catchClause(child))
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

// catchClause converts one catch arm; the caught kind is the catch_type text
// (possibly a multi-catch union, kept as written).
func (fe *javaFrontend) catchClause(clause *sitter.Node) ast.Handler {
	h := ast.Handler{Kind: "*", StartLine: int(clause.StartPoint().Row) + 1}
	for i := 0; i < int(clause.NamedChildCount()); i++ {
		child := clause.NamedChild(i)
		if child == nil {
			continue
		}
		switch child.Type() {
		case "catch_formal_parameter":
			for j := 0; j < int(child.NamedChildCount()); j++ {
				if t := child.NamedChild(j); t != nil && t.Type() == "catch_type" {
					h.Kind = text(t, fe.src)
				}
			}
		case "block":
			h.Body = fe.statements(child)
		}
	}
	return h
}

// switchStatement desugars a switch into an If chain carrying CaseValues, the
// same shape the Python front end uses for match statements.
func (fe *javaFrontend) switchStatement(n *sitter.Node) *ast.Node {
	subject := stripParens(text(n.ChildByFieldName("condition"), fe.src))
	body := n.ChildByFieldName("body")
	if body == nil {
		return fe.opaque(n)
	}

	type arm struct {
		label     string
		isDefault bool
		stmts     []*ast.Node
		line      int
	}
	var arms []arm

	for i := 0; i < int(body.NamedChildCount()); i++ {
		group := body.NamedChild(i)
		if group == nil {
			continue
		}
		switch group.Type() {
		case "switch_block_statement_group", "switch_rule":
			a := arm{line: int(group.StartPoint().Row) + 1}
			for j := 0; j < int(group.NamedChildCount()); j++ {
				part := group.NamedChild(j)
				if part == nil {
					continue
				}
				if part.Type() == "switch_label" {
					label := firstLine(text(part, fe.src))
					a.isDefault = strings.HasPrefix(label, "default")
					a.label = strings.TrimSpace(strings.TrimPrefix(label, "case"))
					continue
				}
				if stmt := fe.statement(part); stmt != nil {
					if stmt.Kind == ast.KindSequence && stmt.Text == "" {
						a.stmts = append(a.stmts, stmt.Children...)
					} else {
						a.stmts = append(a.stmts, stmt)
					}
				}
			}
			a.stmts, _ = desugarBreaks(a.stmts)
			arms = append(arms, a)
		}
	}

	if len(arms) == 0 {
		return fe.opaque(n)
	}

	var head, tail *ast.Node
	for _, a := range arms {
		if a.isDefault {
			if tail != nil {
				tail.Else = a.stmts
			} else {
				// default-only switch degenerates to its statements
				return &ast.Node{Kind: ast.KindSequence, StartLine: a.line, EndLine: a.line, Children: a.stmts}
			}
			continue
		}
		armNode := &ast.Node{
			Kind:      ast.KindIf,
			Text:      "case " + a.label + ":",
			Cond:      subject + " == " + a.label,
			CaseValue: a.label,
			StartLine: a.line,
			EndLine:   a.line,
			Children:  a.stmts,
		}
		if head == nil {
			head = armNode
		} else {
			tail.Else = []*ast.Node{armNode}
		}
		tail = armNode
	}
	if head == nil {
		return fe.opaque(n)
	}
	head.Text = "switch (" + subject + ") " + head.Text
	return head
}

// desugarBreaks strips switch-level breaks from one desugared arm. A break
// ends the arm, so a trailing break is dropped along with anything after it,
// and a break on one side of an if moves the arm's remaining statements onto
// the other side, which rejoins at the chain's merge point. Breaks inside a
// nested loop belong to that loop and are left alone.
func desugarBreaks(stmts []*ast.Node) ([]*ast.Node, bool) {
	var out []*ast.Node
	for i, s := range stmts {
		switch s.Kind {
		case ast.KindBreak:
			return out, true
		case ast.KindIf:
			thenStmts, thenBrk := desugarBreaks(s.Children)
			elseStmts, elseBrk := desugarBreaks(s.Else)
			s.Children, s.Else = thenStmts, elseStmts
			if !thenBrk && !elseBrk {
				out = append(out, s)
				continue
			}
			if thenBrk != elseBrk {
				rest, _ := desugarBreaks(stmts[i+1:])
				if thenBrk {
					s.Else = append(s.Else, rest...)
				} else {
					s.Children = append(s.Children, rest...)
				}
			}
			return append(out, s), true
		default:
			out = append(out, s)
		}
	}
	return out, false
}

func (fe *javaFrontend) expressionStatement(n *sitter.Node) *ast.Node {
	start, end := lines(n)
	expr := n.NamedChild(0)
	if expr == nil {
		return fe.opaque(n)
	}

	switch expr.Type() {
	case "assignment_expression", "update_expression":
		node := &ast.Node{Kind: ast.KindAssign, Text: firstLine(text(n, fe.src)), StartLine: start, EndLine: end}
		if right := expr.ChildByFieldName("right"); right != nil && right.Type() == "method_invocation" {
			node.CallTarget = text(right.ChildByFieldName("name"), fe.src)
		}
		return node
	case "method_invocation":
		return &ast.Node{
			Kind:       ast.KindCall,
			Text:       firstLine(text(n, fe.src)),
			CallTarget: text(expr.ChildByFieldName("name"), fe.src),
			StartLine:  start,
			EndLine:    end,
		}
	default:
		return &ast.Node{Kind: ast.KindExprStatement, Text: firstLine(text(n, fe.src)), StartLine: start, EndLine: end}
	}
}

// declaredCall reports the invoked method when a declaration's initializer is
// a single method call, so the builder can treat the declaration as a call
// site.
func (fe *javaFrontend) declaredCall(n *sitter.Node) string {
	decl := n.ChildByFieldName("declarator")
	if decl == nil {
		return ""
	}
	if value := decl.ChildByFieldName("value"); value != nil && value.Type() == "method_invocation" {
		return text(value.ChildByFieldName("name"), fe.src)
	}
	return ""
}

// thrownKind extracts the thrown type from `throw new Kind(...)`, falling
// back to the expression text for rethrows.
func (fe *javaFrontend) thrownKind(n *sitter.Node) string {
	expr := n.NamedChild(0)
	if expr == nil {
		return ""
	}
	if expr.Type() == "object_creation_expression" {
		if t := expr.ChildByFieldName("type"); t != nil {
			return text(t, fe.src)
		}
	}
	return firstLine(text(expr, fe.src))
}

func (fe *javaFrontend) opaque(n *sitter.Node) *ast.Node {
	start, end := lines(n)
	return &ast.Node{Kind: ast.KindExprStatement, Text: firstLine(text(n, fe.src)), StartLine: start, EndLine: end}
}

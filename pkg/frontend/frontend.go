// Package frontend turns raw source text into the shared statement-level AST.
// Two independent front ends (Python and Java) parse with tree-sitter and
// normalize their grammars into the vocabulary of pkg/ast; neither shares
// grammar-specific code with the other.
package frontend

import (
	"fmt"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"

	"github.com/LLAYUAN/SimulateExe-SelfDebug/pkg/ast"
)

// Parse parses one source unit and returns the root Sequence node. The root's
// children are the unit's top-level statements; function and method bodies are
// reachable through FunctionDef nodes. Syntax errors return *ast.ParseError.
func Parse(lang ast.Language, source []byte) (*ast.Node, error) {
	switch lang {
	case ast.LanguagePython:
		return parsePython(source)
	case ast.LanguageJava:
		return parseJava(source)
	default:
		return nil, fmt.Errorf("unsupported language: %s", lang)
	}
}

// Functions collects every FunctionDef in the tree in source order. Java
// methods nest inside class Sequence nodes, so the walk is recursive.
func Functions(root *ast.Node) []*ast.Node {
	if root == nil {
		return nil
	}
	var out []*ast.Node
	var walk func(n *ast.Node)
	walk = func(n *ast.Node) {
		if n.Kind == ast.KindFunctionDef {
			out = append(out, n)
		}
		for _, c := range n.Children {
			walk(c)
		}
	}
	walk(root)
	return out
}

// FindFunction returns the FunctionDef with the given name, or the first
// function in the unit when name is empty.
func FindFunction(root *ast.Node, name string) (*ast.Node, error) {
	fns := Functions(root)
	if len(fns) == 0 {
		return nil, fmt.Errorf("no function definitions found")
	}
	if name == "" {
		return fns[0], nil
	}
	for _, fn := range fns {
		if fn.Name == name {
			return fn, nil
		}
	}
	return nil, fmt.Errorf("function %q not found", name)
}

// syntaxError locates the first ERROR or missing node and builds a ParseError
// from it. Called only when the root reports an error somewhere in the tree.
func syntaxError(root *sitter.Node, src []byte) *ast.ParseError {
	var bad *sitter.Node
	var find func(n *sitter.Node)
	find = func(n *sitter.Node) {
		if bad != nil || n == nil {
			return
		}
		if n.IsMissing() || n.Type() == "ERROR" {
			bad = n
			return
		}
		if !n.HasError() {
			return
		}
		for i := 0; i < int(n.ChildCount()); i++ {
			find(n.Child(i))
		}
	}
	find(root)
	if bad == nil {
		bad = root
	}
	line := int(bad.StartPoint().Row) + 1
	snippet := firstLine(text(bad, src))
	if snippet == "" {
		return &ast.ParseError{Line: line, Message: "syntax error"}
	}
	return &ast.ParseError{Line: line, Message: fmt.Sprintf("syntax error near %q", snippet)}
}

// text returns the source text covered by a node.
func text(n *sitter.Node, src []byte) string {
	if n == nil {
		return ""
	}
	start, end := n.StartByte(), n.EndByte()
	if start >= uint32(len(src)) || end > uint32(len(src)) {
		return ""
	}
	return string(src[start:end])
}

// firstLine trims a statement down to its first line, the form every block
// annotation uses for compound statements.
func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		s = s[:i]
	}
	return strings.TrimSpace(s)
}

// lines returns the 1-based start and end lines of a node.
func lines(n *sitter.Node) (int, int) {
	return int(n.StartPoint().Row) + 1, int(n.EndPoint().Row) + 1
}

// stripParens removes one layer of surrounding parentheses, the shape Java
// conditions always arrive in.
func stripParens(s string) string {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "(") && strings.HasSuffix(s, ")") {
		return strings.TrimSpace(s[1 : len(s)-1])
	}
	return s
}

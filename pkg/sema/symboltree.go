package sema

import "github.com/compiscript/ccc/pkg/symtab"

// SymbolInfo is one declared name as recorded for a debug dump: enough to
// render an IDE-style outline without re-running analysis.
type SymbolInfo struct {
	Name  string `json:"name"`
	Type  string `json:"type"`
	Const bool   `json:"const"`
	Line  int    `json:"line"`
	Col   int    `json:"col"`
}

// SymbolTreeNode is one scope in the symbol tree dumped by --dsema: a label,
// its nesting level, the symbols declared directly in it, and its children
// in declaration order.
type SymbolTreeNode struct {
	Name     string            `json:"name"`
	Level    int               `json:"level"`
	Symbols  []SymbolInfo      `json:"symbols"`
	Children []*SymbolTreeNode `json:"children"`
}

func newTreeNode(name string, level int) *SymbolTreeNode {
	return &SymbolTreeNode{Name: name, Level: level}
}

// BuildTree walks a symtab.Scope tree and converts it into the JSON-shaped
// SymbolTreeNode tree dumped by --dsema.
func BuildTree(s *symtab.Scope) *SymbolTreeNode {
	node := newTreeNode(s.Label, s.Level)
	for _, sym := range s.OrderedSymbols() {
		node.Symbols = append(node.Symbols, SymbolInfo{
			Name:  sym.Name,
			Type:  sym.Type.String(),
			Const: sym.IsConst,
			Line:  sym.Line,
			Col:   sym.Col,
		})
	}
	for _, c := range s.Children {
		node.Children = append(node.Children, BuildTree(c))
	}
	return node
}

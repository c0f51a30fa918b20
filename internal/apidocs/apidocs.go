// Package apidocs собирает экспортируемые Go символы репозитория и рендерит docs/API.md.
package apidocs

import (
	"bytes"
	"errors"
	"fmt"
	"go/ast"
	"go/parser"
	"go/printer"
	"go/token"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

const (
	KindFunc      = "func"
	KindMethod    = "method"
	KindType      = "type"
	KindInterface = "interface"
	KindConst     = "const"
	KindVar       = "var"
)

const emptyText = "No public APIs were detected in this repository."

const header = `---
title: API Reference
description: Auto-generated documentation of public APIs, functions, and types.
---

# API Reference

This document is auto-generated. Do not edit by hand.

`

const footer = `---

## Usage

- **Regenerate**: run ` + "`go run ./cmd/apidocs`" + `.
- **Scope**: exported functions, methods, types, constants and variables of non-test Go files.
`

// DefaultIgnore каталоги, которые не сканируются
var DefaultIgnore = []string{"node_modules", ".git", "vendor", "dist", "build", "_examples", "testdata"}

type Symbol struct {
	Kind      string
	Name      string
	Signature string
	// File путь относительно корня сканирования, через /
	File string
}

type Scanner struct {
	Root   string
	Ignore map[string]bool
}

func NewScanner(root string) *Scanner {
	ignore := make(map[string]bool, len(DefaultIgnore))
	for _, d := range DefaultIgnore {
		ignore[d] = true
	}
	return &Scanner{Root: root, Ignore: ignore}
}

// Scan обходит дерево и возвращает символы в порядке объявления внутри файла.
// Файлы, которые не парсятся, пропускаются.
func (s *Scanner) Scan() ([]Symbol, error) {
	op := "apidocs.Scan"

	var symbols []Symbol
	err := filepath.WalkDir(s.Root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if path != s.Root && s.Ignore[d.Name()] {
				return filepath.SkipDir
			}
			return nil
		}
		if !strings.HasSuffix(path, ".go") || strings.HasSuffix(path, "_test.go") {
			return nil
		}

		rel, err := filepath.Rel(s.Root, path)
		if err != nil {
			return err
		}

		fileSymbols, err := parseFile(path, filepath.ToSlash(rel))
		if err != nil {
			return nil
		}
		symbols = append(symbols, fileSymbols...)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return symbols, nil
}

func parseFile(path, rel string) ([]Symbol, error) {
	fset := token.NewFileSet()
	file, err := parser.ParseFile(fset, path, nil, parser.SkipObjectResolution)
	if err != nil {
		return nil, err
	}

	var symbols []Symbol
	for _, decl := range file.Decls {
		switch d := decl.(type) {
		case *ast.FuncDecl:
			if sym, ok := funcSymbol(fset, d); ok {
				sym.File = rel
				symbols = append(symbols, sym)
			}
		case *ast.GenDecl:
			for _, sym := range genSymbols(fset, d) {
				sym.File = rel
				symbols = append(symbols, sym)
			}
		}
	}
	return symbols, nil
}

func funcSymbol(fset *token.FileSet, d *ast.FuncDecl) (Symbol, bool) {
	if !d.Name.IsExported() {
		return Symbol{}, false
	}

	kind := KindFunc
	name := d.Name.Name
	if d.Recv != nil && len(d.Recv.List) > 0 {
		recv := receiverName(d.Recv.List[0].Type)
		if !ast.IsExported(recv) {
			return Symbol{}, false
		}
		kind = KindMethod
		name = recv + "." + name
	}

	sig := &ast.FuncDecl{Recv: d.Recv, Name: d.Name, Type: d.Type}
	return Symbol{Kind: kind, Name: name, Signature: strings.Join(strings.Fields(node(fset, sig)), " ")}, true
}

func receiverName(expr ast.Expr) string {
	switch t := expr.(type) {
	case *ast.StarExpr:
		return receiverName(t.X)
	case *ast.IndexExpr:
		return receiverName(t.X)
	case *ast.IndexListExpr:
		return receiverName(t.X)
	case *ast.Ident:
		return t.Name
	}
	return ""
}

func genSymbols(fset *token.FileSet, d *ast.GenDecl) []Symbol {
	var symbols []Symbol
	for _, spec := range d.Specs {
		switch s := spec.(type) {
		case *ast.TypeSpec:
			if !s.Name.IsExported() {
				continue
			}
			symbols = append(symbols, typeSymbol(fset, s))
		case *ast.ValueSpec:
			kind := KindVar
			if d.Tok == token.CONST {
				kind = KindConst
			}
			for _, n := range s.Names {
				if !n.IsExported() {
					continue
				}
				sig := n.Name
				if s.Type != nil {
					sig += " " + node(fset, s.Type)
				}
				symbols = append(symbols, Symbol{Kind: kind, Name: n.Name, Signature: kind + " " + sig})
			}
		}
	}
	return symbols
}

func typeSymbol(fset *token.FileSet, s *ast.TypeSpec) Symbol {
	name := s.Name.Name
	if s.TypeParams != nil {
		params := make([]string, 0, len(s.TypeParams.List))
		for _, f := range s.TypeParams.List {
			names := make([]string, 0, len(f.Names))
			for _, n := range f.Names {
				names = append(names, n.Name)
			}
			params = append(params, strings.Join(names, ", ")+" "+node(fset, f.Type))
		}
		name += "[" + strings.Join(params, ", ") + "]"
	}

	sym := Symbol{Kind: KindType, Name: s.Name.Name}
	switch t := s.Type.(type) {
	case *ast.StructType:
		sym.Signature = "type " + name + " struct"
	case *ast.InterfaceType:
		sym.Kind = KindInterface
		sym.Signature = "type " + name + " interface"
	default:
		sep := " "
		if s.Assign.IsValid() {
			sep = " = "
		}
		sym.Signature = "type " + name + sep + node(fset, t)
	}
	return sym
}

func node(fset *token.FileSet, n any) string {
	var buf bytes.Buffer
	if err := printer.Fprint(&buf, fset, n); err != nil {
		return ""
	}
	return buf.String()
}

// Render markdown со страницей на весь репозиторий, разделы по файлам в порядке путей
func Render(symbols []Symbol) string {
	if len(symbols) == 0 {
		return header + emptyText + "\n"
	}

	grouped := map[string][]Symbol{}
	for _, s := range symbols {
		grouped[s.File] = append(grouped[s.File], s)
	}
	files := make([]string, 0, len(grouped))
	for f := range grouped {
		files = append(files, f)
	}
	sort.Strings(files)

	var sb strings.Builder
	sb.WriteString(header)
	for _, f := range files {
		sb.WriteString("## " + f + "\n\n")
		for _, s := range grouped[f] {
			fmt.Fprintf(&sb, "- **%s**: `%s`\n", s.Kind, s.Signature)
		}
		sb.WriteString("\n")
	}
	sb.WriteString(footer)
	return sb.String()
}

// Generate сканирует root и пишет результат в output, возвращает число символов
func Generate(root, output string) (int, error) {
	op := "apidocs.Generate"

	if root == "" {
		return 0, errors.New(op + ": пустой путь к репозиторию")
	}

	symbols, err := NewScanner(root).Scan()
	if err != nil {
		return 0, err
	}

	if err := os.MkdirAll(filepath.Dir(output), 0o755); err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	if err := os.WriteFile(output, []byte(Render(symbols)), 0o644); err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	return len(symbols), nil
}

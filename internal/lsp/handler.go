// Package lsp implements a language server for authoring MBA rule-library
// files and one-off target expressions: diagnostics on parse errors and on
// rule identities the SMT backend cannot prove sound, and hover showing the
// simplified form of the line under the cursor. Grounded on the teacher's
// internal/lsp/handler.go (glsp.Context-based handler struct, content/AST
// cache behind a mutex, URI-to-path helpers), trimmed to the subset of the
// LSP surface (open/change/close, diagnostics, hover) this domain needs --
// no completion or semantic tokens, since there is no module/struct surface
// to offer them for.
package lsp

import (
	"context"
	"fmt"
	"log"
	"net/url"
	"path/filepath"
	"runtime"
	"strings"
	"sync"
	"time"

	"github.com/tliron/glsp"
	protocol "github.com/tliron/glsp/protocol_3_16"

	"mbarw/internal/ir"
	"mbarw/internal/parser"
	"mbarw/internal/printer"
	"mbarw/internal/rules"
	"mbarw/internal/simplify"
	"mbarw/internal/smt"
)

// Handler implements the LSP server's document-lifecycle and hover
// callbacks for this engine's two authorable file kinds: a target
// expression/program, or a rule-library text file (one `pattern =>
// replacement` per line).
type Handler struct {
	mu      sync.RWMutex
	content map[string]string
	solver  smt.Solver
}

// NewHandler creates a Handler with a fresh Z3Solver backing its rule
// soundness checks.
func NewHandler() *Handler {
	return &Handler{
		content: make(map[string]string),
		solver:  &smt.Z3Solver{Timeout: 5 * time.Second},
	}
}

func (h *Handler) Initialize(ctx *glsp.Context, params *protocol.InitializeParams) (any, error) {
	log.Println("mba-lsp Initialize called")
	return &protocol.InitializeResult{
		Capabilities: protocol.ServerCapabilities{
			TextDocumentSync: &protocol.TextDocumentSyncOptions{
				OpenClose: ptrBool(true),
				Change:    ptrSyncKind(protocol.TextDocumentSyncKindFull),
			},
			HoverProvider: &protocol.HoverOptions{},
		},
	}, nil
}

func (h *Handler) Initialized(ctx *glsp.Context, params *protocol.InitializedParams) error {
	log.Println("mba-lsp initialized")
	return nil
}

func (h *Handler) Shutdown(ctx *glsp.Context) error {
	log.Println("mba-lsp shutdown")
	return nil
}

func (h *Handler) TextDocumentDidOpen(ctx *glsp.Context, params *protocol.DidOpenTextDocumentParams) error {
	h.store(params.TextDocument.URI, params.TextDocument.Text)
	h.publish(ctx, params.TextDocument.URI)
	return nil
}

func (h *Handler) TextDocumentDidChange(ctx *glsp.Context, params *protocol.DidChangeTextDocumentParams) error {
	for _, change := range params.ContentChanges {
		if full, ok := change.(protocol.TextDocumentContentChangeEventWhole); ok {
			h.store(params.TextDocument.URI, full.Text)
		}
	}
	h.publish(ctx, params.TextDocument.URI)
	return nil
}

func (h *Handler) TextDocumentDidClose(ctx *glsp.Context, params *protocol.DidCloseTextDocumentParams) error {
	path, err := uriToPath(string(params.TextDocument.URI))
	if err != nil {
		return fmt.Errorf("failed to convert URI %s: %w", params.TextDocument.URI, err)
	}
	h.mu.Lock()
	delete(h.content, path)
	h.mu.Unlock()
	return nil
}

// TextDocumentHover simplifies the line under the cursor and reports it, so
// an author can see a target expression's simplified form without leaving
// the editor.
func (h *Handler) TextDocumentHover(ctx *glsp.Context, params *protocol.HoverParams) (*protocol.Hover, error) {
	path, err := uriToPath(string(params.TextDocument.URI))
	if err != nil {
		return nil, nil
	}
	h.mu.RLock()
	text := h.content[path]
	h.mu.RUnlock()

	lines := strings.Split(text, "\n")
	lineNo := int(params.Position.Line)
	if lineNo < 0 || lineNo >= len(lines) {
		return nil, nil
	}
	line := strings.TrimSpace(lines[lineNo])
	if line == "" || strings.HasPrefix(line, "#") {
		return nil, nil
	}

	source := line
	if strings.Contains(line, "=>") {
		parts := strings.SplitN(line, "=>", 2)
		source = strings.TrimSpace(parts[1])
	}

	simplified, err := simplifyOneLiner(h.solver, source)
	if err != nil {
		return nil, nil
	}

	return &protocol.Hover{
		Contents: protocol.MarkupContent{
			Kind:  protocol.MarkupKindPlainText,
			Value: "simplified: " + simplified,
		},
	}, nil
}

func (h *Handler) store(uri protocol.DocumentUri, text string) {
	path, err := uriToPath(string(uri))
	if err != nil {
		return
	}
	h.mu.Lock()
	h.content[path] = text
	h.mu.Unlock()
}

// publish computes diagnostics for the document at uri and sends them,
// dispatching on whether the content looks like a rule-library file (any
// "=>" line) or a plain expression/program.
func (h *Handler) publish(ctx *glsp.Context, uri protocol.DocumentUri) {
	path, err := uriToPath(string(uri))
	if err != nil {
		return
	}
	h.mu.RLock()
	text := h.content[path]
	h.mu.RUnlock()

	var diagnostics []protocol.Diagnostic
	if strings.Contains(text, "=>") {
		diagnostics = h.checkRuleLibrary(text)
	} else {
		diagnostics = h.checkExpression(text)
	}

	ctx.Notify(protocol.ServerTextDocumentPublishDiagnostics, &protocol.PublishDiagnosticsParams{
		URI:         uri,
		Diagnostics: diagnostics,
	})
}

func (h *Handler) checkExpression(text string) []protocol.Diagnostic {
	if strings.TrimSpace(text) == "" {
		return nil
	}
	if _, err := parser.ParseProgram(text, 0); err != nil {
		return ConvertParseError(err)
	}
	return nil
}

// checkRuleLibrary parses each `pattern => replacement` line and asks the
// solver to prove them equal over every variable they mention, at a fixed
// probe width; a line it cannot prove sound gets a warning, not an error,
// since the solver's "not proved" is conservative rather than a
// counterexample.
func (h *Handler) checkRuleLibrary(text string) []protocol.Diagnostic {
	const probeWidth = 8
	var diagnostics []protocol.Diagnostic

	if _, err := rules.ParseLibrary(text); err != nil {
		return ConvertParseError(err)
	}

	lineNo := 0
	for _, line := range strings.Split(text, "\n") {
		lineNo++
		trimmed := strings.TrimSpace(line)
		if trimmed == "" || strings.HasPrefix(trimmed, "#") || !strings.Contains(trimmed, "=>") {
			continue
		}

		parts := strings.SplitN(trimmed, "=>", 2)
		patSrc, repSrc := strings.TrimSpace(parts[0]), strings.TrimSpace(parts[1])
		pat, err := parser.ParseExpr(patSrc, probeWidth)
		if err != nil {
			diagnostics = append(diagnostics, ConvertParseError(err)...)
			continue
		}
		rep, err := parser.ParseExpr(repSrc, probeWidth)
		if err != nil {
			diagnostics = append(diagnostics, ConvertParseError(err)...)
			continue
		}

		vars := mergedVarNames(pat, rep)
		ok, err := h.solver.CheckEquivalent(context.Background(), pat, rep, vars, probeWidth)
		if err != nil || !ok {
			diagnostics = append(diagnostics, unsoundRuleDiagnostic(lineNo, fmt.Sprintf("line %d (%s)", lineNo, patSrc), probeWidth))
		}
	}
	return diagnostics
}

func mergedVarNames(exprs ...ir.Expr) []string {
	seen := map[string]bool{}
	var out []string
	for _, e := range exprs {
		for name := range ir.Vars(e) {
			if !seen[name] {
				seen[name] = true
				out = append(out, name)
			}
		}
	}
	return out
}

// simplifyOneLiner simplifies a single expression/program source string at
// an inferred width, for hover.
func simplifyOneLiner(solver smt.Solver, source string) (string, error) {
	probe, err := parser.ParseProgram(source, 0)
	if err != nil {
		return "", err
	}
	width := ir.InferWidth(probe.Final)
	for _, s := range probe.Statements {
		if w := ir.InferWidth(s.Value); w > width {
			width = w
		}
	}
	prog, err := parser.ParseProgram(source, width)
	if err != nil {
		return "", err
	}
	ruleSet, err := rules.Default(width)
	if err != nil {
		return "", err
	}
	driver := simplify.New(width, ruleSet, solver)
	_, final := driver.Run(context.Background(), prog)
	return printer.Print(final), nil
}

func uriToPath(rawURI string) (string, error) {
	u, err := url.Parse(rawURI)
	if err != nil {
		return "", fmt.Errorf("invalid URI %s: %w", rawURI, err)
	}
	path := u.Path
	if runtime.GOOS == "windows" && strings.HasPrefix(path, "/") && len(path) > 3 && path[2] == ':' {
		path = path[1:]
	}
	return filepath.FromSlash(path), nil
}

func ptrSyncKind(k protocol.TextDocumentSyncKind) *protocol.TextDocumentSyncKind { return &k }

package lsp

import (
	"fmt"

	protocol "github.com/tliron/glsp/protocol_3_16"

	mbaerrors "mbarw/internal/errors"
)

// ConvertParseError turns one parse failure into a single-line LSP
// diagnostic, converting this engine's 1-based line/column into the
// protocol's 0-based Position. Grounded on the teacher's
// ConvertParseErrors/ConvertScanErrors (internal/lsp/diagnostics.go),
// collapsed to this engine's single ParseError kind.
func ConvertParseError(err error) []protocol.Diagnostic {
	pe, ok := err.(*mbaerrors.ParseError)
	if !ok {
		return []protocol.Diagnostic{{
			Range:    zeroRange(),
			Severity: ptrSeverity(protocol.DiagnosticSeverityError),
			Source:   ptrString("mba-simplify"),
			Message:  err.Error(),
		}}
	}

	line := pe.Line - 1
	if line < 0 {
		line = 0
	}
	col := pe.Column - 1
	if col < 0 {
		col = 0
	}

	return []protocol.Diagnostic{{
		Range: protocol.Range{
			Start: protocol.Position{Line: uint32(line), Character: uint32(col)},
			End:   protocol.Position{Line: uint32(line), Character: uint32(col + 1)},
		},
		Severity: ptrSeverity(protocol.DiagnosticSeverityError),
		Source:   ptrString("mba-simplify"),
		Message:  pe.Message,
	}}
}

// unsoundRuleDiagnostic flags a rule-library line whose pattern and
// replacement the SMT backend could not prove equivalent at the probed
// width -- the identity that line encodes may not actually hold.
func unsoundRuleDiagnostic(lineNo int, name string, width int) protocol.Diagnostic {
	return protocol.Diagnostic{
		Range: protocol.Range{
			Start: protocol.Position{Line: uint32(lineNo - 1), Character: 0},
			End:   protocol.Position{Line: uint32(lineNo - 1), Character: 200},
		},
		Severity: ptrSeverity(protocol.DiagnosticSeverityWarning),
		Source:   ptrString("mba-simplify"),
		Message:  fmt.Sprintf("rule %q: pattern and replacement are not provably equal at width %d", name, width),
	}
}

func zeroRange() protocol.Range {
	return protocol.Range{
		Start: protocol.Position{Line: 0, Character: 0},
		End:   protocol.Position{Line: 0, Character: 1},
	}
}

func ptrSeverity(s protocol.DiagnosticSeverity) *protocol.DiagnosticSeverity { return &s }
func ptrString(s string) *string                                           { return &s }
func ptrBool(b bool) *bool                                                  { return &b }

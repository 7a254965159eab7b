// Package main starts mba-lsp: a language server offering diagnostics and
// hover for MBA target-expression files and rule-library files. Grounded on
// the teacher's cmd/kanso-lsp/main.go (commonlog.Configure, protocol.Handler
// wiring, server.NewServer().RunStdio()).
package main

import (
	"log"
	"os"

	"github.com/tliron/commonlog"
	protocol "github.com/tliron/glsp/protocol_3_16"
	"github.com/tliron/glsp/server"

	"mbarw/internal/lsp"
)

const lsName = "mba-lsp"

var version = "0.1.0"

func main() {
	commonlog.Configure(1, nil)

	h := lsp.NewHandler()
	handler := protocol.Handler{
		Initialize:            h.Initialize,
		Initialized:           h.Initialized,
		Shutdown:              h.Shutdown,
		TextDocumentDidOpen:   h.TextDocumentDidOpen,
		TextDocumentDidChange: h.TextDocumentDidChange,
		TextDocumentDidClose:  h.TextDocumentDidClose,
		TextDocumentHover:     h.TextDocumentHover,
	}

	s := server.NewServer(&handler, lsName, false)

	log.Printf("starting %s %s\n", lsName, version)
	if err := s.RunStdio(); err != nil {
		log.Println("error starting mba-lsp server:", err)
		os.Exit(1)
	}
}

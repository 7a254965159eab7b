// Package main starts the interactive mba-repl: type an expression (or a
// short `x = ...; ...; final` program), see it simplified.
package main

import (
	"os"

	"mbarw/repl"
)

func main() {
	repl.Start(os.Stdin, os.Stdout)
}

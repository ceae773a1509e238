// Package grammar holds the EBNF description of lox's surface syntax,
// verified against golang.org/x/exp/ebnf the same way nenuphar's
// lang/grammar verifies its own grammar.ebnf/grammar_lua.ebnf files: parse,
// then confirm every production is defined, reachable and well-formed from
// the given start symbol.
package grammar

import (
	"os"
	"testing"

	"golang.org/x/exp/ebnf"
)

func TestEBNF(t *testing.T) {
	const filename = "lox.ebnf"

	f, err := os.Open(filename)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()

	g, err := ebnf.Parse(filename, f)
	if err != nil {
		t.Fatal(err)
	}
	if err := ebnf.Verify(g, "Program"); err != nil {
		t.Fatal(err)
	}
}

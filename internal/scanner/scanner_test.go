package scanner_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kristoferb/lox/internal/scanner"
	"github.com/kristoferb/lox/internal/token"
)

func scanAll(src string) []token.Token {
	var s scanner.Scanner
	s.Init([]byte(src))
	var toks []token.Token
	for {
		tok := s.Scan()
		toks = append(toks, tok)
		if tok.Kind == token.EOF {
			return toks
		}
	}
}

func TestScanPunctuation(t *testing.T) {
	toks := scanAll("(){};,.-+/* ! != = == < <= > >=")
	kinds := make([]token.Kind, 0, len(toks))
	for _, tok := range toks {
		kinds = append(kinds, tok.Kind)
	}
	assert.Equal(t, []token.Kind{
		token.LPAREN, token.RPAREN, token.LBRACE, token.RBRACE, token.SEMICOLON,
		token.COMMA, token.DOT, token.MINUS, token.PLUS, token.SLASH, token.STAR,
		token.BANG, token.BANG_EQ, token.EQ, token.EQ_EQ,
		token.LT, token.LT_EQ, token.GT, token.GT_EQ,
		token.EOF,
	}, kinds)
}

func TestScanKeywordsMatchTokenTable(t *testing.T) {
	for word, kind := range token.Keywords() {
		toks := scanAll(word)
		require.Len(t, toks, 2)
		assert.Equal(t, kind, toks[0].Kind, "keyword %q", word)
	}
}

func TestScanIdentifierNotAKeywordPrefix(t *testing.T) {
	toks := scanAll("forest andy thistle")
	require.Len(t, toks, 4)
	assert.Equal(t, token.IDENT, toks[0].Kind)
	assert.Equal(t, token.IDENT, toks[1].Kind)
	assert.Equal(t, token.IDENT, toks[2].Kind)
}

func TestScanNumber(t *testing.T) {
	toks := scanAll("123 45.67")
	require.Len(t, toks, 3)
	assert.Equal(t, token.NUMBER, toks[0].Kind)
	assert.Equal(t, "123", toks[0].Lexeme)
	assert.Equal(t, token.NUMBER, toks[1].Kind)
	assert.Equal(t, "45.67", toks[1].Lexeme)
}

func TestScanString(t *testing.T) {
	toks := scanAll(`"hello world"`)
	require.Len(t, toks, 2)
	assert.Equal(t, token.STRING, toks[0].Kind)
	assert.Equal(t, `"hello world"`, toks[0].Lexeme)
}

func TestScanUnterminatedString(t *testing.T) {
	toks := scanAll(`"hello`)
	require.Len(t, toks, 2)
	assert.Equal(t, token.ILLEGAL, toks[0].Kind)
	assert.Equal(t, "Unterminated string.", toks[0].Lexeme)
}

func TestScanLineTracking(t *testing.T) {
	toks := scanAll("var x = 1;\nvar y = 2;\n")
	// var x = 1 ;
	assert.Equal(t, 1, toks[0].Line)
	// var y = 2 ; on the second line
	var found bool
	for _, tok := range toks {
		if tok.Kind == token.IDENT && tok.Lexeme == "y" {
			assert.Equal(t, 2, tok.Line)
			found = true
		}
	}
	assert.True(t, found)
}

func TestScanSkipsLineComments(t *testing.T) {
	toks := scanAll("// a comment\nvar x;")
	assert.Equal(t, token.VAR, toks[0].Kind)
	assert.Equal(t, 2, toks[0].Line)
}

func TestScanUnexpectedCharacter(t *testing.T) {
	toks := scanAll("@")
	require.Len(t, toks, 2)
	assert.Equal(t, token.ILLEGAL, toks[0].Kind)
}

package oba_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/QuantumBits/oba"
)

func lexAll(src string) []oba.Token {
	lx := oba.NewLexer(src)
	var toks []oba.Token
	for {
		tok := lx.Next()
		toks = append(toks, tok)
		if tok.Kind == oba.TokEOF {
			return toks
		}
	}
}

func kinds(toks []oba.Token) []oba.TokenKind {
	ks := make([]oba.TokenKind, len(toks))
	for i, t := range toks {
		ks[i] = t.Kind
	}
	return ks
}

func TestLexerOperators(t *testing.T) {
	toks := lexAll("== != <= >= = ! < > + - * /")
	assert.Equal(t, []oba.TokenKind{
		oba.TokEq, oba.TokNeq, oba.TokLte, oba.TokGte, oba.TokAssign, oba.TokNot,
		oba.TokLt, oba.TokGt, oba.TokPlus, oba.TokMinus, oba.TokStar, oba.TokSlash,
		oba.TokEOF,
	}, kinds(toks))
}

func TestLexerKeywordsVsIdentifiers(t *testing.T) {
	toks := lexAll("let fn debug if else match true false and or notakeyword")
	assert.Equal(t, []oba.TokenKind{
		oba.TokLet, oba.TokFn, oba.TokDebug, oba.TokIf, oba.TokElse, oba.TokMatch,
		oba.TokTrue, oba.TokFalse, oba.TokAnd, oba.TokOr, oba.TokIdent, oba.TokEOF,
	}, kinds(toks))
}

func TestLexerNumbers(t *testing.T) {
	toks := lexAll("42 3.14")
	assert.Equal(t, oba.TokNumber, toks[0].Kind)
	assert.Equal(t, float64(42), toks[0].Number)
	assert.Equal(t, oba.TokNumber, toks[1].Kind)
	assert.Equal(t, 3.14, toks[1].Number)
}

func TestLexerStringEscapes(t *testing.T) {
	toks := lexAll(`"a\nb\t\"c\""`)
	assert.Equal(t, oba.TokString, toks[0].Kind)
	assert.Equal(t, "a\nb\t\"c\"", toks[0].Str)
}

func TestLexerUnterminatedString(t *testing.T) {
	toks := lexAll(`"unterminated`)
	assert.Equal(t, oba.TokError, toks[0].Kind)
	assert.Contains(t, toks[0].Str, "unterminated")
}

func TestLexerLineComment(t *testing.T) {
	toks := lexAll("1 // a comment\n2")
	assert.Equal(t, []oba.TokenKind{oba.TokNumber, oba.TokNewline, oba.TokNumber, oba.TokEOF}, kinds(toks))
}

func TestLexerCollapsesConsecutiveNewlines(t *testing.T) {
	toks := lexAll("1\n\n\n2")
	assert.Equal(t, []oba.TokenKind{oba.TokNumber, oba.TokNewline, oba.TokNumber, oba.TokEOF}, kinds(toks))
}

func TestLexerInvalidCharacter(t *testing.T) {
	toks := lexAll("1 $ 2")
	assert.Equal(t, oba.TokError, toks[1].Kind)
	assert.Contains(t, toks[1].Str, "unexpected character")
}

func TestLexerTracksLineNumbers(t *testing.T) {
	toks := lexAll("1\n2\n3")
	assert.Equal(t, 1, toks[0].Line)
	assert.Equal(t, 2, toks[2].Line)
	assert.Equal(t, 3, toks[4].Line)
}

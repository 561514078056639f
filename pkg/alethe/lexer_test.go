package alethe

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func tokenKinds(t *testing.T, src string) []TokenKind {
	t.Helper()
	lex, err := NewLexer(strings.NewReader(src))
	require.NoError(t, err)
	var kinds []TokenKind
	for {
		tok, err := lex.NextToken()
		require.NoError(t, err)
		kinds = append(kinds, tok.Kind)
		if tok.Kind == TokenEof {
			return kinds
		}
	}
}

func TestLexerBasicTokens(t *testing.T) {
	kinds := tokenKinds(t, `(assume h1 (= a b))`)
	require.Equal(t, []TokenKind{
		TokenOpenParen, TokenReserved, TokenSymbol, TokenOpenParen, TokenSymbol, TokenSymbol, TokenSymbol, TokenCloseParen, TokenCloseParen, TokenEof,
	}, kinds)
}

func TestLexerSkipsLineComments(t *testing.T) {
	kinds := tokenKinds(t, "(a ; this is a comment\n b)")
	require.Equal(t, []TokenKind{TokenOpenParen, TokenSymbol, TokenSymbol, TokenCloseParen, TokenEof}, kinds)
}

func TestLexerKeywordAndNumeral(t *testing.T) {
	lex, err := NewLexer(strings.NewReader(`:rule 42`))
	require.NoError(t, err)

	kw, err := lex.NextToken()
	require.NoError(t, err)
	require.Equal(t, TokenKeyword, kw.Kind)
	require.Equal(t, "rule", kw.Text)

	num, err := lex.NextToken()
	require.NoError(t, err)
	require.Equal(t, TokenNumeral, num.Kind)
	require.Equal(t, int64(42), num.Numeral.Int64())
}

func TestLexerDecimal(t *testing.T) {
	lex, err := NewLexer(strings.NewReader(`3.5`))
	require.NoError(t, err)
	tok, err := lex.NextToken()
	require.NoError(t, err)
	require.Equal(t, TokenDecimal, tok.Kind)
	require.Equal(t, "7/2", tok.Decimal.RatString())
}

func TestLexerLeadingZeroRejected(t *testing.T) {
	lex, err := NewLexer(strings.NewReader(`007`))
	require.NoError(t, err)
	_, err = lex.NextToken()
	require.Error(t, err)
	var lexErr *LexError
	require.ErrorAs(t, err, &lexErr)
	require.Equal(t, LexLeadingZero, lexErr.Kind)
}

func TestLexerQuotedSymbol(t *testing.T) {
	lex, err := NewLexer(strings.NewReader(`|a symbol|`))
	require.NoError(t, err)
	tok, err := lex.NextToken()
	require.NoError(t, err)
	require.Equal(t, TokenSymbol, tok.Kind)
	require.Equal(t, "a symbol", tok.Text)
}

func TestLexerUnterminatedStringIsAnError(t *testing.T) {
	lex, err := NewLexer(strings.NewReader(`"unterminated`))
	require.NoError(t, err)
	_, err = lex.NextToken()
	require.Error(t, err)
	var lexErr *LexError
	require.ErrorAs(t, err, &lexErr)
	require.Equal(t, LexEofInString, lexErr.Kind)
}

func TestLexerEmptyInputIsEOF(t *testing.T) {
	lex, err := NewLexer(strings.NewReader(``))
	require.NoError(t, err)
	tok, err := lex.NextToken()
	require.NoError(t, err)
	require.Equal(t, TokenEof, tok.Kind)
}

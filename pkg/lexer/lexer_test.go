package lexer

import "testing"

func TestNextToken(t *testing.T) {
	input := `let x: integer = 2 + 3 * 4; print(x);`

	tests := []struct {
		expectedType    TokenType
		expectedLiteral string
	}{
		{TokenLet, "let"},
		{TokenIdent, "x"},
		{TokenColon, ":"},
		{TokenIntegerType, "integer"},
		{TokenAssign, "="},
		{TokenInt, "2"},
		{TokenPlus, "+"},
		{TokenInt, "3"},
		{TokenStar, "*"},
		{TokenInt, "4"},
		{TokenSemicolon, ";"},
		{TokenIdent, "print"},
		{TokenLParen, "("},
		{TokenIdent, "x"},
		{TokenRParen, ")"},
		{TokenSemicolon, ";"},
		{TokenEOF, ""},
	}

	l := New(input)
	for i, tt := range tests {
		tok := l.NextToken()
		if tok.Type != tt.expectedType {
			t.Fatalf("tests[%d] - tokentype wrong. expected=%q, got=%q", i, tt.expectedType, tok.Type)
		}
		if tok.Literal != tt.expectedLiteral {
			t.Fatalf("tests[%d] - literal wrong. expected=%q, got=%q", i, tt.expectedLiteral, tok.Literal)
		}
	}
}

func TestOperatorsAndFloats(t *testing.T) {
	input := `+ - * / % = == != < <= > >= && || ! 3.14`

	tests := []struct {
		expectedType    TokenType
		expectedLiteral string
	}{
		{TokenPlus, "+"},
		{TokenMinus, "-"},
		{TokenStar, "*"},
		{TokenSlash, "/"},
		{TokenPercent, "%"},
		{TokenAssign, "="},
		{TokenEq, "=="},
		{TokenNe, "!="},
		{TokenLt, "<"},
		{TokenLe, "<="},
		{TokenGt, ">"},
		{TokenGe, ">="},
		{TokenAnd, "&&"},
		{TokenOr, "||"},
		{TokenNot, "!"},
		{TokenFloat, "3.14"},
	}

	l := New(input)
	for i, tt := range tests {
		tok := l.NextToken()
		if tok.Type != tt.expectedType {
			t.Fatalf("tests[%d] - tokentype wrong. expected=%q, got=%q", i, tt.expectedType, tok.Type)
		}
		if tok.Literal != tt.expectedLiteral {
			t.Fatalf("tests[%d] - literal wrong. expected=%q, got=%q", i, tt.expectedLiteral, tok.Literal)
		}
	}
}

func TestStringEscapes(t *testing.T) {
	l := New(`"hola \n mundo"`)
	tok := l.NextToken()
	if tok.Type != TokenString {
		t.Fatalf("expected string token, got %s", tok.Type)
	}
	if tok.Literal != `hola \n mundo` {
		t.Fatalf("unexpected literal: %q", tok.Literal)
	}
}

func TestConstructorKeyword(t *testing.T) {
	input := `class Persona { constructor(nombre: string) { this.nombre = nombre; } }`
	l := New(input)
	var types []TokenType
	for {
		tok := l.NextToken()
		types = append(types, tok.Type)
		if tok.Type == TokenEOF {
			break
		}
	}
	found := false
	for _, ty := range types {
		if ty == TokenConstructor {
			found = true
		}
	}
	if !found {
		t.Fatal("expected a TokenConstructor in the token stream")
	}
}

func TestLineColumnTracking(t *testing.T) {
	l := New("let x;\nlet y;")
	var tok Token
	for i := 0; i < 3; i++ {
		tok = l.NextToken()
	}
	if tok.Line != 1 {
		t.Fatalf("expected line 1, got %d", tok.Line)
	}
	for tok.Type != TokenEOF && tok.Line == 1 {
		tok = l.NextToken()
	}
	if tok.Line != 2 {
		t.Fatalf("expected line 2 after newline, got %d", tok.Line)
	}
}

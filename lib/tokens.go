package lib

import (
	"fmt"
	"strconv"
)

type TokenType int

const (
	TokenTypeNumber TokenType = iota
	TokenTypeOperator
	TokenTypeGroup
)

type Operator int

const (
	OperatorAdd Operator = iota
	OperatorSubtract
	OperatorMultiply
	OperatorDivide
)

type GroupMarker int

const (
	GroupOpen GroupMarker = iota
	GroupClose
)

// Location is the 1-based line and column a token started at.
type Location struct {
	Line int
	Col  int
}

func (l Location) String() string {
	return fmt.Sprintf("%d:%d", l.Line, l.Col)
}

// Token is one lexical unit of an expression. Only the field matching Type is
// meaningful: Value for numbers, Operator for operators, Group for
// parentheses.
type Token struct {
	Type     TokenType
	Value    float64
	Operator Operator
	Group    GroupMarker
	Location Location
}

func NumberToken(v float64, loc Location) Token {
	return Token{Type: TokenTypeNumber, Value: v, Location: loc}
}

func OperatorToken(op Operator, loc Location) Token {
	return Token{Type: TokenTypeOperator, Operator: op, Location: loc}
}

func GroupToken(g GroupMarker, loc Location) Token {
	return Token{Type: TokenTypeGroup, Group: g, Location: loc}
}

func (op Operator) String() string {
	switch op {
	case OperatorAdd:
		return "+"
	case OperatorSubtract:
		return "-"
	case OperatorMultiply:
		return "*"
	case OperatorDivide:
		return "/"
	}
	return fmt.Sprintf("operator(%d)", int(op))
}

func (g GroupMarker) String() string {
	switch g {
	case GroupOpen:
		return "("
	case GroupClose:
		return ")"
	}
	return fmt.Sprintf("group(%d)", int(g))
}

func (tok Token) String() string {
	switch tok.Type {
	case TokenTypeNumber:
		return strconv.FormatFloat(tok.Value, 'f', -1, 64)
	case TokenTypeOperator:
		return tok.Operator.String()
	case TokenTypeGroup:
		return tok.Group.String()
	}
	return fmt.Sprintf("token(%d)", int(tok.Type))
}

func tokenString(tok Token) string {
	return fmt.Sprintf("%s -> %s", tok.Location, tok)
}

package lib

import (
	"errors"
	"fmt"
	"strconv"
)

var (
	ErrInvalidNumber    = errors.New("invalid number")
	ErrInvalidCharacter = errors.New("invalid character")
	ErrEmptyResult      = errors.New("empty expression")
)

// LexError reports where lexing stopped. Kind is one of ErrInvalidNumber,
// ErrInvalidCharacter or ErrEmptyResult.
type LexError struct {
	Kind     error
	Text     string
	Location Location
}

func (e *LexError) Error() string {
	if e.Text == "" {
		return fmt.Sprintf("Error at line %s: %s", e.Location, e.Kind)
	}
	return fmt.Sprintf("Error at line %s: %s %q", e.Location, e.Kind, e.Text)
}

func (e *LexError) Unwrap() error {
	return e.Kind
}

type charInfo struct {
	ch       rune
	location Location
}

// Lex turns one line of input into its token sequence. The result is never
// empty when err is nil.
func Lex(input string) ([]Token, error) {
	tokens := []Token{}
	err := lex(input, func(t Token) {
		tokens = append(tokens, t)
	})
	if err != nil {
		return nil, err
	}
	if len(tokens) == 0 {
		return nil, &LexError{Kind: ErrEmptyResult, Location: Location{Line: 1, Col: 1}}
	}
	return tokens, nil
}

func lex(input string, emit func(Token)) error {
	l := newLexer(input, emit)
	return l.scan()
}

type lexer struct {
	input            []rune
	length           int
	currentCharIndex int
	currentLocation  Location
	numberStartIndex int
	numberLocation   Location
	emitCallback     func(Token)
}

func newLexer(input string, emit func(Token)) *lexer {
	runes := []rune(input)
	return &lexer{
		input:            runes,
		length:           len(runes),
		currentCharIndex: 0,
		currentLocation:  Location{Line: 1, Col: 1},
		numberStartIndex: -1,
		emitCallback:     emit,
	}
}

func (l *lexer) advance() (charInfo, bool) {
	if l.currentCharIndex >= l.length {
		return charInfo{}, false
	}
	info := charInfo{ch: l.input[l.currentCharIndex], location: l.currentLocation}
	l.currentCharIndex++
	if info.ch == '\n' {
		l.currentLocation.Line++
		l.currentLocation.Col = 1
	} else {
		l.currentLocation.Col++
	}
	return info, true
}

func (l *lexer) scan() error {
	for {
		more, err := l.next()
		if err != nil {
			return err
		}
		if !more {
			break
		}
	}
	return nil
}

func (l *lexer) next() (bool, error) {
	chInfo, ok := l.advance()
	if !ok {
		// a trailing literal has no delimiter after it, flush it here
		return false, l.endNumber(l.currentCharIndex)
	}
	ch := chInfo.ch

	if isDigit(ch) || ch == '.' {
		if l.numberStartIndex < 0 {
			l.numberStartIndex = l.currentCharIndex - 1
			l.numberLocation = chInfo.location
		}
		return true, nil
	}

	if err := l.endNumber(l.currentCharIndex - 1); err != nil {
		return false, err
	}

	switch ch {
	case '+':
		l.emitCallback(OperatorToken(OperatorAdd, chInfo.location))
	case '-':
		l.emitCallback(OperatorToken(OperatorSubtract, chInfo.location))
	case '*':
		l.emitCallback(OperatorToken(OperatorMultiply, chInfo.location))
	case '/':
		l.emitCallback(OperatorToken(OperatorDivide, chInfo.location))
	case '(':
		l.emitCallback(GroupToken(GroupOpen, chInfo.location))
	case ')':
		l.emitCallback(GroupToken(GroupClose, chInfo.location))
	case ' ', '\n':
	default:
		return false, &LexError{Kind: ErrInvalidCharacter, Text: string(ch), Location: chInfo.location}
	}

	return true, nil
}

// endNumber parses the pending literal ending before index end, if any. The
// accumulator is cleared whether or not it parses.
func (l *lexer) endNumber(end int) error {
	if l.numberStartIndex < 0 {
		return nil
	}
	text := string(l.input[l.numberStartIndex:end])
	loc := l.numberLocation
	l.numberStartIndex = -1

	v, err := strconv.ParseFloat(text, 64)
	// out of range literals saturate to ±Inf or 0 rather than fail
	if err != nil && !errors.Is(err, strconv.ErrRange) {
		return &LexError{Kind: ErrInvalidNumber, Text: text, Location: loc}
	}
	l.emitCallback(NumberToken(v, loc))
	return nil
}

func isDigit(ch rune) bool {
	return ch >= '0' && ch <= '9'
}

package lib

import (
	"errors"
	"fmt"
)

var (
	ErrStackUnderflow  = errors.New("stack underflow")
	ErrUnexpectedToken = errors.New("unexpected token")
)

// pending is an entry on the operator stack: either an operator waiting for
// its right operand or an open parenthesis acting as a barrier.
type pending struct {
	open     bool
	operator Operator
	location Location
}

func (p pending) precedence() int {
	if p.open {
		return 0
	}
	return precedence(p.operator)
}

func precedence(op Operator) int {
	switch op {
	case OperatorAdd, OperatorSubtract:
		return 1
	case OperatorMultiply, OperatorDivide:
		return 2
	}
	return 0
}

type evaluator struct {
	operands  stack[float64]
	operators stack[pending]
}

// Evaluate reduces an infix token sequence to its value using an operand
// stack and an operator stack. Malformed sequences fail with an error
// wrapping ErrStackUnderflow.
func Evaluate(tokens []Token) (float64, error) {
	e := &evaluator{}

	for _, tok := range tokens {
		var err error
		switch tok.Type {
		case TokenTypeNumber:
			e.operands.push(tok.Value)
		case TokenTypeGroup:
			err = e.group(tok)
		case TokenTypeOperator:
			err = e.operator(tok)
		default:
			err = fmt.Errorf("%w at %s", ErrUnexpectedToken, tokenString(tok))
		}
		if err != nil {
			return 0, err
		}
	}

	for e.operators.size() > 0 {
		if top, _ := e.operators.peek(); top.open {
			return 0, fmt.Errorf("%w: unmatched ( at %s", ErrStackUnderflow, top.location)
		}
		if err := e.reduceOne(); err != nil {
			return 0, err
		}
	}

	if e.operands.size() != 1 {
		return 0, fmt.Errorf("%w: expected one result but have %d", ErrStackUnderflow, e.operands.size())
	}
	result, _ := e.operands.pop()
	return result, nil
}

func (e *evaluator) group(tok Token) error {
	if tok.Group == GroupOpen {
		e.operators.push(pending{open: true, location: tok.Location})
		return nil
	}

	for {
		top, ok := e.operators.peek()
		if !ok {
			return fmt.Errorf("%w: unmatched ) at %s", ErrStackUnderflow, tok.Location)
		}
		if top.open {
			e.operators.pop()
			return nil
		}
		if err := e.reduceOne(); err != nil {
			return err
		}
	}
}

func (e *evaluator) operator(tok Token) error {
	incoming := precedence(tok.Operator)
	if incoming == 0 {
		return fmt.Errorf("%w at %s", ErrUnexpectedToken, tokenString(tok))
	}
	for {
		top, ok := e.operators.peek()
		if !ok || top.precedence() < incoming {
			break
		}
		if err := e.reduceOne(); err != nil {
			return err
		}
	}
	e.operators.push(pending{operator: tok.Operator, location: tok.Location})
	return nil
}

// reduceOne applies the top operator to the top two operands and pushes the
// result back.
func (e *evaluator) reduceOne() error {
	op, ok := e.operators.pop()
	if !ok || op.open {
		return fmt.Errorf("%w: no operator to apply", ErrStackUnderflow)
	}
	y, ok := e.operands.pop()
	if !ok {
		return fmt.Errorf("%w: %s at %s is missing both operands", ErrStackUnderflow, op.operator, op.location)
	}
	x, ok := e.operands.pop()
	if !ok {
		return fmt.Errorf("%w: %s at %s is missing an operand", ErrStackUnderflow, op.operator, op.location)
	}

	var result float64
	switch op.operator {
	case OperatorAdd:
		result = x + y
	case OperatorSubtract:
		result = x - y
	case OperatorMultiply:
		result = x * y
	case OperatorDivide:
		result = x / y
	default:
		return fmt.Errorf("%w: operator %s", ErrUnexpectedToken, op.operator)
	}
	e.operands.push(result)
	return nil
}

// Package debugger holds the debugger expression language: numbers, registers,
// program labels and memory reads combined with C-like operators, as in
// "I + 2", "[I + V0]" or "sub_2A0 + 4". Values are 16 bit and wrap around.
package debugger

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/Manu343726/chip8/pkg/hw/cpu"
)

// Token types for expression parsing
type TokenType int

const (
	TokenNumber TokenType = iota
	TokenRegister
	TokenSymbol
	TokenPlus
	TokenMinus
	TokenMul
	TokenDiv
	TokenMod
	TokenAnd
	TokenOr
	TokenXor
	TokenShiftLeft
	TokenShiftRight
	TokenLBracket
	TokenRBracket
	TokenLParen
	TokenRParen
)

// Token represents a lexical token in an expression
type Token struct {
	Type  TokenType
	Value string
	Num   uint16 // For number tokens
}

var singleCharTokens = map[byte]TokenType{
	'+': TokenPlus,
	'-': TokenMinus,
	'*': TokenMul,
	'/': TokenDiv,
	'%': TokenMod,
	'&': TokenAnd,
	'|': TokenOr,
	'^': TokenXor,
	'[': TokenLBracket,
	']': TokenRBracket,
	'(': TokenLParen,
	')': TokenRParen,
}

// Target is the machine expressions are evaluated against
type Target interface {
	GetRegister(name string) (uint16, error)
	ReadMemory(addr uint16, size int) ([]byte, error)
}

// ExpressionEvaluator evaluates expressions in the context of a debugged machine
type ExpressionEvaluator struct {
	target  Target
	symbols map[string]uint16
}

// NewExpressionEvaluator creates a new expression evaluator. symbols maps
// label names to addresses and may be nil
func NewExpressionEvaluator(target Target, symbols map[string]uint16) *ExpressionEvaluator {
	return &ExpressionEvaluator{target: target, symbols: symbols}
}

// SetSymbols replaces the known labels
func (e *ExpressionEvaluator) SetSymbols(symbols map[string]uint16) {
	e.symbols = symbols
}

// Eval evaluates an expression string and returns the result
func (e *ExpressionEvaluator) Eval(expr string) (uint16, error) {
	tokens, err := e.Tokenize(expr)
	if err != nil {
		return 0, err
	}

	if len(tokens) == 0 {
		return 0, fmt.Errorf("empty expression")
	}

	result, remaining, err := e.parseAddSub(tokens)
	if err != nil {
		return 0, err
	}

	if len(remaining) > 0 {
		return 0, fmt.Errorf("unexpected token: %s", remaining[0].Value)
	}

	return result, nil
}

// scanNumber reads a number with the given prefix length and base from the start of expr
func scanNumber(expr string, prefix int, base int, isDigit func(byte) bool) (Token, error) {
	end := prefix
	for end < len(expr) && (isDigit(expr[end]) || expr[end] == '_') {
		end++
	}

	digits := strings.ReplaceAll(expr[prefix:end], "_", "")
	num, err := strconv.ParseUint(digits, base, 16)
	if err != nil {
		return Token{}, fmt.Errorf("invalid number: %s", expr[:end])
	}

	return Token{Type: TokenNumber, Value: expr[:end], Num: uint16(num)}, nil
}

// Tokenize breaks an expression into tokens
func (e *ExpressionEvaluator) Tokenize(expr string) ([]Token, error) {
	var tokens []Token

	for {
		expr = strings.TrimSpace(expr)
		if len(expr) == 0 {
			break
		}

		if tokenType, ok := singleCharTokens[expr[0]]; ok {
			tokens = append(tokens, Token{Type: tokenType, Value: expr[:1]})
			expr = expr[1:]
			continue
		}

		if strings.HasPrefix(expr, "<<") || strings.HasPrefix(expr, ">>") {
			tokenType := TokenShiftLeft
			if expr[0] == '>' {
				tokenType = TokenShiftRight
			}
			tokens = append(tokens, Token{Type: tokenType, Value: expr[:2]})
			expr = expr[2:]
			continue
		}

		if IsDigit(expr[0]) {
			var (
				tok Token
				err error
			)

			switch {
			case len(expr) >= 2 && (expr[1] == 'x' || expr[1] == 'X') && expr[0] == '0':
				tok, err = scanNumber(expr, 2, 16, IsHexDigit)
			case len(expr) >= 2 && (expr[1] == 'b' || expr[1] == 'B') && expr[0] == '0':
				tok, err = scanNumber(expr, 2, 2, func(c byte) bool { return c == '0' || c == '1' })
			default:
				tok, err = scanNumber(expr, 0, 10, IsDigit)
			}

			if err != nil {
				return nil, err
			}

			tokens = append(tokens, tok)
			expr = expr[len(tok.Value):]
			continue
		}

		// Register or label
		if IsAlpha(expr[0]) || expr[0] == '_' {
			end := 0
			for end < len(expr) && (IsAlphaNum(expr[end]) || expr[end] == '_') {
				end++
			}

			name := expr[:end]
			if IsRegisterName(name) {
				tokens = append(tokens, Token{Type: TokenRegister, Value: strings.ToUpper(name)})
			} else {
				tokens = append(tokens, Token{Type: TokenSymbol, Value: name})
			}
			expr = expr[end:]
			continue
		}

		return nil, fmt.Errorf("unexpected character: %c", expr[0])
	}

	return tokens, nil
}

// Character classification helpers
func IsDigit(c byte) bool {
	return c >= '0' && c <= '9'
}

func IsHexDigit(c byte) bool {
	return IsDigit(c) || (c >= 'a' && c <= 'f') || (c >= 'A' && c <= 'F')
}

func IsAlpha(c byte) bool {
	return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func IsAlphaNum(c byte) bool {
	return IsAlpha(c) || IsDigit(c)
}

// IsRegisterName returns true for V0-VF, I and PC in any case
func IsRegisterName(name string) bool {
	if strings.TrimSpace(name) != name {
		return false
	}

	_, err := cpu.ParseRegister(name)
	return err == nil
}

// Recursive descent parser. Each level binds tighter than the previous one:
// 1. + -
// 2. * / %
// 3. & | ^
// 4. << >>
// 5. unary -, [address]

func (e *ExpressionEvaluator) parseAddSub(tokens []Token) (uint16, []Token, error) {
	left, tokens, err := e.parseMulDiv(tokens)
	if err != nil {
		return 0, nil, err
	}

	for len(tokens) > 0 {
		op := tokens[0].Type
		if op != TokenPlus && op != TokenMinus {
			break
		}

		right, remaining, err := e.parseMulDiv(tokens[1:])
		if err != nil {
			return 0, nil, err
		}

		if op == TokenPlus {
			left += right
		} else {
			left -= right
		}
		tokens = remaining
	}

	return left, tokens, nil
}

func (e *ExpressionEvaluator) parseMulDiv(tokens []Token) (uint16, []Token, error) {
	left, tokens, err := e.parseBitwise(tokens)
	if err != nil {
		return 0, nil, err
	}

	for len(tokens) > 0 {
		op := tokens[0].Type
		if op != TokenMul && op != TokenDiv && op != TokenMod {
			break
		}

		right, remaining, err := e.parseBitwise(tokens[1:])
		if err != nil {
			return 0, nil, err
		}

		switch op {
		case TokenMul:
			left *= right
		case TokenDiv:
			if right == 0 {
				return 0, nil, fmt.Errorf("division by zero")
			}
			left /= right
		case TokenMod:
			if right == 0 {
				return 0, nil, fmt.Errorf("modulo by zero")
			}
			left %= right
		}
		tokens = remaining
	}

	return left, tokens, nil
}

func (e *ExpressionEvaluator) parseBitwise(tokens []Token) (uint16, []Token, error) {
	left, tokens, err := e.parseShift(tokens)
	if err != nil {
		return 0, nil, err
	}

	for len(tokens) > 0 {
		op := tokens[0].Type
		if op != TokenAnd && op != TokenOr && op != TokenXor {
			break
		}

		right, remaining, err := e.parseShift(tokens[1:])
		if err != nil {
			return 0, nil, err
		}

		switch op {
		case TokenAnd:
			left &= right
		case TokenOr:
			left |= right
		case TokenXor:
			left ^= right
		}
		tokens = remaining
	}

	return left, tokens, nil
}

func (e *ExpressionEvaluator) parseShift(tokens []Token) (uint16, []Token, error) {
	left, tokens, err := e.parseUnary(tokens)
	if err != nil {
		return 0, nil, err
	}

	for len(tokens) > 0 {
		op := tokens[0].Type
		if op != TokenShiftLeft && op != TokenShiftRight {
			break
		}

		right, remaining, err := e.parseUnary(tokens[1:])
		if err != nil {
			return 0, nil, err
		}

		if op == TokenShiftLeft {
			left <<= right
		} else {
			left >>= right
		}
		tokens = remaining
	}

	return left, tokens, nil
}

func (e *ExpressionEvaluator) parseUnary(tokens []Token) (uint16, []Token, error) {
	if len(tokens) == 0 {
		return 0, nil, fmt.Errorf("unexpected end of expression")
	}

	// Unary minus
	if tokens[0].Type == TokenMinus {
		val, remaining, err := e.parseUnary(tokens[1:])
		if err != nil {
			return 0, nil, err
		}
		return -val, remaining, nil
	}

	// Memory byte [expr]
	if tokens[0].Type == TokenLBracket {
		addr, remaining, err := e.parseAddSub(tokens[1:])
		if err != nil {
			return 0, nil, err
		}
		if len(remaining) == 0 || remaining[0].Type != TokenRBracket {
			return 0, nil, fmt.Errorf("expected ']' after memory address")
		}

		data, err := e.target.ReadMemory(addr, 1)
		if err != nil {
			return 0, nil, fmt.Errorf("cannot read memory at 0x%04X: %w", addr, err)
		}
		return uint16(data[0]), remaining[1:], nil
	}

	return e.parsePrimary(tokens)
}

func (e *ExpressionEvaluator) parsePrimary(tokens []Token) (uint16, []Token, error) {
	if len(tokens) == 0 {
		return 0, nil, fmt.Errorf("unexpected end of expression")
	}

	tok := tokens[0]
	tokens = tokens[1:]

	switch tok.Type {
	case TokenNumber:
		return tok.Num, tokens, nil

	case TokenRegister:
		val, err := e.target.GetRegister(tok.Value)
		if err != nil {
			return 0, nil, err
		}
		return val, tokens, nil

	case TokenSymbol:
		addr, ok := e.symbols[tok.Value]
		if !ok {
			return 0, nil, fmt.Errorf("unknown symbol: %s", tok.Value)
		}
		return addr, tokens, nil

	case TokenLParen:
		val, remaining, err := e.parseAddSub(tokens)
		if err != nil {
			return 0, nil, err
		}
		if len(remaining) == 0 || remaining[0].Type != TokenRParen {
			return 0, nil, fmt.Errorf("expected ')' after expression")
		}
		return val, remaining[1:], nil

	default:
		return 0, nil, fmt.Errorf("unexpected token: %s", tok.Value)
	}
}

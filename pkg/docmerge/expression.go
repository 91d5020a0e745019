package docmerge

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// CondNode represents a node in the condition AST. The AST is built fresh
// per evaluation; no caching across calls.
type CondNode interface {
	String() string
	Eval(ctx Context) (bool, error)
}

// operand is the right-hand side of a comparison or string operation:
// either a field reference or an already-parsed literal.
type operand struct {
	isField bool
	field   string
	literal interface{}
}

func (o operand) String() string {
	if o.isField {
		return fmt.Sprintf("Field(%s)", o.field)
	}
	if s, ok := o.literal.(string); ok {
		return fmt.Sprintf("Literal(%q)", s)
	}
	return fmt.Sprintf("Literal(%v)", o.literal)
}

// resolve returns the operand's value against the context. An unresolved
// field reference yields nil.
func (o operand) resolve(ctx Context) interface{} {
	if !o.isField {
		return o.literal
	}
	val, ok := ResolvePath(ctx, o.field)
	if !ok {
		return nil
	}
	return val
}

// LiteralNode represents a bare TRUE/FALSE/NULL, number, or string atom.
type LiteralNode struct {
	Value interface{}
}

func (n *LiteralNode) String() string {
	if s, ok := n.Value.(string); ok {
		return fmt.Sprintf("Literal(%q)", s)
	}
	return fmt.Sprintf("Literal(%v)", n.Value)
}

func (n *LiteralNode) Eval(ctx Context) (bool, error) {
	return isTruthyValue(n.Value), nil
}

// TruthyNode represents a bare field with no operator: true when the
// resolved value is not null, not undefined, not false, and not "".
type TruthyNode struct {
	Field string
}

func (n *TruthyNode) String() string {
	return fmt.Sprintf("Truthy(%s)", n.Field)
}

func (n *TruthyNode) Eval(ctx Context) (bool, error) {
	val, ok := ResolvePath(ctx, n.Field)
	if !ok {
		return false, nil
	}
	return isTruthyValue(val), nil
}

// ComparisonNode represents `field op value-or-field` with op one of
// == != > < >= <=.
type ComparisonNode struct {
	Op    string
	Field string
	Right operand
}

func (n *ComparisonNode) String() string {
	return fmt.Sprintf("Comparison(%s %s %s)", n.Field, n.Op, n.Right.String())
}

func (n *ComparisonNode) Eval(ctx Context) (bool, error) {
	left, _ := ResolvePath(ctx, n.Field)
	right := n.Right.resolve(ctx)

	switch n.Op {
	case "==":
		return looseEquals(left, right), nil
	case "!=":
		return !looseEquals(left, right), nil
	case ">", "<", ">=", "<=":
		leftNum, leftOk := toNumber(left)
		rightNum, rightOk := toNumber(right)
		if !leftOk || !rightOk {
			return false, nil
		}
		switch n.Op {
		case ">":
			return leftNum > rightNum, nil
		case "<":
			return leftNum < rightNum, nil
		case ">=":
			return leftNum >= rightNum, nil
		default:
			return leftNum <= rightNum, nil
		}
	default:
		return false, fmt.Errorf("unknown comparison operator: %s", n.Op)
	}
}

// StringOpNode represents CONTAINS, STARTSWITH, ENDSWITH, IEQUALS, and the
// prefix form ISBLANK. The field is coerced to its string form, empty when
// null or unresolved.
type StringOpNode struct {
	Op    string
	Field string
	Value operand
}

func (n *StringOpNode) String() string {
	if n.Op == "ISBLANK" {
		return fmt.Sprintf("StringOp(ISBLANK %s)", n.Field)
	}
	return fmt.Sprintf("StringOp(%s %s %s)", n.Field, n.Op, n.Value.String())
}

func (n *StringOpNode) Eval(ctx Context) (bool, error) {
	val, resolved := ResolvePath(ctx, n.Field)

	if n.Op == "ISBLANK" {
		if !resolved || val == nil {
			return true, nil
		}
		if s, ok := val.(string); ok {
			return strings.TrimSpace(s) == "", nil
		}
		return false, nil
	}

	fieldStr := ""
	if resolved && val != nil {
		fieldStr = stringForm(val)
	}
	valueStr := stringForm(n.Value.resolve(ctx))

	switch n.Op {
	case "CONTAINS":
		return strings.Contains(fieldStr, valueStr), nil
	case "STARTSWITH":
		return strings.HasPrefix(fieldStr, valueStr), nil
	case "ENDSWITH":
		return strings.HasSuffix(fieldStr, valueStr), nil
	case "IEQUALS":
		return strings.EqualFold(fieldStr, valueStr), nil
	default:
		return false, fmt.Errorf("unknown string operator: %s", n.Op)
	}
}

// AndNode represents a logical AND.
type AndNode struct {
	Left  CondNode
	Right CondNode
}

func (n *AndNode) String() string {
	return fmt.Sprintf("And(%s, %s)", n.Left.String(), n.Right.String())
}

func (n *AndNode) Eval(ctx Context) (bool, error) {
	left, err := n.Left.Eval(ctx)
	if err != nil {
		return false, err
	}
	if !left {
		return false, nil
	}
	return n.Right.Eval(ctx)
}

// OrNode represents a logical OR.
type OrNode struct {
	Left  CondNode
	Right CondNode
}

func (n *OrNode) String() string {
	return fmt.Sprintf("Or(%s, %s)", n.Left.String(), n.Right.String())
}

func (n *OrNode) Eval(ctx Context) (bool, error) {
	left, err := n.Left.Eval(ctx)
	if err != nil {
		return false, err
	}
	if left {
		return true, nil
	}
	return n.Right.Eval(ctx)
}

// NotNode represents a unary NOT.
type NotNode struct {
	Expr CondNode
}

func (n *NotNode) String() string {
	return fmt.Sprintf("Not(%s)", n.Expr.String())
}

func (n *NotNode) Eval(ctx Context) (bool, error) {
	val, err := n.Expr.Eval(ctx)
	if err != nil {
		return false, err
	}
	return !val, nil
}

// CondToken represents a token in a condition string.
type CondToken struct {
	Type  CondTokenType
	Value string
	Pos   int
}

type CondTokenType int

const (
	CondTokenIdentifier CondTokenType = iota
	CondTokenNumber
	CondTokenString
	CondTokenOperator
	CondTokenLeftParen
	CondTokenRightParen
	CondTokenEOF
)

var (
	// Identifiers include dot-paths: Object.Field.Sub
	condIdentRegex  = regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_]*(\.[a-zA-Z_][a-zA-Z0-9_]*)*`)
	condNumberRegex = regexp.MustCompile(`^-?[0-9]+(\.[0-9]+)?`)
	condDQuoteRegex = regexp.MustCompile(`^"([^"\\]|\\.)*"`)
	condSQuoteRegex = regexp.MustCompile(`^'([^'\\]|\\.)*'`)
	condOpRegex     = regexp.MustCompile(`^(==|!=|<=|>=|<|>)`)
)

// TokenizeCondition tokenizes a condition string.
func TokenizeCondition(expr string) ([]CondToken, error) {
	var tokens []CondToken
	pos := 0

	for pos < len(expr) {
		if expr[pos] == ' ' || expr[pos] == '\t' || expr[pos] == '\n' {
			pos++
			continue
		}

		remaining := expr[pos:]

		if match := condIdentRegex.FindString(remaining); match != "" {
			tokens = append(tokens, CondToken{Type: CondTokenIdentifier, Value: match, Pos: pos})
			pos += len(match)
			continue
		}

		if match := condNumberRegex.FindString(remaining); match != "" {
			tokens = append(tokens, CondToken{Type: CondTokenNumber, Value: match, Pos: pos})
			pos += len(match)
			continue
		}

		if match := condDQuoteRegex.FindString(remaining); match != "" {
			value := match[1 : len(match)-1]
			value = strings.ReplaceAll(value, `\"`, `"`)
			value = strings.ReplaceAll(value, `\\`, `\`)
			tokens = append(tokens, CondToken{Type: CondTokenString, Value: value, Pos: pos})
			pos += len(match)
			continue
		}

		if match := condSQuoteRegex.FindString(remaining); match != "" {
			value := match[1 : len(match)-1]
			value = strings.ReplaceAll(value, `\'`, `'`)
			value = strings.ReplaceAll(value, `\\`, `\`)
			tokens = append(tokens, CondToken{Type: CondTokenString, Value: value, Pos: pos})
			pos += len(match)
			continue
		}

		if match := condOpRegex.FindString(remaining); match != "" {
			tokens = append(tokens, CondToken{Type: CondTokenOperator, Value: match, Pos: pos})
			pos += len(match)
			continue
		}

		if expr[pos] == '(' {
			tokens = append(tokens, CondToken{Type: CondTokenLeftParen, Value: "(", Pos: pos})
			pos++
			continue
		}

		if expr[pos] == ')' {
			tokens = append(tokens, CondToken{Type: CondTokenRightParen, Value: ")", Pos: pos})
			pos++
			continue
		}

		return nil, fmt.Errorf("unexpected character %q at position %d", expr[pos], pos)
	}

	tokens = append(tokens, CondToken{Type: CondTokenEOF, Pos: pos})
	return tokens, nil
}

// ParseCondition parses a condition string into an AST. Grammar, lowest to
// highest precedence: OR, AND, unary NOT, atom.
func ParseCondition(expr string) (CondNode, error) {
	tokens, err := TokenizeCondition(expr)
	if err != nil {
		return nil, err
	}

	parser := &condParser{tokens: tokens}
	node, err := parser.parseOr()
	if err != nil {
		return nil, err
	}

	if parser.current().Type != CondTokenEOF {
		tok := parser.current()
		return nil, fmt.Errorf("unexpected trailing token %q at position %d", tok.Value, tok.Pos)
	}

	return node, nil
}

type condParser struct {
	tokens []CondToken
	pos    int
}

func (p *condParser) current() CondToken {
	if p.pos >= len(p.tokens) {
		return CondToken{Type: CondTokenEOF}
	}
	return p.tokens[p.pos]
}

func (p *condParser) advance() {
	if p.pos < len(p.tokens) {
		p.pos++
	}
}

// isKeyword reports whether the current token is the given keyword,
// case-insensitively.
func (p *condParser) isKeyword(kw string) bool {
	tok := p.current()
	return tok.Type == CondTokenIdentifier && strings.EqualFold(tok.Value, kw)
}

func (p *condParser) parseOr() (CondNode, error) {
	left, err := p.parseAnd()
	if err != nil {
		return nil, err
	}

	for p.isKeyword("OR") {
		p.advance()
		right, err := p.parseAnd()
		if err != nil {
			return nil, err
		}
		left = &OrNode{Left: left, Right: right}
	}

	return left, nil
}

func (p *condParser) parseAnd() (CondNode, error) {
	left, err := p.parseNot()
	if err != nil {
		return nil, err
	}

	for p.isKeyword("AND") {
		p.advance()
		right, err := p.parseNot()
		if err != nil {
			return nil, err
		}
		left = &AndNode{Left: left, Right: right}
	}

	return left, nil
}

func (p *condParser) parseNot() (CondNode, error) {
	if p.isKeyword("NOT") {
		p.advance()
		operand, err := p.parseNot()
		if err != nil {
			return nil, err
		}
		return &NotNode{Expr: operand}, nil
	}
	return p.parseAtom()
}

var stringOps = map[string]string{
	"CONTAINS":   "CONTAINS",
	"STARTSWITH": "STARTSWITH",
	"ENDSWITH":   "ENDSWITH",
	"IEQUALS":    "IEQUALS",
}

func (p *condParser) parseAtom() (CondNode, error) {
	tok := p.current()

	switch tok.Type {
	case CondTokenLeftParen:
		p.advance()
		expr, err := p.parseOr()
		if err != nil {
			return nil, err
		}
		if p.current().Type != CondTokenRightParen {
			return nil, fmt.Errorf("expected ')' after expression")
		}
		p.advance()
		return expr, nil

	case CondTokenNumber:
		p.advance()
		num, err := strconv.ParseFloat(tok.Value, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid number: %s", tok.Value)
		}
		return &LiteralNode{Value: num}, nil

	case CondTokenString:
		p.advance()
		return &LiteralNode{Value: tok.Value}, nil

	case CondTokenIdentifier:
		upper := strings.ToUpper(tok.Value)

		// Prefix operator: ISBLANK field
		if upper == "ISBLANK" {
			p.advance()
			field := p.current()
			if field.Type != CondTokenIdentifier {
				return nil, fmt.Errorf("expected field after ISBLANK")
			}
			p.advance()
			return &StringOpNode{Op: "ISBLANK", Field: field.Value}, nil
		}

		// Bare literals
		switch upper {
		case "TRUE":
			p.advance()
			return &LiteralNode{Value: true}, nil
		case "FALSE":
			p.advance()
			return &LiteralNode{Value: false}, nil
		case "NULL":
			p.advance()
			return &LiteralNode{Value: nil}, nil
		}

		// Field reference, possibly followed by an operator
		p.advance()
		field := tok.Value

		next := p.current()
		if next.Type == CondTokenOperator {
			p.advance()
			right, err := p.parseOperand()
			if err != nil {
				return nil, err
			}
			return &ComparisonNode{Op: next.Value, Field: field, Right: right}, nil
		}

		if next.Type == CondTokenIdentifier {
			if op, ok := stringOps[strings.ToUpper(next.Value)]; ok {
				p.advance()
				value, err := p.parseOperand()
				if err != nil {
					return nil, err
				}
				return &StringOpNode{Op: op, Field: field, Value: value}, nil
			}
		}

		return &TruthyNode{Field: field}, nil

	default:
		return nil, fmt.Errorf("unexpected token %q at position %d", tok.Value, tok.Pos)
	}
}

// parseOperand parses the right-hand side of a comparison or string
// operation. An unquoted identifier that is not a literal keyword is
// resolved as a field reference; everything else is a literal.
func (p *condParser) parseOperand() (operand, error) {
	tok := p.current()

	switch tok.Type {
	case CondTokenString:
		p.advance()
		return operand{literal: tok.Value}, nil

	case CondTokenNumber:
		p.advance()
		num, err := strconv.ParseFloat(tok.Value, 64)
		if err != nil {
			return operand{}, fmt.Errorf("invalid number: %s", tok.Value)
		}
		return operand{literal: num}, nil

	case CondTokenIdentifier:
		p.advance()
		switch strings.ToUpper(tok.Value) {
		case "TRUE":
			return operand{literal: true}, nil
		case "FALSE":
			return operand{literal: false}, nil
		case "NULL":
			return operand{literal: nil}, nil
		}
		return operand{isField: true, field: tok.Value}, nil

	default:
		return operand{}, fmt.Errorf("expected value or field after operator, got %q", tok.Value)
	}
}

// EvaluateCondition is the evaluator's fail-soft contract: tokenizing,
// parsing, or evaluation errors are caught, logged as a warning, and the
// whole expression evaluates to false. Malformed conditions never abort a
// merge on their own.
func EvaluateCondition(expr string, ctx Context) bool {
	result, err := evaluateCondition(expr, ctx)
	if err != nil {
		GetLogger().WithField("condition", expr).Warn("condition failed to evaluate, treating as false: %v", err)
		return false
	}
	return result
}

// evaluateCondition is the fallible form used internally so callers can
// record the recovered error as a warning.
func evaluateCondition(expr string, ctx Context) (bool, error) {
	node, err := ParseCondition(expr)
	if err != nil {
		return false, NewExpressionError(expr, err)
	}
	result, err := node.Eval(ctx)
	if err != nil {
		return false, NewExpressionError(expr, err)
	}
	return result, nil
}

// isTruthyValue implements the bare-field truthiness rule: not null, not
// undefined, not false, and not the empty string.
func isTruthyValue(val interface{}) bool {
	if val == nil {
		return false
	}
	switch v := val.(type) {
	case bool:
		return v
	case string:
		return v != ""
	default:
		return true
	}
}

// toNumber coerces a value to a float64 for ordering comparisons. Numeric
// strings are parsed; booleans map to 0 and 1; null maps to 0.
func toNumber(val interface{}) (float64, bool) {
	switch v := val.(type) {
	case nil:
		return 0, true
	case bool:
		if v {
			return 1, true
		}
		return 0, true
	case int:
		return float64(v), true
	case int8:
		return float64(v), true
	case int16:
		return float64(v), true
	case int32:
		return float64(v), true
	case int64:
		return float64(v), true
	case uint:
		return float64(v), true
	case uint8:
		return float64(v), true
	case uint16:
		return float64(v), true
	case uint32:
		return float64(v), true
	case uint64:
		return float64(v), true
	case float32:
		return float64(v), true
	case float64:
		return v, true
	case string:
		s := strings.TrimSpace(v)
		if s == "" {
			return 0, false
		}
		num, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return 0, false
		}
		return num, true
	default:
		return 0, false
	}
}

// looseEquals implements coercive equality for == and !=: numeric when
// both sides coerce to numbers, otherwise string-form comparison.
func looseEquals(left, right interface{}) bool {
	if left == nil && right == nil {
		return true
	}
	if left == nil || right == nil {
		return false
	}

	leftNum, leftOk := numericValue(left)
	rightNum, rightOk := numericValue(right)
	if leftOk && rightOk {
		return leftNum == rightNum
	}

	if lb, ok := left.(bool); ok {
		if rb, ok := right.(bool); ok {
			return lb == rb
		}
	}

	return stringForm(left) == stringForm(right)
}

// numericValue is toNumber without the null and bool coercions, so that
// equality does not collapse null, false, and zero into one value.
func numericValue(val interface{}) (float64, bool) {
	switch val.(type) {
	case nil, bool:
		return 0, false
	}
	return toNumber(val)
}

package report

import (
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"
)

// Expr is a spreadsheet formula expression. Formulas are only ever turned into
// text by Render, so row arithmetic stays in typed values until the last step.
type Expr interface {
	render(sb *strings.Builder)
}

// Ref points at a single cell, optionally on another sheet
type Ref struct {
	Sheet string
	Col   int // 1-based
	Row   int // 1-based
}

// Range is an inclusive rectangle of cells on one sheet
type Range struct {
	From Ref
	To   Ref
}

// Num is a numeric literal
type Num float64

// Operator is a binary arithmetic operator
type Operator byte

const (
	Add Operator = '+'
	Sub Operator = '-'
	Mul Operator = '*'
	Div Operator = '/'
)

// Op applies an operator to two expressions
type Op struct {
	Left     Expr
	Operator Operator
	Right    Expr
}

// Call invokes a spreadsheet function such as SUM
type Call struct {
	Fn   string
	Args []Expr
}

// Cell builds a reference on the current sheet
func Cell(col, row int) Ref {
	return Ref{Col: col, Row: row}
}

// On returns the same reference qualified with a sheet name
func (r Ref) On(sheet string) Ref {
	r.Sheet = sheet
	return r
}

// Name returns the A1-style name of the cell without any sheet prefix
func (r Ref) Name() string {
	return columnName(r.Col) + strconv.Itoa(r.Row)
}

func (r Ref) render(sb *strings.Builder) {
	if r.Sheet != "" {
		sb.WriteString(quoteSheet(r.Sheet))
		sb.WriteByte('!')
	}
	sb.WriteString(r.Name())
}

func (r Range) render(sb *strings.Builder) {
	r.From.render(sb)
	sb.WriteByte(':')
	sb.WriteString(r.To.Name())
}

func (n Num) render(sb *strings.Builder) {
	sb.WriteString(strconv.FormatFloat(float64(n), 'f', -1, 64))
}

func (o Op) render(sb *strings.Builder) {
	renderOperand(sb, o.Left, o.Operator, false)
	sb.WriteByte(byte(o.Operator))
	renderOperand(sb, o.Right, o.Operator, true)
}

func (c Call) render(sb *strings.Builder) {
	sb.WriteString(strings.ToUpper(c.Fn))
	sb.WriteByte('(')
	for i, arg := range c.Args {
		if i > 0 {
			sb.WriteByte(',')
		}
		arg.render(sb)
	}
	sb.WriteByte(')')
}

// renderOperand adds parentheses only where precedence or associativity
// would otherwise change the meaning
func renderOperand(sb *strings.Builder, e Expr, parent Operator, right bool) {
	inner, ok := e.(Op)
	if !ok {
		e.render(sb)
		return
	}

	wrap := precedence(inner.Operator) < precedence(parent) ||
		(right && precedence(inner.Operator) == precedence(parent) && (parent == Sub || parent == Div))
	if wrap {
		sb.WriteByte('(')
	}
	inner.render(sb)
	if wrap {
		sb.WriteByte(')')
	}
}

func precedence(op Operator) int {
	if op == Mul || op == Div {
		return 2
	}
	return 1
}

// Render returns the formula text as stored by excelize, without a leading '='
func Render(e Expr) string {
	var sb strings.Builder
	e.render(&sb)
	return sb.String()
}

// Sum is shorthand for SUM over a range
func Sum(r Range) Call {
	return Call{Fn: "SUM", Args: []Expr{r}}
}

// Plus, Times and Over keep summary definitions readable
func Plus(a, b Expr) Op  { return Op{Left: a, Operator: Add, Right: b} }
func Times(a, b Expr) Op { return Op{Left: a, Operator: Mul, Right: b} }
func Over(a, b Expr) Op  { return Op{Left: a, Operator: Div, Right: b} }

func columnName(col int) string {
	name, err := excelize.ColumnNumberToName(col)
	if err != nil {
		return "?"
	}
	return name
}

func quoteSheet(name string) string {
	return "'" + strings.ReplaceAll(name, "'", "''") + "'"
}

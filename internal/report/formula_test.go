package report

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRender(t *testing.T) {
	a, b, c := Cell(1, 1), Cell(2, 1), Cell(3, 1)

	tests := []struct {
		name string
		expr Expr
		want string
	}{
		{"cell", Cell(4, 15), "D15"},
		{"wide column", Cell(28, 3), "AB3"},
		{"sum range", Sum(Range{From: Cell(4, 2), To: Cell(4, 13)}), "SUM(D2:D13)"},
		{"other sheet", Cell(4, 20).On("Expenses"), "'Expenses'!D20"},
		{"quoted sheet", Cell(1, 1).On("Bob's"), "'Bob''s'!A1"},
		{"range on other sheet", Range{From: Cell(1, 1).On("Financial Report"), To: Cell(2, 3)}, "'Financial Report'!A1:B3"},
		{"integer literal", Num(75), "75"},
		{"fraction literal", Num(0.18), "0.18"},
		{"product", Times(a, b), "A1*B1"},
		{"left sum is wrapped", Times(Plus(a, b), c), "(A1+B1)*C1"},
		{"chained sums stay flat", Plus(Plus(a, b), c), "A1+B1+C1"},
		{"right subtraction is wrapped", Op{Left: a, Operator: Sub, Right: Op{Left: b, Operator: Sub, Right: c}}, "A1-(B1-C1)"},
		{"right division is wrapped", Over(a, Over(b, c)), "A1/(B1/C1)"},
		{"product inside sum", Plus(a, Times(b, Num(2))), "A1+B1*2"},
		{"call with args", Call{Fn: "round", Args: []Expr{a, Num(2)}}, "ROUND(A1,2)"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Render(tt.expr))
		})
	}
}

package term

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAndTermsFlattens(t *testing.T) {
	a, b, c, d := Text("a"), Text("b"), Text("c"), Text("d")

	got := AndTerms(And{Terms: []Term{a, b}}, And{Terms: []Term{c, d}})
	assert.True(t, Equal(And{Terms: []Term{a, b, c, d}}, got), String(got))
}

func TestAndTermsDropsInvalid(t *testing.T) {
	a := Text("a")

	assert.True(t, Equal(a, AndTerms(a, Invalid{}, nil)))
	assert.Equal(t, KindInvalid, KindOf(AndTerms(Invalid{}, nil)))
	assert.Equal(t, KindInvalid, KindOf(AndTerms()))
}

func TestAndTermsKeepsOrOperands(t *testing.T) {
	a, b, c := Text("a"), Text("b"), Text("c")
	or := Or{Terms: []Term{a, b}}

	got := AndTerms(or, c)
	assert.True(t, Equal(And{Terms: []Term{or, c}}, got))
}

func TestOrTermsFlattens(t *testing.T) {
	a, b, c := Text("a"), Text("b"), Text("c")

	got := OrTerms(a, Or{Terms: []Term{b, c}})
	assert.True(t, Equal(Or{Terms: []Term{a, b, c}}, got))
}

func TestAndTermsDoesNotAliasInput(t *testing.T) {
	a, b, c := Text("a"), Text("b"), Text("c")
	left := And{Terms: make([]Term, 2, 8)}
	left.Terms[0], left.Terms[1] = a, b

	_ = AndTerms(left, c)
	_ = AndTerms(left, Text("z"))
	assert.Len(t, left.Terms, 2)
}

func TestNegate(t *testing.T) {
	a := Text("a")

	assert.True(t, Equal(Negation{Sub: a}, Negate(a)))
	assert.True(t, Equal(a, Negate(Negate(a))))
}

func TestMakeOptional(t *testing.T) {
	a := Text("a")

	assert.True(t, Equal(Optional{Sub: a}, MakeOptional(a)))
	assert.True(t, Equal(Optional{Sub: a}, MakeOptional(MakeOptional(a))))
}

func TestWalkVisitsInOrder(t *testing.T) {
	tree := And{Terms: []Term{
		Text("a"),
		Negation{Sub: NewComparison("urn:p", Text("b"))},
	}}

	var kinds []Kind
	Walk(tree, func(t Term) bool {
		kinds = append(kinds, KindOf(t))
		return true
	})
	assert.Equal(t, []Kind{KindAnd, KindLiteral, KindNegation, KindComparison, KindLiteral}, kinds)
}

func TestWalkSkipsChildren(t *testing.T) {
	tree := And{Terms: []Term{Negation{Sub: Text("a")}, Text("b")}}

	count := 0
	Walk(tree, func(t Term) bool {
		count++
		return KindOf(t) != KindNegation
	})
	assert.Equal(t, 3, count)
}

func TestComparisonBuildersCopy(t *testing.T) {
	base := NewComparison("urn:p", Text("x"))
	named := base.WithVariable("n").WithAggregate(Count).WithSort(2, Descending).WithComparator(Equal).WithInverted(true)

	assert.Equal(t, "", base.Variable)
	assert.Equal(t, Contains, base.Comparator)
	assert.Equal(t, "n", named.Variable)
	assert.Equal(t, Count, named.Aggregate)
	assert.Equal(t, 2, named.SortWeight)
	assert.Equal(t, Descending, named.SortOrder)
	assert.Equal(t, Equal, named.Comparator)
	assert.True(t, named.Inverted)
}

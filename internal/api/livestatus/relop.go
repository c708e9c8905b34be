package livestatus

import "fmt"

// RelOp is a relational operator of a Filter or Stats header.
type RelOp int

const (
	OpEqual                  RelOp = iota // =
	OpNotEqual                            // !=
	OpMatches                             // ~
	OpDoesntMatch                         // !~
	OpEqualIcase                          // =~
	OpNotEqualIcase                       // !=~
	OpMatchesIcase                        // ~~
	OpDoesntMatchIcase                    // !~~
	OpLess                                // <
	OpGreaterOrEqual                      // >=
	OpGreater                             // >
	OpLessOrEqual                         // <=
)

var relOpNames = map[string]RelOp{
	"=":   OpEqual,
	"!=":  OpNotEqual,
	"~":   OpMatches,
	"!~":  OpDoesntMatch,
	"=~":  OpEqualIcase,
	"!=~": OpNotEqualIcase,
	"~~":  OpMatchesIcase,
	"!~~": OpDoesntMatchIcase,
	"<":   OpLess,
	">=":  OpGreaterOrEqual,
	">":   OpGreater,
	"<=":  OpLessOrEqual,
	// Negated orderings are accepted and mapped to their complements.
	"!<":  OpGreaterOrEqual,
	"!>=": OpLess,
	"!>":  OpLessOrEqual,
	"!<=": OpGreater,
}

var relOpStrings = [...]string{"=", "!=", "~", "!~", "=~", "!=~", "~~", "!~~", "<", ">=", ">", "<="}

func (op RelOp) String() string {
	if op < 0 || int(op) >= len(relOpStrings) {
		return fmt.Sprintf("RelOp(%d)", int(op))
	}
	return relOpStrings[op]
}

func parseRelOp(s string) (RelOp, error) {
	if op, ok := relOpNames[s]; ok {
		return op, nil
	}
	return OpEqual, fmt.Errorf("invalid operator '%s'", s)
}

// Negate returns the complementary operator.
func (op RelOp) Negate() RelOp {
	switch op {
	case OpEqual:
		return OpNotEqual
	case OpNotEqual:
		return OpEqual
	case OpMatches:
		return OpDoesntMatch
	case OpDoesntMatch:
		return OpMatches
	case OpEqualIcase:
		return OpNotEqualIcase
	case OpNotEqualIcase:
		return OpEqualIcase
	case OpMatchesIcase:
		return OpDoesntMatchIcase
	case OpDoesntMatchIcase:
		return OpMatchesIcase
	case OpLess:
		return OpGreaterOrEqual
	case OpGreaterOrEqual:
		return OpLess
	case OpGreater:
		return OpLessOrEqual
	case OpLessOrEqual:
		return OpGreater
	}
	return op
}

// isNumeric reports whether op makes sense for numbers.
func (op RelOp) isNumeric() bool {
	switch op {
	case OpEqual, OpNotEqual, OpLess, OpGreaterOrEqual, OpGreater, OpLessOrEqual:
		return true
	}
	return false
}

// compareOrdered applies an equality or ordering operator.
func compareOrdered[T int64 | float64 | string](op RelOp, a, b T) bool {
	switch op {
	case OpEqual:
		return a == b
	case OpNotEqual:
		return a != b
	case OpLess:
		return a < b
	case OpGreaterOrEqual:
		return a >= b
	case OpGreater:
		return a > b
	case OpLessOrEqual:
		return a <= b
	}
	return false
}

// Package filter provides the predicate evaluator applied to records
// before emission.
//
// Predicates arrive as repeatable "field,op,value[,value...]" command-line
// options and form a conjunction: every predicate must pass for a record
// to survive. A malformed predicate specification poisons the whole set
// and rejects every record rather than silently passing data through.
package filter

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// absentValue is the stringified form of a missing record field.
const absentValue = "None"

// Predicate is one field condition.
type Predicate struct {
	Field    string
	Op       string
	Operands []string
}

// Predicates is a conjunction of field conditions. The zero value matches
// everything.
type Predicates struct {
	list      []Predicate
	malformed bool
}

// Parse builds a predicate set from raw "field,op,value[,value...]"
// specifications. A specification with fewer than three tokens marks the
// whole set malformed; Match then rejects every record.
func Parse(specs []string) Predicates {
	var p Predicates
	for _, spec := range specs {
		tokens := strings.Split(spec, ",")
		if len(tokens) < 3 {
			p.malformed = true
			continue
		}
		p.list = append(p.list, Predicate{
			Field:    tokens[0],
			Op:       tokens[1],
			Operands: tokens[2:],
		})
	}
	return p
}

// Len returns the number of well-formed predicates.
func (p Predicates) Len() int {
	return len(p.list)
}

// Match evaluates the conjunction against a record. Absent fields
// stringify as "None"; numeric comparisons fail the predicate when either
// side does not parse.
func (p Predicates) Match(record map[string]any) bool {
	if p.malformed {
		return false
	}

	for _, pred := range p.list {
		if !matchOne(record, pred) {
			return false
		}
	}
	return true
}

func matchOne(record map[string]any, pred Predicate) bool {
	value := absentValue
	if v, ok := record[pred.Field]; ok {
		value = stringify(v)
	}

	switch pred.Op {
	case "eq":
		for _, operand := range pred.Operands {
			if value == operand {
				return true
			}
		}
		return false

	case "gt", "lt", "le", "ge":
		got, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return false
		}
		want, err := strconv.ParseFloat(pred.Operands[0], 64)
		if err != nil {
			return false
		}
		switch pred.Op {
		case "gt":
			return got > want
		case "lt":
			return got < want
		case "le":
			return got <= want
		default:
			return got >= want
		}

	case "contains":
		return strings.Contains(value, pred.Operands[0])

	default:
		return false
	}
}

// stringify renders a record value the way it compares in predicates:
// integers without a decimal point, floats always carrying one. A whole
// float renders as "3.0", not "3", so eq and contains values written
// against float-valued fields keep matching.
func stringify(v any) string {
	switch n := v.(type) {
	case string:
		return n
	case float64:
		if n == math.Trunc(n) && !math.IsInf(n, 0) {
			return strconv.FormatFloat(n, 'f', 1, 64)
		}
		return strconv.FormatFloat(n, 'g', -1, 64)
	case bool:
		return fmt.Sprintf("%t", n)
	default:
		return fmt.Sprint(n)
	}
}

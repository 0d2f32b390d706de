package generator

import (
	"strconv"
	"strings"

	"gopxd/internal/model"
)

// constants maps enumerator names to their values.
type constants map[string]int

func (c constants) record(name string, value int) { c[name] = value }

func (c constants) lookup(name string) (int, bool) {
	v, ok := c[name]
	return v, ok
}

// enumerate assigns values to enumerators in declaration order and records
// them. An integer literal sets the value; anything else continues counting
// from the previous enumerator.
func (c constants) enumerate(items []model.Enumerator) []string {
	names := make([]string, 0, len(items))
	next := 0
	for _, item := range items {
		value := next
		if v, ok := literal(item.Value); ok {
			value = v
		}
		c.record(item.Name, value)
		names = append(names, item.Name)
		next = value + 1
	}
	return names
}

// dimension resolves an array size expression.
func (c constants) dimension(e *model.Expr) (int, bool) {
	if e == nil {
		return 0, false
	}
	switch e.Kind {
	case model.ExprLiteral:
		return literal(e)
	case model.ExprIdentifier:
		return c.lookup(e.Text)
	}
	return 0, false
}

// literal parses a C integer literal such as 42, 0x2A, 052 or 42UL.
func literal(e *model.Expr) (int, bool) {
	if e == nil || e.Kind != model.ExprLiteral {
		return 0, false
	}
	text := strings.TrimRight(e.Text, "uUlL")
	v, err := strconv.ParseInt(text, 0, 64)
	if err != nil {
		return 0, false
	}
	return int(v), true
}

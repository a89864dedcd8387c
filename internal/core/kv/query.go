package kv

// Op is a sort key comparison.
type Op int

const (
	OpEq Op = iota
	OpGt
	OpLt
)

func (o Op) String() string {
	switch o {
	case OpEq:
		return "="
	case OpGt:
		return ">"
	case OpLt:
		return "<"
	default:
		return "?"
	}
}

// Cond is a predicate on the sort key.
type Cond struct {
	Op    Op
	Value string
}

// Match reports whether sk satisfies the condition.
func (c Cond) Match(sk string) bool {
	switch c.Op {
	case OpEq:
		return sk == c.Value
	case OpGt:
		return sk > c.Value
	case OpLt:
		return sk < c.Value
	default:
		return false
	}
}

// Query selects items of one partition.
type Query struct {
	PK string
	SK Cond
}

// Exact selects the single item at key.
func Exact(key Key) Query {
	return Query{PK: key.PK, SK: Cond{Op: OpEq, Value: key.SK}}
}

// After selects the items of pk whose sort key is greater than sk.
func After(pk, sk string) Query {
	return Query{PK: pk, SK: Cond{Op: OpGt, Value: sk}}
}

// Before selects the items of pk whose sort key is less than sk.
func Before(pk, sk string) Query {
	return Query{PK: pk, SK: Cond{Op: OpLt, Value: sk}}
}

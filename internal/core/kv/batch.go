package kv

// MutationKind identifies a queued batch operation.
type MutationKind int

const (
	MutationCreate MutationKind = iota
	MutationUpdate
	MutationUpdateIf
)

func (k MutationKind) String() string {
	switch k {
	case MutationCreate:
		return "create"
	case MutationUpdate:
		return "update"
	case MutationUpdateIf:
		return "update_if"
	default:
		return "unknown"
	}
}

// Mutation is one queued batch operation.
type Mutation struct {
	Kind   MutationKind
	Key    Key
	Data   any   // MutationCreate
	Patch  Patch // MutationUpdate, MutationUpdateIf
	Expect Patch // MutationUpdateIf
}

// Queue records mutations in order. Store implementations embed it in their
// Batch and replay Mutations() inside a transaction.
type Queue struct {
	mutations []Mutation
}

func (q *Queue) Create(key Key, data any) {
	q.mutations = append(q.mutations, Mutation{Kind: MutationCreate, Key: key, Data: data})
}

func (q *Queue) Update(key Key, patch Patch) {
	q.mutations = append(q.mutations, Mutation{Kind: MutationUpdate, Key: key, Patch: patch})
}

func (q *Queue) UpdateIf(key Key, expect Patch, patch Patch) {
	q.mutations = append(q.mutations, Mutation{Kind: MutationUpdateIf, Key: key, Expect: expect, Patch: patch})
}

func (q *Queue) Len() int {
	return len(q.mutations)
}

// Mutations returns the queued operations in insertion order.
func (q *Queue) Mutations() []Mutation {
	return q.mutations
}

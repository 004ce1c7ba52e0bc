package db

// MutationKind identifies a write inside a Tx.
type MutationKind int

const (
	// MutationHSet sets hash fields.
	MutationHSet MutationKind = iota
	// MutationZAdd adds a scored member to a sorted set.
	MutationZAdd
	// MutationZRem removes a member from a sorted set.
	MutationZRem
)

// Mutation is a single write in a Tx.
type Mutation struct {
	Kind   MutationKind
	Key    string
	Fields map[string]string
	Score  float64
	Member string
}

// Tx is a fluent builder for writes applied atomically by a Transactor.
type Tx struct {
	muts []Mutation
}

// NewTx starts an empty transaction.
func NewTx() *Tx {
	return &Tx{}
}

// HSet adds a hash write. Empty field maps are skipped.
func (t *Tx) HSet(key string, fields map[string]string) *Tx {
	if len(fields) == 0 {
		return t
	}
	t.muts = append(t.muts, Mutation{Kind: MutationHSet, Key: key, Fields: fields})
	return t
}

// ZAdd adds a sorted-set insert.
func (t *Tx) ZAdd(key string, score float64, member string) *Tx {
	t.muts = append(t.muts, Mutation{Kind: MutationZAdd, Key: key, Score: score, Member: member})
	return t
}

// ZRem adds a sorted-set removal.
func (t *Tx) ZRem(key, member string) *Tx {
	t.muts = append(t.muts, Mutation{Kind: MutationZRem, Key: key, Member: member})
	return t
}

// Mutations returns the queued writes in order.
func (t *Tx) Mutations() []Mutation {
	return t.muts
}

// Len returns the number of queued writes.
func (t *Tx) Len() int {
	return len(t.muts)
}

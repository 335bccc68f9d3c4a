package ledger

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"finansmart/internal/core"
)

// Store holds one in-memory transaction partition per owner email,
// newest first. Mutations only touch memory; persistence is layered on
// top by the ledger service and never rolls a mutation back.
type Store struct {
	mu         sync.RWMutex
	partitions map[string][]core.Transaction
	newID      func() string
}

func NewStore() *Store {
	return &Store{
		partitions: make(map[string][]core.Transaction),
		newID:      uuid.NewString,
	}
}

// Append validates the entry, assigns a fresh opaque id and inserts it
// at the head of the owner's partition. Any id supplied by the caller
// is discarded.
func (s *Store) Append(owner string, input core.Transaction) (core.Transaction, error) {
	input.ID = ""
	if err := input.Validate(); err != nil {
		return core.Transaction{}, err
	}
	input.ID = s.newID()

	s.mu.Lock()
	defer s.mu.Unlock()
	s.partitions[owner] = append([]core.Transaction{input}, s.partitions[owner]...)
	return input, nil
}

// Remove deletes the transaction with the given id. Removing an absent
// id leaves the partition unchanged and reports false.
func (s *Store) Remove(owner, id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	txs := s.partitions[owner]
	for i, tx := range txs {
		if tx.ID == id {
			s.partitions[owner] = append(txs[:i:i], txs[i+1:]...)
			return true
		}
	}
	return false
}

// List returns a copy of the owner's full partition, or an empty slice
// when the owner has no partition yet.
func (s *Store) List(owner string) []core.Transaction {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]core.Transaction, len(s.partitions[owner]))
	copy(out, s.partitions[owner])
	return out
}

// HasPartition reports whether the owner's partition exists in memory.
func (s *Store) HasPartition(owner string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.partitions[owner]
	return ok
}

// Hydrate installs a partition loaded from durable storage, replacing
// whatever the store held for that owner.
func (s *Store) Hydrate(owner string, txs []core.Transaction) {
	cp := make([]core.Transaction, len(txs))
	copy(cp, txs)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.partitions[owner] = cp
}

// EnsurePartition creates the owner's partition with the example
// dataset if it does not exist yet. It reports whether seeding
// happened.
func (s *Store) EnsurePartition(owner string, now time.Time) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.partitions[owner]; ok {
		return false
	}
	s.partitions[owner] = seedTransactions(now)
	return true
}

// ResetToSeed discards the owner's partition and replaces it with a
// fresh copy of the example dataset.
func (s *Store) ResetToSeed(owner string, now time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.partitions[owner] = seedTransactions(now)
}

package services

import (
	"context"
	"sync"
	"time"

	"finansmart/internal/core"
	"finansmart/internal/ledger"
	"finansmart/internal/log"
)

const persistTimeout = 10 * time.Second

// LedgerRepository is the durable side of a ledger partition.
type LedgerRepository interface {
	ReplacePartition(ctx context.Context, owner string, txs []core.Transaction) error
	LoadPartition(ctx context.Context, owner string) ([]core.Transaction, error)
	PartitionExists(ctx context.Context, owner string) (bool, error)
}

// ChangePublisher announces that an owner's partition changed.
type ChangePublisher interface {
	PublishLedgerChanged(ctx context.Context, owner string) error
}

// LedgerService orchestrates the in-memory ledger store, its SQLite
// persistence and the change events consumed by the snapshot worker.
//
// Persistence is fire-and-forget: every mutation schedules a full
// rewrite of the owner's partition in the background and the in-memory
// state is never rolled back when a write fails. Two sessions writing
// to the same shared partition follow last-write-wins.
type LedgerService struct {
	store     *ledger.Store
	repo      LedgerRepository
	publisher ChangePublisher
	logger    *log.Logger
	now       func() time.Time

	writes sync.WaitGroup
}

func NewLedgerService(store *ledger.Store, repo LedgerRepository, publisher ChangePublisher, logger *log.Logger) *LedgerService {
	return &LedgerService{
		store:     store,
		repo:      repo,
		publisher: publisher,
		logger:    logger.WithComponent(log.ComponentLedger),
		now:       time.Now,
	}
}

// Open makes the owner's partition available in memory. A partition
// that was persisted before is loaded back; a never-before-seen owner
// gets the example dataset. A partition that fails to load falls back
// to the seed rather than surfacing the read error.
func (s *LedgerService) Open(ctx context.Context, owner string) {
	if s.store.HasPartition(owner) {
		return
	}

	exists, err := s.repo.PartitionExists(ctx, owner)
	if err != nil {
		s.logger.ErrorContext(ctx, "Failed to check partition",
			log.FieldOwner, owner, log.FieldError, err)
	}
	if exists {
		txs, err := s.repo.LoadPartition(ctx, owner)
		if err == nil {
			s.store.Hydrate(owner, txs)
			return
		}
		s.logger.ErrorContext(ctx, "Failed to load partition, falling back to seed",
			log.FieldOwner, owner, log.FieldError, err)
	}

	if s.store.EnsurePartition(owner, s.now()) {
		s.logger.InfoContext(ctx, "Seeded new partition",
			log.FieldOwner, owner, log.FieldOperation, log.OpSeed)
		s.schedulePersist(owner)
	}
}

// Append validates and records a transaction at the head of the
// owner's partition, then schedules a re-persist.
func (s *LedgerService) Append(ctx context.Context, owner string, input core.Transaction) (core.Transaction, error) {
	tx, err := s.store.Append(owner, input)
	if err != nil {
		return core.Transaction{}, err
	}
	s.logger.InfoContext(ctx, "Transaction appended",
		log.FieldOwner, owner, log.FieldTxID, tx.ID,
		log.FieldAmountCents, tx.Amount.Cents, log.FieldOperation, log.OpAppend)
	s.schedulePersist(owner)
	return tx, nil
}

// Remove deletes a transaction by id. Removing an absent id changes
// nothing and schedules no write.
func (s *LedgerService) Remove(ctx context.Context, owner, id string) {
	if !s.store.Remove(owner, id) {
		return
	}
	s.logger.InfoContext(ctx, "Transaction removed",
		log.FieldOwner, owner, log.FieldTxID, id, log.FieldOperation, log.OpRemove)
	s.schedulePersist(owner)
}

// List returns the owner's full unfiltered partition.
func (s *LedgerService) List(owner string) []core.Transaction {
	return s.store.List(owner)
}

// Reset replaces the owner's partition with a fresh example dataset.
func (s *LedgerService) Reset(ctx context.Context, owner string) {
	s.store.ResetToSeed(owner, s.now())
	s.logger.InfoContext(ctx, "Partition reset to example data", log.FieldOwner, owner)
	s.schedulePersist(owner)
}

// Flush blocks until all scheduled writes have finished. Called on
// shutdown so pending rewrites are not lost with the process.
func (s *LedgerService) Flush() {
	s.writes.Wait()
}

func (s *LedgerService) schedulePersist(owner string) {
	snapshot := s.store.List(owner)
	s.writes.Add(1)
	go func() {
		defer s.writes.Done()

		ctx, cancel := context.WithTimeout(context.Background(), persistTimeout)
		defer cancel()

		if err := s.repo.ReplacePartition(ctx, owner, snapshot); err != nil {
			s.logger.ErrorContext(ctx, "Failed to persist partition",
				log.FieldOwner, owner, log.FieldError, err, log.FieldOperation, log.OpPersist)
			return
		}
		if s.publisher == nil {
			return
		}
		if err := s.publisher.PublishLedgerChanged(ctx, owner); err != nil {
			s.logger.ErrorContext(ctx, "Failed to publish ledger change",
				log.FieldOwner, owner, log.FieldError, err)
		}
	}()
}

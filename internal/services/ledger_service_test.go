package services

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"finansmart/internal/core"
	"finansmart/internal/ledger"
	"finansmart/internal/log"
	"finansmart/internal/storage"
)

type fakeLedgerRepo struct {
	mu       sync.Mutex
	exists   bool
	stored   []core.Transaction
	loadErr  error
	writeErr error
	writes   int
}

func (f *fakeLedgerRepo) ReplacePartition(_ context.Context, _ string, txs []core.Transaction) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.writeErr != nil {
		return f.writeErr
	}
	f.stored = append([]core.Transaction(nil), txs...)
	f.writes++
	return nil
}

func (f *fakeLedgerRepo) LoadPartition(_ context.Context, _ string) ([]core.Transaction, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.stored, f.loadErr
}

func (f *fakeLedgerRepo) PartitionExists(_ context.Context, _ string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.exists, nil
}

func (f *fakeLedgerRepo) writeCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.writes
}

func (f *fakeLedgerRepo) storedTxs() []core.Transaction {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]core.Transaction(nil), f.stored...)
}

type fakePublisher struct {
	mu     sync.Mutex
	owners []string
}

func (f *fakePublisher) PublishLedgerChanged(_ context.Context, owner string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.owners = append(f.owners, owner)
	return nil
}

func (f *fakePublisher) published() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.owners...)
}

func testLogger() *log.Logger {
	return log.New(log.Config{Handler: slog.NewTextHandler(io.Discard, nil)})
}

func newTestService(repo *fakeLedgerRepo, pub *fakePublisher) *LedgerService {
	return NewLedgerService(ledger.NewStore(), repo, pub, testLogger())
}

func validInput() core.Transaction {
	return core.Transaction{
		Description: "Aluguel",
		Amount:      core.Money{Cents: 150000},
		Type:        core.Expense,
		Category:    "Moradia",
		Date:        core.NewDate(2024, 3, 1),
	}
}

func TestOpenSeedsNewOwner(t *testing.T) {
	repo := &fakeLedgerRepo{}
	pub := &fakePublisher{}
	svc := newTestService(repo, pub)

	svc.Open(context.Background(), "new@x.com")
	svc.Flush()

	assert.Len(t, svc.List("new@x.com"), 5)
	assert.Equal(t, 1, repo.writeCount())
	assert.Len(t, repo.storedTxs(), 5)
	assert.Equal(t, []string{"new@x.com"}, pub.published())
}

func TestOpenLoadsExistingPartition(t *testing.T) {
	repo := &fakeLedgerRepo{exists: true, stored: []core.Transaction{{
		ID:          "t1",
		Description: "Aluguel",
		Amount:      core.Money{Cents: 150000},
		Type:        core.Expense,
		Category:    "Moradia",
		Date:        core.NewDate(2024, 3, 1),
	}}}
	svc := newTestService(repo, &fakePublisher{})

	svc.Open(context.Background(), "o@x.com")
	svc.Flush()

	got := svc.List("o@x.com")
	require.Len(t, got, 1)
	assert.Equal(t, "t1", got[0].ID)
	// Loading an existing partition is not a mutation.
	assert.Equal(t, 0, repo.writeCount())
}

func TestOpenFallsBackToSeedOnLoadError(t *testing.T) {
	repo := &fakeLedgerRepo{exists: true, loadErr: errors.New("corrupt")}
	svc := newTestService(repo, &fakePublisher{})

	svc.Open(context.Background(), "o@x.com")
	svc.Flush()

	assert.Len(t, svc.List("o@x.com"), 5)
}

func TestOpenIsIdempotent(t *testing.T) {
	repo := &fakeLedgerRepo{}
	svc := newTestService(repo, &fakePublisher{})

	svc.Open(context.Background(), "o@x.com")
	svc.Open(context.Background(), "o@x.com")
	svc.Flush()

	assert.Equal(t, 1, repo.writeCount())
}

func TestAppendPersistsAndPublishes(t *testing.T) {
	repo := &fakeLedgerRepo{}
	pub := &fakePublisher{}
	svc := newTestService(repo, pub)

	tx, err := svc.Append(context.Background(), "o@x.com", validInput())
	require.NoError(t, err)
	assert.NotEmpty(t, tx.ID)

	svc.Flush()
	require.Len(t, repo.storedTxs(), 1)
	assert.Equal(t, tx.ID, repo.storedTxs()[0].ID)
	assert.Equal(t, []string{"o@x.com"}, pub.published())
}

func TestAppendInvalidSchedulesNothing(t *testing.T) {
	repo := &fakeLedgerRepo{}
	svc := newTestService(repo, &fakePublisher{})

	in := validInput()
	in.Amount.Cents = 0
	_, err := svc.Append(context.Background(), "o@x.com", in)
	require.ErrorIs(t, err, core.ErrInvalidAmount)

	svc.Flush()
	assert.Equal(t, 0, repo.writeCount())
}

func TestRemove(t *testing.T) {
	repo := &fakeLedgerRepo{}
	svc := newTestService(repo, &fakePublisher{})

	tx, err := svc.Append(context.Background(), "o@x.com", validInput())
	require.NoError(t, err)
	svc.Flush()
	before := repo.writeCount()

	svc.Remove(context.Background(), "o@x.com", "missing-id")
	svc.Flush()
	assert.Equal(t, before, repo.writeCount(), "no-op remove must not schedule a write")

	svc.Remove(context.Background(), "o@x.com", tx.ID)
	svc.Flush()
	assert.Empty(t, svc.List("o@x.com"))
	assert.Empty(t, repo.storedTxs())
}

func TestWriteFailureKeepsMemoryState(t *testing.T) {
	repo := &fakeLedgerRepo{writeErr: errors.New("disk full")}
	pub := &fakePublisher{}
	svc := newTestService(repo, pub)

	_, err := svc.Append(context.Background(), "o@x.com", validInput())
	require.NoError(t, err)
	svc.Flush()

	assert.Len(t, svc.List("o@x.com"), 1)
	assert.Empty(t, pub.published(), "no change event after a failed write")
}

func TestReset(t *testing.T) {
	repo := &fakeLedgerRepo{}
	svc := newTestService(repo, &fakePublisher{})

	_, err := svc.Append(context.Background(), "o@x.com", validInput())
	require.NoError(t, err)

	svc.Reset(context.Background(), "o@x.com")
	svc.Flush()

	assert.Len(t, svc.List("o@x.com"), 5)
	assert.Len(t, repo.storedTxs(), 5)
}

func TestNilPublisher(t *testing.T) {
	repo := &fakeLedgerRepo{}
	svc := NewLedgerService(ledger.NewStore(), repo, nil, testLogger())

	_, err := svc.Append(context.Background(), "o@x.com", validInput())
	require.NoError(t, err)
	svc.Flush()

	assert.Equal(t, 1, repo.writeCount())
}

func TestEmptiedPartitionSurvivesRestart(t *testing.T) {
	repo, err := storage.NewSQLiteRepository(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	defer repo.Close()
	ctx := context.Background()

	svc := NewLedgerService(ledger.NewStore(), repo, nil, testLogger())
	svc.Open(ctx, "o@x.com")
	require.Len(t, svc.List("o@x.com"), 5)

	for _, tx := range svc.List("o@x.com") {
		svc.Remove(ctx, "o@x.com", tx.ID)
	}
	svc.Flush()
	assert.Empty(t, svc.List("o@x.com"))

	// A fresh process over the same database must not re-seed the
	// emptied partition.
	restarted := NewLedgerService(ledger.NewStore(), repo, nil, testLogger())
	restarted.Open(ctx, "o@x.com")
	restarted.Flush()

	assert.Empty(t, restarted.List("o@x.com"))
}

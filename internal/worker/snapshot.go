package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"path/filepath"
	"time"

	"finansmart/internal/amqp"
	"finansmart/internal/core"
)

// PartitionReader is the storage side the worker reads from.
type PartitionReader interface {
	LoadPartition(ctx context.Context, owner string) ([]core.Transaction, error)
	ListOwners(ctx context.Context) ([]string, error)
}

// Snapshot is the exported file format, one file per owner.
type Snapshot struct {
	Owner        string             `json:"owner"`
	ExportedAt   time.Time          `json:"exportedAt"`
	Transactions []core.Transaction `json:"transactions"`
}

// SnapshotWorker writes per-owner JSON exports of ledger partitions.
// It reacts to ledger-changed messages and additionally re-exports
// everything on a timer, so a lost message only delays a snapshot.
type SnapshotWorker struct {
	storage   PartitionReader
	exportDir string
}

func NewSnapshotWorker(storage PartitionReader, exportDir string) *SnapshotWorker {
	return &SnapshotWorker{
		storage:   storage,
		exportDir: exportDir,
	}
}

// HandleChange processes a single ledger-changed message.
func (w *SnapshotWorker) HandleChange(ctx context.Context, msg *amqp.LedgerChangedMessage) error {
	slog.InfoContext(ctx, "Processing ledger change", "owner", msg.Owner)
	return w.ExportOwner(ctx, msg.Owner)
}

// ExportOwner writes the owner's current partition to its snapshot
// file. The write goes through a temp file and a rename so readers
// never observe a partial snapshot.
func (w *SnapshotWorker) ExportOwner(ctx context.Context, owner string) error {
	txs, err := w.storage.LoadPartition(ctx, owner)
	if err != nil {
		return fmt.Errorf("load partition: %w", err)
	}

	snap := Snapshot{
		Owner:        owner,
		ExportedAt:   time.Now().UTC(),
		Transactions: txs,
	}
	data, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal snapshot: %w", err)
	}

	if err := os.MkdirAll(w.exportDir, 0o755); err != nil {
		return fmt.Errorf("create export dir: %w", err)
	}

	target := w.snapshotPath(owner)
	tmp := target + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("write snapshot: %w", err)
	}
	if err := os.Rename(tmp, target); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("rename snapshot: %w", err)
	}

	slog.InfoContext(ctx, "Snapshot written",
		"owner", owner,
		"path", target,
		"transactions", len(txs))
	return nil
}

// ExportAll re-exports every known owner. Per-owner failures are
// logged and skipped so one bad partition cannot block the rest.
func (w *SnapshotWorker) ExportAll(ctx context.Context) error {
	owners, err := w.storage.ListOwners(ctx)
	if err != nil {
		return fmt.Errorf("list owners: %w", err)
	}

	for _, owner := range owners {
		if err := w.ExportOwner(ctx, owner); err != nil {
			slog.ErrorContext(ctx, "Failed to export owner", "owner", owner, "error", err)
		}
	}
	return nil
}

// RunPeriodic runs catch-up exports on the given interval until the
// context is done.
func (w *SnapshotWorker) RunPeriodic(ctx context.Context, interval time.Duration) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if err := w.ExportAll(ctx); err != nil {
				slog.ErrorContext(ctx, "Periodic export failed", "error", err)
			}
		}
	}
}

func (w *SnapshotWorker) snapshotPath(owner string) string {
	// Owner emails go through path escaping so they are safe as file
	// names.
	return filepath.Join(w.exportDir, url.PathEscape(owner)+".json")
}

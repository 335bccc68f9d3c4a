// Package storage persists the three keyed stores behind the ledger
// service: transaction partitions per owner, the guest→owner permission
// table, and registered identities.
package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"finansmart/internal/core"

	_ "modernc.org/sqlite"
)

// ErrIdentityExists is returned when registering an email that is taken.
var ErrIdentityExists = errors.New("identity already exists")

// IdentityRecord is a stored identity. The password hash is opaque to the
// storage layer; hashing policy belongs to the auth service.
type IdentityRecord struct {
	Email        string
	Name         string
	PasswordHash []byte
}

type SQLiteRepository struct {
	db *sql.DB
}

func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	if dir := filepath.Dir(dbPath); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("create db directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteRepository{db: db}, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// ReplacePartition rewrites an owner's full transaction sequence in one
// database transaction, so a partition is never observable half-written.
func (r *SQLiteRepository) ReplacePartition(ctx context.Context, owner string, txs []core.Transaction) error {
	dbTx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin partition rewrite: %w", err)
	}
	defer dbTx.Rollback()

	// The partitions registry outlives the rows. An owner who deletes
	// every transaction must still read as existing, or the next start
	// would re-seed the example data over their emptied ledger.
	if _, err := dbTx.ExecContext(ctx,
		`INSERT OR IGNORE INTO partitions (owner_email) VALUES (?)`, owner); err != nil {
		return fmt.Errorf("register partition: %w", err)
	}

	if _, err := dbTx.ExecContext(ctx,
		`DELETE FROM transactions WHERE owner_email = ?`, owner); err != nil {
		return fmt.Errorf("clear partition: %w", err)
	}

	stmt, err := dbTx.PrepareContext(ctx, `
		INSERT INTO transactions
			(owner_email, id, description, amount_cents, tx_type, category, tx_date, position)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare insert: %w", err)
	}
	defer stmt.Close()

	for i, t := range txs {
		if _, err := stmt.ExecContext(ctx,
			owner, t.ID, t.Description, t.Amount.Cents,
			string(t.Type), t.Category, t.Date.String(), i); err != nil {
			return fmt.Errorf("insert transaction %s: %w", t.ID, err)
		}
	}

	if err := dbTx.Commit(); err != nil {
		return fmt.Errorf("commit partition rewrite: %w", err)
	}

	slog.DebugContext(ctx, "Partition persisted", "owner", owner, "count", len(txs))
	return nil
}

// LoadPartition returns an owner's stored sequence in persisted order.
// A missing partition is an empty slice, not an error.
func (r *SQLiteRepository) LoadPartition(ctx context.Context, owner string) ([]core.Transaction, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, description, amount_cents, tx_type, category, tx_date
		FROM transactions
		WHERE owner_email = ?
		ORDER BY position`, owner)
	if err != nil {
		return nil, fmt.Errorf("query partition: %w", err)
	}
	defer rows.Close()

	var txs []core.Transaction
	for rows.Next() {
		var (
			t       core.Transaction
			typ     string
			rawDate string
		)
		if err := rows.Scan(&t.ID, &t.Description, &t.Amount.Cents, &typ, &t.Category, &rawDate); err != nil {
			return nil, fmt.Errorf("scan transaction: %w", err)
		}
		t.Type = core.TransactionType(typ)
		t.Date, err = core.ParseDate(rawDate)
		if err != nil {
			return nil, fmt.Errorf("decode stored date %q: %w", rawDate, err)
		}
		txs = append(txs, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate partition: %w", err)
	}
	return txs, nil
}

// PartitionExists reports whether the owner has ever had a partition
// persisted. Emptied partitions still exist; absence drives the lazy
// seeding decision.
func (r *SQLiteRepository) PartitionExists(ctx context.Context, owner string) (bool, error) {
	var exists bool
	err := r.db.QueryRowContext(ctx,
		`SELECT EXISTS(SELECT 1 FROM partitions WHERE owner_email = ?)`, owner,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check partition: %w", err)
	}
	return exists, nil
}

// ListOwners returns every owner email with a stored partition, including
// emptied ones.
func (r *SQLiteRepository) ListOwners(ctx context.Context) ([]string, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT owner_email FROM partitions ORDER BY owner_email`)
	if err != nil {
		return nil, fmt.Errorf("query owners: %w", err)
	}
	defer rows.Close()

	var owners []string
	for rows.Next() {
		var owner string
		if err := rows.Scan(&owner); err != nil {
			return nil, fmt.Errorf("scan owner: %w", err)
		}
		owners = append(owners, owner)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate owners: %w", err)
	}
	return owners, nil
}

// GrantPermission stores guest → owner. The guest's primary key enforces
// the single-active-share invariant at the storage level too.
func (r *SQLiteRepository) GrantPermission(ctx context.Context, guest, owner string) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO permissions (guest_email, owner_email) VALUES (?, ?)`, guest, owner)
	if err != nil {
		return fmt.Errorf("grant permission: %w", err)
	}
	return nil
}

// RevokePermission deletes the guest's entry; absent entries are a no-op.
func (r *SQLiteRepository) RevokePermission(ctx context.Context, guest string) error {
	_, err := r.db.ExecContext(ctx,
		`DELETE FROM permissions WHERE guest_email = ?`, guest)
	if err != nil {
		return fmt.Errorf("revoke permission: %w", err)
	}
	return nil
}

// LoadPermissions returns the full guest → owner table.
func (r *SQLiteRepository) LoadPermissions(ctx context.Context) (map[string]string, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT guest_email, owner_email FROM permissions`)
	if err != nil {
		return nil, fmt.Errorf("query permissions: %w", err)
	}
	defer rows.Close()

	table := make(map[string]string)
	for rows.Next() {
		var guest, owner string
		if err := rows.Scan(&guest, &owner); err != nil {
			return nil, fmt.Errorf("scan permission: %w", err)
		}
		table[guest] = owner
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate permissions: %w", err)
	}
	return table, nil
}

// CreateIdentity stores a new identity, failing with ErrIdentityExists when
// the email is already registered.
func (r *SQLiteRepository) CreateIdentity(ctx context.Context, rec IdentityRecord) error {
	// Insert straight away and map the primary key violation, so two
	// concurrent registrations of the same email cannot both slip past
	// an existence check.
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO identities (email, name, password_hash) VALUES (?, ?, ?)`,
		rec.Email, rec.Name, string(rec.PasswordHash))
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed") {
			return ErrIdentityExists
		}
		return fmt.Errorf("create identity: %w", err)
	}
	return nil
}

// GetIdentity looks up an identity by its email key. The boolean reports
// presence; callers must not leak the distinction to end users.
func (r *SQLiteRepository) GetIdentity(ctx context.Context, email string) (IdentityRecord, bool, error) {
	var (
		rec  IdentityRecord
		hash string
	)
	err := r.db.QueryRowContext(ctx,
		`SELECT email, name, password_hash FROM identities WHERE email = ?`, email,
	).Scan(&rec.Email, &rec.Name, &hash)
	if errors.Is(err, sql.ErrNoRows) {
		return IdentityRecord{}, false, nil
	}
	if err != nil {
		return IdentityRecord{}, false, fmt.Errorf("get identity: %w", err)
	}
	rec.PasswordHash = []byte(hash)
	return rec, true, nil
}

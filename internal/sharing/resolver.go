package sharing

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"finansmart/internal/log"
)

var (
	// ErrSelfShare rejects an owner inviting itself as a guest.
	ErrSelfShare = errors.New("cannot share a ledger with its owner")
	// ErrDuplicateGuest rejects a guest that already has a sharing entry.
	// A guest may share with one owner at a time.
	ErrDuplicateGuest = errors.New("guest already has an active sharing entry")
)

const persistTimeout = 10 * time.Second

// PermissionRepository is the durable side of the guest to owner table.
type PermissionRepository interface {
	GrantPermission(ctx context.Context, guest, owner string) error
	RevokePermission(ctx context.Context, guest string) error
	LoadPermissions(ctx context.Context) (map[string]string, error)
}

// Resolver maps a logged-in identity to the owner identity whose
// ledger it operates on. No entry means self-ownership. Resolution is
// a single hop: a resolved owner is never looked up again, even if it
// is itself a guest of someone else.
//
// The table lives in memory; mutations persist fire-and-forget like
// the ledger, so a write failure never undoes a grant or revoke.
type Resolver struct {
	mu     sync.RWMutex
	table  map[string]string
	repo   PermissionRepository
	logger *log.Logger

	writes sync.WaitGroup
}

func NewResolver(repo PermissionRepository, logger *log.Logger) *Resolver {
	return &Resolver{
		table:  make(map[string]string),
		repo:   repo,
		logger: logger.WithComponent(log.ComponentSharing),
	}
}

// Load hydrates the table from storage. A read failure falls back to
// an empty table rather than failing startup.
func (r *Resolver) Load(ctx context.Context) {
	table, err := r.repo.LoadPermissions(ctx)
	if err != nil {
		r.logger.ErrorContext(ctx, "Failed to load permissions, starting empty",
			log.FieldError, err)
		return
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	for guest, owner := range table {
		r.table[guest] = owner
	}
}

// ResolveEffectiveOwner returns the owner whose partition the given
// identity reads and writes: the table entry if one exists, otherwise
// the identity itself.
func (r *Resolver) ResolveEffectiveOwner(email string) string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if owner, ok := r.table[email]; ok {
		return owner
	}
	return email
}

// Grant inserts guest -> owner. The guest must not be the owner and
// must not already appear in the table.
func (r *Resolver) Grant(ctx context.Context, owner, guest string) error {
	if guest == owner {
		return ErrSelfShare
	}

	r.mu.Lock()
	if _, ok := r.table[guest]; ok {
		r.mu.Unlock()
		return ErrDuplicateGuest
	}
	r.table[guest] = owner
	r.mu.Unlock()

	r.logger.InfoContext(ctx, "Share granted",
		log.FieldOwner, owner, log.FieldGuest, guest, log.FieldOperation, log.OpGrant)
	r.persist(func(ctx context.Context) error {
		return r.repo.GrantPermission(ctx, guest, owner)
	})
	return nil
}

// Revoke removes the guest's entry if present. Revoking an absent
// guest is a no-op. The guest's next resolution yields itself.
func (r *Resolver) Revoke(ctx context.Context, guest string) {
	r.mu.Lock()
	_, ok := r.table[guest]
	delete(r.table, guest)
	r.mu.Unlock()

	if !ok {
		return
	}
	r.logger.InfoContext(ctx, "Share revoked",
		log.FieldGuest, guest, log.FieldOperation, log.OpRevoke)
	r.persist(func(ctx context.Context) error {
		return r.repo.RevokePermission(ctx, guest)
	})
}

// GuestsOf lists all guest emails currently mapped to the owner,
// sorted for deterministic output.
func (r *Resolver) GuestsOf(owner string) []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var guests []string
	for guest, o := range r.table {
		if o == owner {
			guests = append(guests, guest)
		}
	}
	sort.Strings(guests)
	return guests
}

// Flush blocks until all scheduled writes have finished.
func (r *Resolver) Flush() {
	r.writes.Wait()
}

func (r *Resolver) persist(write func(context.Context) error) {
	r.writes.Add(1)
	go func() {
		defer r.writes.Done()

		ctx, cancel := context.WithTimeout(context.Background(), persistTimeout)
		defer cancel()

		if err := write(ctx); err != nil {
			r.logger.ErrorContext(ctx, "Failed to persist permission change",
				log.FieldError, err, log.FieldOperation, log.OpPersist)
		}
	}()
}

package ledger

import (
	"errors"
	"testing"
	"time"

	"finansmart/internal/core"
)

var testNow = time.Date(2024, 3, 15, 12, 0, 0, 0, time.Local)

func validInput() core.Transaction {
	return core.Transaction{
		Description: "Supermercado",
		Amount:      core.Money{Cents: 12345},
		Type:        core.Expense,
		Category:    "Alimentação",
		Date:        core.NewDate(2024, 3, 10),
	}
}

func TestAppendAssignsIDAndInsertsAtHead(t *testing.T) {
	s := NewStore()

	first, err := s.Append("o@x.com", validInput())
	if err != nil {
		t.Fatalf("append: %v", err)
	}
	if first.ID == "" {
		t.Fatal("expected a fresh id")
	}

	in := validInput()
	in.ID = "caller-supplied"
	second, err := s.Append("o@x.com", in)
	if err != nil {
		t.Fatalf("append: %v", err)
	}
	if second.ID == "caller-supplied" || second.ID == first.ID {
		t.Fatalf("id must be fresh and unique, got %q", second.ID)
	}

	got := s.List("o@x.com")
	if len(got) != 2 || got[0].ID != second.ID || got[1].ID != first.ID {
		t.Fatalf("expected newest first [%s %s], got %+v", second.ID, first.ID, got)
	}
}

func TestAppendRejectsInvalid(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*core.Transaction)
		wantErr error
	}{
		{"zero amount", func(tx *core.Transaction) { tx.Amount.Cents = 0 }, core.ErrInvalidAmount},
		{"negative amount", func(tx *core.Transaction) { tx.Amount.Cents = -100 }, core.ErrInvalidAmount},
		{"empty description", func(tx *core.Transaction) { tx.Description = "  " }, core.ErrEmptyDescription},
		{"empty category", func(tx *core.Transaction) { tx.Category = "" }, core.ErrEmptyCategory},
		{"bad type", func(tx *core.Transaction) { tx.Type = "transfer" }, core.ErrInvalidType},
		{"zero date", func(tx *core.Transaction) { tx.Date = core.Date{} }, core.ErrInvalidDate},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := NewStore()
			in := validInput()
			tt.mutate(&in)
			if _, err := s.Append("o@x.com", in); !errors.Is(err, tt.wantErr) {
				t.Fatalf("expected %v, got %v", tt.wantErr, err)
			}
			if got := s.List("o@x.com"); len(got) != 0 {
				t.Fatalf("rejected entry must not enter the ledger, got %+v", got)
			}
		})
	}
}

func TestRemove(t *testing.T) {
	s := NewStore()
	tx, err := s.Append("o@x.com", validInput())
	if err != nil {
		t.Fatalf("append: %v", err)
	}

	if s.Remove("o@x.com", "missing-id") {
		t.Fatal("removing an absent id must be a no-op")
	}
	if got := s.List("o@x.com"); len(got) != 1 {
		t.Fatalf("partition changed by no-op remove: %+v", got)
	}

	if !s.Remove("o@x.com", tx.ID) {
		t.Fatal("expected removal of an existing id")
	}
	if got := s.List("o@x.com"); len(got) != 0 {
		t.Fatalf("expected empty partition, got %+v", got)
	}
}

func TestListReturnsCopy(t *testing.T) {
	s := NewStore()
	if _, err := s.Append("o@x.com", validInput()); err != nil {
		t.Fatalf("append: %v", err)
	}

	got := s.List("o@x.com")
	got[0].Description = "mutated"

	if s.List("o@x.com")[0].Description == "mutated" {
		t.Fatal("List must not expose internal state")
	}

	if empty := s.List("nobody@x.com"); len(empty) != 0 {
		t.Fatalf("unknown owner must list empty, got %+v", empty)
	}
}

func TestEnsurePartitionSeedsOnce(t *testing.T) {
	s := NewStore()

	if !s.EnsurePartition("new@x.com", testNow) {
		t.Fatal("first ensure must seed")
	}
	seeded := s.List("new@x.com")
	if len(seeded) != 5 {
		t.Fatalf("expected 5 seed transactions, got %d", len(seeded))
	}
	sum := core.Summarize(seeded)
	if sum.TotalIncome.Cents != 500000 || sum.TotalExpense.Cents != 238000 {
		t.Fatalf("unexpected seed totals: %+v", sum)
	}
	for _, tx := range seeded {
		if err := tx.Validate(); err != nil {
			t.Fatalf("seed transaction %q invalid: %v", tx.Description, err)
		}
		if tx.ID == "" {
			t.Fatalf("seed transaction %q has no id", tx.Description)
		}
	}

	if s.EnsurePartition("new@x.com", testNow) {
		t.Fatal("second ensure must not reseed")
	}
}

func TestHydrateAndHasPartition(t *testing.T) {
	s := NewStore()
	if s.HasPartition("o@x.com") {
		t.Fatal("partition should not exist yet")
	}

	loaded := []core.Transaction{{
		ID:          "t1",
		Description: "Aluguel",
		Amount:      core.Money{Cents: 150000},
		Type:        core.Expense,
		Category:    "Moradia",
		Date:        core.NewDate(2024, 3, 1),
	}}
	s.Hydrate("o@x.com", loaded)

	if !s.HasPartition("o@x.com") {
		t.Fatal("partition should exist after hydrate")
	}
	if got := s.List("o@x.com"); len(got) != 1 || got[0].ID != "t1" {
		t.Fatalf("unexpected partition: %+v", got)
	}

	// Hydrate takes its own copy.
	loaded[0].Description = "mutated"
	if s.List("o@x.com")[0].Description == "mutated" {
		t.Fatal("Hydrate must copy its input")
	}

	if s.EnsurePartition("o@x.com", testNow) {
		t.Fatal("hydrated partition must not be reseeded")
	}
}

func TestResetToSeed(t *testing.T) {
	s := NewStore()
	if _, err := s.Append("o@x.com", validInput()); err != nil {
		t.Fatalf("append: %v", err)
	}

	s.ResetToSeed("o@x.com", testNow)

	got := s.List("o@x.com")
	if len(got) != 5 {
		t.Fatalf("expected the example dataset back, got %d entries", len(got))
	}
	for _, tx := range got {
		if tx.Description == "Supermercado" && tx.Amount.Cents == 12345 {
			t.Fatal("previous entries must be discarded on reset")
		}
	}
}

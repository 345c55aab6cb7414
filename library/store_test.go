package library

import (
	"os"
	"path/filepath"
	"testing"
)

func newStore(t *testing.T) (*Store, string) {
	t.Helper()
	dir := t.TempDir()
	store, err := NewStore(dir)
	if err != nil {
		t.Fatalf("new store: %v", err)
	}
	return store, dir
}

func TestBookSnapshotRoundTrip(t *testing.T) {
	store, _ := newStore(t)

	in := []*Book{
		{ISBN: "111", Title: "1984", Author: "George Orwell", Quantity: 3, AvailableCopies: 2},
		{ISBN: "222", Title: "Animal Farm", Author: "George Orwell", Quantity: 1, AvailableCopies: 0},
	}
	if err := store.SaveBooks(in); err != nil {
		t.Fatalf("save: %v", err)
	}
	out, err := store.LoadBooks()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(out) != 2 {
		t.Fatalf("want 2 books, got %d", len(out))
	}
	if out[0].AvailableCopies != 2 || out[1].AvailableCopies != 0 {
		t.Fatalf("availability lost: %+v %+v", out[0], out[1])
	}
}

func TestLegacyBookRecordRepair(t *testing.T) {
	store, dir := newStore(t)

	// A record written before the availableCopies column existed, plus a
	// line too short to be a record at all.
	content := "111,Old Book,Someone,3\nnot-a-record\n"
	if err := os.WriteFile(filepath.Join(dir, "books.txt"), []byte(content), 0o644); err != nil {
		t.Fatalf("write file: %v", err)
	}

	books, err := store.LoadBooks()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(books) != 1 {
		t.Fatalf("want 1 book, got %d", len(books))
	}
	if books[0].AvailableCopies != 3 {
		t.Fatalf("missing availableCopies should fall back to quantity, got %d", books[0].AvailableCopies)
	}
}

func TestUserSnapshotRoundTrip(t *testing.T) {
	store, _ := newStore(t)

	in := []*User{
		{UserID: "USR0001", Username: "alice", PasswordHash: "hash", FullName: "Alice A", Email: "a@example.com", Phone: "555", BorrowedISBNs: []string{"111", "222"}, IsActive: true},
		{UserID: "USR0002", Username: "bob", PasswordHash: "hash", FullName: "Bob B", Email: "b@example.com", Phone: "556", BorrowedISBNs: nil, IsActive: false},
	}
	if err := store.SaveUsers(in); err != nil {
		t.Fatalf("save: %v", err)
	}
	out, err := store.LoadUsers()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(out) != 2 {
		t.Fatalf("want 2 users, got %d", len(out))
	}
	if len(out[0].BorrowedISBNs) != 2 || out[0].BorrowedISBNs[1] != "222" {
		t.Fatalf("borrowed list lost: %v", out[0].BorrowedISBNs)
	}
	if len(out[1].BorrowedISBNs) != 0 {
		t.Fatalf("empty borrowed list should stay empty, got %v", out[1].BorrowedISBNs)
	}
	if out[1].IsActive {
		t.Fatalf("inactive flag lost")
	}
}

func TestLegacyUserRecordDefaultsActive(t *testing.T) {
	store, dir := newStore(t)

	content := "USR0001,alice,hash,Alice A,a@example.com,555,111;222\n"
	if err := os.WriteFile(filepath.Join(dir, "users.txt"), []byte(content), 0o644); err != nil {
		t.Fatalf("write file: %v", err)
	}
	users, err := store.LoadUsers()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(users) != 1 || !users[0].IsActive {
		t.Fatalf("record without active flag should load active: %+v", users)
	}
}

func TestTransactionSnapshotRoundTrip(t *testing.T) {
	store, _ := newStore(t)

	in := []*Transaction{
		{TransactionID: "TXN000001", Type: TransactionBorrow, UserID: "USR0001", UserName: "Alice A", ISBN: "111", BookTitle: "1984", Timestamp: "2024-01-02T03:04:05Z"},
	}
	if err := store.SaveTransactions(in); err != nil {
		t.Fatalf("save: %v", err)
	}
	out, err := store.LoadTransactions()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(out) != 1 {
		t.Fatalf("want 1 transaction, got %d", len(out))
	}
	if out[0].Timestamp != "2024-01-02T03:04:05Z" || out[0].Type != TransactionBorrow {
		t.Fatalf("fields lost: %+v", out[0])
	}
}

func TestIDAllocation(t *testing.T) {
	store, _ := newStore(t)

	id, err := store.NextUserID()
	if err != nil {
		t.Fatalf("next user id: %v", err)
	}
	if id != "USR0001" {
		t.Fatalf("empty roster should allocate USR0001, got %s", id)
	}

	users := []*User{
		{UserID: "USR0007", Username: "a", PasswordHash: "h", FullName: "A", Email: "a@x.io", Phone: "1", IsActive: true},
		{UserID: "USRgarbage", Username: "b", PasswordHash: "h", FullName: "B", Email: "b@x.io", Phone: "2", IsActive: true},
	}
	if err := store.SaveUsers(users); err != nil {
		t.Fatalf("save: %v", err)
	}
	id, err = store.NextUserID()
	if err != nil {
		t.Fatalf("next user id: %v", err)
	}
	// Malformed suffixes count as 0, so the max is 7.
	if id != "USR0008" {
		t.Fatalf("want USR0008, got %s", id)
	}

	txID, err := store.NextTransactionID()
	if err != nil {
		t.Fatalf("next transaction id: %v", err)
	}
	if txID != "TXN000001" {
		t.Fatalf("empty ledger should allocate TXN000001, got %s", txID)
	}
}

package library

import (
	"errors"
	"fmt"
	"testing"
)

func newManager(t *testing.T) *LibraryManager {
	t.Helper()
	mgr, err := NewLibraryManager(t.TempDir())
	if err != nil {
		t.Fatalf("mgr: %v", err)
	}
	return mgr
}

func addBook(t *testing.T, mgr *LibraryManager, isbn string, quantity int) *Book {
	t.Helper()
	book, err := mgr.AddBook(isbn, "Title "+isbn, "Author "+isbn, quantity)
	if err != nil {
		t.Fatalf("add book %s: %v", isbn, err)
	}
	return book
}

func registerUser(t *testing.T, mgr *LibraryManager, username string) *User {
	t.Helper()
	user, err := mgr.RegisterUser(username, "password123", "Full "+username, username+"@example.com", "555-0100")
	if err != nil {
		t.Fatalf("register %s: %v", username, err)
	}
	return user
}

func TestAddBookDuplicateISBN(t *testing.T) {
	mgr := newManager(t)
	addBook(t, mgr, "111", 2)

	_, err := mgr.AddBook("111", "Other", "Other", 1)
	if !errors.Is(err, ErrDuplicateKey) {
		t.Fatalf("want ErrDuplicateKey, got %v", err)
	}
}

func TestBorrowReturnRoundTrip(t *testing.T) {
	mgr := newManager(t)
	addBook(t, mgr, "111", 2)
	user := registerUser(t, mgr, "alice")

	tx, err := mgr.BorrowBook("111", user.UserID)
	if err != nil {
		t.Fatalf("borrow: %v", err)
	}
	if tx.Type != TransactionBorrow || tx.ISBN != "111" || tx.UserID != user.UserID {
		t.Fatalf("bad borrow transaction: %+v", tx)
	}

	book, _ := mgr.GetBookByISBN("111")
	if book.AvailableCopies != 1 {
		t.Fatalf("want 1 available after borrow, got %d", book.AvailableCopies)
	}
	u, _ := mgr.GetUserByID(user.UserID)
	if !u.HasBorrowed("111") {
		t.Fatalf("borrowed set missing ISBN: %v", u.BorrowedISBNs)
	}

	if _, err := mgr.ReturnBook("111", user.UserID); err != nil {
		t.Fatalf("return: %v", err)
	}

	book, _ = mgr.GetBookByISBN("111")
	if book.AvailableCopies != 2 {
		t.Fatalf("availability not restored, got %d", book.AvailableCopies)
	}
	u, _ = mgr.GetUserByID(user.UserID)
	if len(u.BorrowedISBNs) != 0 {
		t.Fatalf("borrowed set not restored: %v", u.BorrowedISBNs)
	}

	transactions, _ := mgr.GetAllTransactions()
	if len(transactions) != 2 {
		t.Fatalf("want exactly 2 ledger entries, got %d", len(transactions))
	}
	if transactions[0].Type != TransactionBorrow || transactions[1].Type != TransactionReturn {
		t.Fatalf("ledger out of order: %s then %s", transactions[0].Type, transactions[1].Type)
	}
	if transactions[0].TransactionID == transactions[1].TransactionID {
		t.Fatalf("transaction IDs must be unique")
	}
}

func TestDoubleBorrowSameBook(t *testing.T) {
	mgr := newManager(t)
	addBook(t, mgr, "111", 2)
	user := registerUser(t, mgr, "alice")

	if _, err := mgr.BorrowBook("111", user.UserID); err != nil {
		t.Fatalf("first borrow: %v", err)
	}
	_, err := mgr.BorrowBook("111", user.UserID)
	if !errors.Is(err, ErrConflictState) {
		t.Fatalf("want ErrConflictState, got %v", err)
	}

	// State unchanged by the failed attempt.
	book, _ := mgr.GetBookByISBN("111")
	if book.AvailableCopies != 1 {
		t.Fatalf("failed borrow changed availability: %d", book.AvailableCopies)
	}
	transactions, _ := mgr.GetAllTransactions()
	if len(transactions) != 1 {
		t.Fatalf("failed borrow appended a transaction")
	}
}

func TestBorrowUnavailableBook(t *testing.T) {
	mgr := newManager(t)
	addBook(t, mgr, "111", 1)
	alice := registerUser(t, mgr, "alice")
	bob := registerUser(t, mgr, "bob")

	if _, err := mgr.BorrowBook("111", alice.UserID); err != nil {
		t.Fatalf("borrow: %v", err)
	}
	_, err := mgr.BorrowBook("111", bob.UserID)
	if !errors.Is(err, ErrResourceExhausted) {
		t.Fatalf("want ErrResourceExhausted, got %v", err)
	}

	book, _ := mgr.GetBookByISBN("111")
	if book.AvailableCopies != 0 {
		t.Fatalf("availability drifted: %d", book.AvailableCopies)
	}
	transactions, _ := mgr.GetAllTransactions()
	if len(transactions) != 1 {
		t.Fatalf("failed borrow appended a transaction")
	}
}

func TestBorrowLimit(t *testing.T) {
	mgr := newManager(t)
	user := registerUser(t, mgr, "alice")
	for i := 0; i < MaxBorrowLimit+1; i++ {
		addBook(t, mgr, fmt.Sprintf("isbn-%d", i), 1)
	}

	for i := 0; i < MaxBorrowLimit; i++ {
		if _, err := mgr.BorrowBook(fmt.Sprintf("isbn-%d", i), user.UserID); err != nil {
			t.Fatalf("borrow %d: %v", i, err)
		}
	}
	_, err := mgr.BorrowBook(fmt.Sprintf("isbn-%d", MaxBorrowLimit), user.UserID)
	if !errors.Is(err, ErrLimitExceeded) {
		t.Fatalf("want ErrLimitExceeded, got %v", err)
	}

	u, _ := mgr.GetUserByID(user.UserID)
	if len(u.BorrowedISBNs) != MaxBorrowLimit {
		t.Fatalf("borrowed set drifted: %v", u.BorrowedISBNs)
	}
}

func TestBorrowChecksBookBeforeUser(t *testing.T) {
	mgr := newManager(t)
	_, err := mgr.BorrowBook("nope", "USR9999")
	if !errors.Is(err, ErrNotFound) || err.Error() != "Book not found" {
		t.Fatalf("want book-not-found first, got %v", err)
	}
}

func TestInactiveUserCannotBorrow(t *testing.T) {
	mgr := newManager(t)
	addBook(t, mgr, "111", 1)
	user := registerUser(t, mgr, "alice")

	if err := mgr.SetUserActive(user.UserID, false); err != nil {
		t.Fatalf("deactivate: %v", err)
	}
	_, err := mgr.BorrowBook("111", user.UserID)
	if !errors.Is(err, ErrConflictState) {
		t.Fatalf("want ErrConflictState, got %v", err)
	}
}

func TestReturnWithoutBorrow(t *testing.T) {
	mgr := newManager(t)
	addBook(t, mgr, "111", 1)
	user := registerUser(t, mgr, "alice")

	_, err := mgr.ReturnBook("111", user.UserID)
	if !errors.Is(err, ErrConflictState) {
		t.Fatalf("want ErrConflictState, got %v", err)
	}
}

func TestRemoveBookWhileBorrowed(t *testing.T) {
	mgr := newManager(t)
	addBook(t, mgr, "111", 2)
	user := registerUser(t, mgr, "alice")

	if _, err := mgr.BorrowBook("111", user.UserID); err != nil {
		t.Fatalf("borrow: %v", err)
	}
	if err := mgr.RemoveBook("111"); !errors.Is(err, ErrConflictState) {
		t.Fatalf("want ErrConflictState while on loan, got %v", err)
	}

	if _, err := mgr.ReturnBook("111", user.UserID); err != nil {
		t.Fatalf("return: %v", err)
	}
	if err := mgr.RemoveBook("111"); err != nil {
		t.Fatalf("remove after return: %v", err)
	}
	if _, err := mgr.GetBookByISBN("111"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("book should be gone, got %v", err)
	}
}

func TestUpdateQuantityKeepsOutstandingLoans(t *testing.T) {
	mgr := newManager(t)
	addBook(t, mgr, "111", 2)
	user := registerUser(t, mgr, "alice")
	if _, err := mgr.BorrowBook("111", user.UserID); err != nil {
		t.Fatalf("borrow: %v", err)
	}

	// Growing the quantity keeps the one outstanding loan.
	book, err := mgr.UpdateBookQuantity("111", 5)
	if err != nil {
		t.Fatalf("update quantity: %v", err)
	}
	if book.Quantity != 5 || book.AvailableCopies != 4 {
		t.Fatalf("want 5/4, got %d/%d", book.Quantity, book.AvailableCopies)
	}

	// Shrinking to exactly the outstanding count leaves zero available.
	book, err = mgr.UpdateBookQuantity("111", 1)
	if err != nil {
		t.Fatalf("update quantity to floor: %v", err)
	}
	if book.Quantity != 1 || book.AvailableCopies != 0 {
		t.Fatalf("want 1/0, got %d/%d", book.Quantity, book.AvailableCopies)
	}

	// Below the outstanding count is rejected and nothing changes.
	if _, err := mgr.UpdateBookQuantity("111", 0); !errors.Is(err, ErrInvalidArgument) {
		t.Fatalf("want ErrInvalidArgument, got %v", err)
	}
	book, _ = mgr.GetBookByISBN("111")
	if book.Quantity != 1 || book.AvailableCopies != 0 {
		t.Fatalf("rejected update mutated the book: %d/%d", book.Quantity, book.AvailableCopies)
	}
}

func TestUpdateBookDetailsLeavesAvailability(t *testing.T) {
	mgr := newManager(t)
	addBook(t, mgr, "111", 3)
	user := registerUser(t, mgr, "alice")
	if _, err := mgr.BorrowBook("111", user.UserID); err != nil {
		t.Fatalf("borrow: %v", err)
	}

	book, err := mgr.UpdateBookDetails("111", "New Title", "New Author")
	if err != nil {
		t.Fatalf("update details: %v", err)
	}
	if book.Title != "New Title" || book.Author != "New Author" {
		t.Fatalf("details not updated: %+v", book)
	}
	if book.Quantity != 3 || book.AvailableCopies != 2 {
		t.Fatalf("availability touched: %d/%d", book.Quantity, book.AvailableCopies)
	}
}

func TestRegisterValidation(t *testing.T) {
	mgr := newManager(t)
	registerUser(t, mgr, "alice")

	cases := []struct {
		name     string
		username string
		password string
		email    string
		kind     error
	}{
		{"duplicate username", "alice", "password123", "x@example.com", ErrDuplicateKey},
		{"short password", "bob", "short", "x@example.com", ErrInvalidArgument},
		{"bad email", "bob", "password123", "not-an-email", ErrInvalidArgument},
	}
	for _, tc := range cases {
		_, err := mgr.RegisterUser(tc.username, tc.password, "Some One", tc.email, "555")
		if !errors.Is(err, tc.kind) {
			t.Fatalf("%s: want %v, got %v", tc.name, tc.kind, err)
		}
	}

	users, _ := mgr.GetAllUsers()
	if len(users) != 1 {
		t.Fatalf("failed registrations changed the roster: %d users", len(users))
	}
}

func TestSequentialUserIDs(t *testing.T) {
	mgr := newManager(t)
	a := registerUser(t, mgr, "alice")
	b := registerUser(t, mgr, "bob")
	if a.UserID != "USR0001" || b.UserID != "USR0002" {
		t.Fatalf("want USR0001/USR0002, got %s/%s", a.UserID, b.UserID)
	}
}

func TestRemoveUserWithBorrowedBooks(t *testing.T) {
	mgr := newManager(t)
	addBook(t, mgr, "111", 1)
	user := registerUser(t, mgr, "alice")
	if _, err := mgr.BorrowBook("111", user.UserID); err != nil {
		t.Fatalf("borrow: %v", err)
	}

	if err := mgr.RemoveUser(user.UserID); !errors.Is(err, ErrConflictState) {
		t.Fatalf("want ErrConflictState, got %v", err)
	}
	if _, err := mgr.ReturnBook("111", user.UserID); err != nil {
		t.Fatalf("return: %v", err)
	}
	if err := mgr.RemoveUser(user.UserID); err != nil {
		t.Fatalf("remove after return: %v", err)
	}
}

func TestSearch(t *testing.T) {
	mgr := newManager(t)
	if _, err := mgr.AddBook("978-0451524935", "Nineteen Eighty-Four", "George Orwell", 1); err != nil {
		t.Fatalf("add: %v", err)
	}
	if _, err := mgr.AddBook("978-0141036137", "Animal Farm", "George Orwell", 1); err != nil {
		t.Fatalf("add: %v", err)
	}

	byTitle, _ := mgr.SearchBooksByTitle("eighty")
	if len(byTitle) != 1 || byTitle[0].ISBN != "978-0451524935" {
		t.Fatalf("title search: %+v", byTitle)
	}

	byAuthor, _ := mgr.SearchBooksByAuthor("ORWELL")
	if len(byAuthor) != 2 {
		t.Fatalf("author search should be case-insensitive, got %d", len(byAuthor))
	}

	byKeyword, _ := mgr.SearchBooksByKeyword("0141036137")
	if len(byKeyword) != 1 || byKeyword[0].Title != "Animal Farm" {
		t.Fatalf("keyword search should cover ISBN: %+v", byKeyword)
	}

	none, _ := mgr.SearchBooksByTitle("zzzzz")
	if len(none) != 0 {
		t.Fatalf("want no results, got %d", len(none))
	}
}

func TestRecentTransactionsNewestFirst(t *testing.T) {
	mgr := newManager(t)
	addBook(t, mgr, "111", 5)
	addBook(t, mgr, "222", 5)
	user := registerUser(t, mgr, "alice")

	mustBorrow := func(isbn string) {
		if _, err := mgr.BorrowBook(isbn, user.UserID); err != nil {
			t.Fatalf("borrow %s: %v", isbn, err)
		}
	}
	mustBorrow("111")
	mustBorrow("222")
	if _, err := mgr.ReturnBook("111", user.UserID); err != nil {
		t.Fatalf("return: %v", err)
	}

	recent, err := mgr.GetRecentTransactions(2)
	if err != nil {
		t.Fatalf("recent: %v", err)
	}
	if len(recent) != 2 {
		t.Fatalf("want 2, got %d", len(recent))
	}
	if recent[0].Type != TransactionReturn || recent[1].ISBN != "222" {
		t.Fatalf("wrong order: %+v %+v", recent[0], recent[1])
	}

	all, _ := mgr.GetRecentTransactions(100)
	if len(all) != 3 {
		t.Fatalf("oversized count should clamp, got %d", len(all))
	}
}

func TestTransactionFilters(t *testing.T) {
	mgr := newManager(t)
	addBook(t, mgr, "111", 5)
	alice := registerUser(t, mgr, "alice")
	bob := registerUser(t, mgr, "bob")

	if _, err := mgr.BorrowBook("111", alice.UserID); err != nil {
		t.Fatalf("borrow: %v", err)
	}
	if _, err := mgr.BorrowBook("111", bob.UserID); err != nil {
		t.Fatalf("borrow: %v", err)
	}

	forAlice, _ := mgr.GetUserTransactions(alice.UserID)
	if len(forAlice) != 1 || forAlice[0].UserID != alice.UserID {
		t.Fatalf("user filter: %+v", forAlice)
	}
	forBook, _ := mgr.GetBookTransactions("111")
	if len(forBook) != 2 {
		t.Fatalf("book filter: want 2, got %d", len(forBook))
	}
}

func TestDenormalizedTransactionFields(t *testing.T) {
	mgr := newManager(t)
	addBook(t, mgr, "111", 1)
	user := registerUser(t, mgr, "alice")

	tx, err := mgr.BorrowBook("111", user.UserID)
	if err != nil {
		t.Fatalf("borrow: %v", err)
	}
	if tx.BookTitle != "Title 111" || tx.UserName != "Full alice" {
		t.Fatalf("denormalized fields wrong: %+v", tx)
	}

	// Renaming the book later must not rewrite history.
	if _, err := mgr.UpdateBookDetails("111", "Renamed", "Someone"); err != nil {
		t.Fatalf("update: %v", err)
	}
	transactions, _ := mgr.GetAllTransactions()
	if transactions[0].BookTitle != "Title 111" {
		t.Fatalf("ledger entry mutated: %+v", transactions[0])
	}
}

func TestStatistics(t *testing.T) {
	mgr := newManager(t)
	addBook(t, mgr, "111", 3)
	addBook(t, mgr, "222", 2)
	alice := registerUser(t, mgr, "alice")
	bob := registerUser(t, mgr, "bob")
	if err := mgr.SetUserActive(bob.UserID, false); err != nil {
		t.Fatalf("deactivate: %v", err)
	}
	if _, err := mgr.BorrowBook("111", alice.UserID); err != nil {
		t.Fatalf("borrow: %v", err)
	}

	stats, err := mgr.GetStatistics()
	if err != nil {
		t.Fatalf("stats: %v", err)
	}
	want := Statistics{
		TotalBooks:        2,
		TotalCopies:       5,
		AvailableCopies:   4,
		BorrowedCopies:    1,
		TotalUsers:        2,
		ActiveUsers:       1,
		TotalTransactions: 1,
	}
	if *stats != want {
		t.Fatalf("want %+v, got %+v", want, *stats)
	}
}

func TestStateSurvivesReload(t *testing.T) {
	dir := t.TempDir()
	mgr, err := NewLibraryManager(dir)
	if err != nil {
		t.Fatalf("mgr: %v", err)
	}
	addBook(t, mgr, "111", 2)
	user := registerUser(t, mgr, "alice")
	if _, err := mgr.BorrowBook("111", user.UserID); err != nil {
		t.Fatalf("borrow: %v", err)
	}

	// A second manager over the same directory sees the persisted state.
	reopened, err := NewLibraryManager(dir)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	book, err := reopened.GetBookByISBN("111")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if book.AvailableCopies != 1 {
		t.Fatalf("persisted availability wrong: %d", book.AvailableCopies)
	}
	u, err := reopened.GetUserByID(user.UserID)
	if err != nil {
		t.Fatalf("get user: %v", err)
	}
	if !u.HasBorrowed("111") {
		t.Fatalf("persisted borrowed set wrong: %v", u.BorrowedISBNs)
	}
}

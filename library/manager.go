package library

import (
	"regexp"
	"strings"
	"sync"
	"time"

	"golang.org/x/crypto/bcrypt"
)

// MinPasswordLength is the registration floor for password length.
const MinPasswordLength = 6

var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// LibraryManager owns the catalog, the user roster, and the transaction
// ledger. Every operation loads a full snapshot, mutates it in memory, and
// writes the full snapshot back; the mutex is the single-writer serialization
// point that keeps concurrent requests from racing on those read-modify-write
// cycles and on ID allocation. The three writes a borrow/return performs are
// still independent snapshot writes: a failed write mid-sequence leaves the
// collections partially updated.
type LibraryManager struct {
	mu    sync.Mutex
	store *Store
}

// NewLibraryManager opens (or creates) the flat-file store at dataDir.
func NewLibraryManager(dataDir string) (*LibraryManager, error) {
	store, err := NewStore(dataDir)
	if err != nil {
		return nil, err
	}
	return &LibraryManager{store: store}, nil
}

// Store exposes the underlying record store for operator tooling.
func (lm *LibraryManager) Store() *Store { return lm.store }

// ------------------ Book operations ------------------

// AddBook creates a catalog entry with every copy available.
func (lm *LibraryManager) AddBook(isbn, title, author string, quantity int) (*Book, error) {
	lm.mu.Lock()
	defer lm.mu.Unlock()

	books, err := lm.store.LoadBooks()
	if err != nil {
		return nil, err
	}
	if findBook(books, isbn) != nil {
		return nil, failf(ErrDuplicateKey, "Book with this ISBN already exists")
	}
	if quantity < 0 {
		return nil, failf(ErrInvalidArgument, "Quantity cannot be negative")
	}

	book := &Book{
		ISBN:            isbn,
		Title:           title,
		Author:          author,
		Quantity:        quantity,
		AvailableCopies: quantity,
	}
	books = append(books, book)
	if err := lm.store.SaveBooks(books); err != nil {
		return nil, err
	}
	return book, nil
}

// RemoveBook deletes a catalog entry. Blocked while any copy is on loan.
func (lm *LibraryManager) RemoveBook(isbn string) error {
	lm.mu.Lock()
	defer lm.mu.Unlock()

	books, err := lm.store.LoadBooks()
	if err != nil {
		return err
	}
	idx := -1
	for i, b := range books {
		if b.ISBN == isbn {
			idx = i
			break
		}
	}
	if idx == -1 {
		return failf(ErrNotFound, "Book not found")
	}
	if books[idx].AvailableCopies < books[idx].Quantity {
		return failf(ErrConflictState, "Cannot remove book that is currently borrowed")
	}
	books = append(books[:idx], books[idx+1:]...)
	return lm.store.SaveBooks(books)
}

// UpdateBookDetails changes title and author only; availability is untouched.
func (lm *LibraryManager) UpdateBookDetails(isbn, title, author string) (*Book, error) {
	lm.mu.Lock()
	defer lm.mu.Unlock()

	books, err := lm.store.LoadBooks()
	if err != nil {
		return nil, err
	}
	book := findBook(books, isbn)
	if book == nil {
		return nil, failf(ErrNotFound, "Book not found")
	}
	book.Title = title
	book.Author = author
	if err := lm.store.SaveBooks(books); err != nil {
		return nil, err
	}
	return book, nil
}

// UpdateBookQuantity resizes the owned-copy count. Availability is recomputed
// from the outstanding-loan count rather than adjusted by a delta, so loans
// survive the resize intact.
func (lm *LibraryManager) UpdateBookQuantity(isbn string, newQuantity int) (*Book, error) {
	lm.mu.Lock()
	defer lm.mu.Unlock()

	books, err := lm.store.LoadBooks()
	if err != nil {
		return nil, err
	}
	book := findBook(books, isbn)
	if book == nil {
		return nil, failf(ErrNotFound, "Book not found")
	}
	borrowed := book.BorrowedCount()
	if newQuantity < borrowed {
		return nil, failf(ErrInvalidArgument, "Cannot set quantity below borrowed count (%d)", borrowed)
	}
	book.AvailableCopies = newQuantity - borrowed
	book.Quantity = newQuantity
	if err := lm.store.SaveBooks(books); err != nil {
		return nil, err
	}
	return book, nil
}

// GetBookByISBN fetches a single catalog entry.
func (lm *LibraryManager) GetBookByISBN(isbn string) (*Book, error) {
	lm.mu.Lock()
	defer lm.mu.Unlock()

	books, err := lm.store.LoadBooks()
	if err != nil {
		return nil, err
	}
	book := findBook(books, isbn)
	if book == nil {
		return nil, failf(ErrNotFound, "Book not found")
	}
	return book, nil
}

// GetAllBooks returns the whole catalog.
func (lm *LibraryManager) GetAllBooks() ([]*Book, error) {
	lm.mu.Lock()
	defer lm.mu.Unlock()
	return lm.store.LoadBooks()
}

// GetAvailableBooks returns only books with at least one copy on the shelf.
func (lm *LibraryManager) GetAvailableBooks() ([]*Book, error) {
	lm.mu.Lock()
	defer lm.mu.Unlock()

	books, err := lm.store.LoadBooks()
	if err != nil {
		return nil, err
	}
	available := make([]*Book, 0, len(books))
	for _, b := range books {
		if b.AvailableCopies > 0 {
			available = append(available, b)
		}
	}
	return available, nil
}

func findBook(books []*Book, isbn string) *Book {
	for _, b := range books {
		if b.ISBN == isbn {
			return b
		}
	}
	return nil
}

// ------------------ User operations ------------------

// RegisterUser validates the profile, hashes the password, allocates the
// next sequential user ID, and stores the new account as active with no
// borrowed books.
func (lm *LibraryManager) RegisterUser(username, password, fullName, email, phone string) (*User, error) {
	lm.mu.Lock()
	defer lm.mu.Unlock()

	users, err := lm.store.LoadUsers()
	if err != nil {
		return nil, err
	}
	if findUserByName(users, username) != nil {
		return nil, failf(ErrDuplicateKey, "Username already exists")
	}
	if len(password) < MinPasswordLength {
		return nil, failf(ErrInvalidArgument, "Password must be at least %d characters", MinPasswordLength)
	}
	if !emailPattern.MatchString(email) {
		return nil, failf(ErrInvalidArgument, "Invalid email format")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}
	userID, err := lm.store.NextUserID()
	if err != nil {
		return nil, err
	}

	user := &User{
		UserID:        userID,
		Username:      username,
		PasswordHash:  string(hash),
		FullName:      fullName,
		Email:         email,
		Phone:         phone,
		BorrowedISBNs: []string{},
		IsActive:      true,
	}
	users = append(users, user)
	if err := lm.store.SaveUsers(users); err != nil {
		return nil, err
	}
	return user, nil
}

// RemoveUser deletes an account. Blocked while the user still holds books.
func (lm *LibraryManager) RemoveUser(userID string) error {
	lm.mu.Lock()
	defer lm.mu.Unlock()

	users, err := lm.store.LoadUsers()
	if err != nil {
		return err
	}
	idx := -1
	for i, u := range users {
		if u.UserID == userID {
			idx = i
			break
		}
	}
	if idx == -1 {
		return failf(ErrNotFound, "User not found")
	}
	if len(users[idx].BorrowedISBNs) > 0 {
		return failf(ErrConflictState, "Cannot remove user with borrowed books")
	}
	users = append(users[:idx], users[idx+1:]...)
	return lm.store.SaveUsers(users)
}

// SetUserActive toggles the account's active flag.
func (lm *LibraryManager) SetUserActive(userID string, active bool) error {
	lm.mu.Lock()
	defer lm.mu.Unlock()

	users, err := lm.store.LoadUsers()
	if err != nil {
		return err
	}
	user := findUserByID(users, userID)
	if user == nil {
		return failf(ErrNotFound, "User not found")
	}
	user.IsActive = active
	return lm.store.SaveUsers(users)
}

// GetUserByID fetches a single account.
func (lm *LibraryManager) GetUserByID(userID string) (*User, error) {
	lm.mu.Lock()
	defer lm.mu.Unlock()

	users, err := lm.store.LoadUsers()
	if err != nil {
		return nil, err
	}
	user := findUserByID(users, userID)
	if user == nil {
		return nil, failf(ErrNotFound, "User not found")
	}
	return user, nil
}

// GetUserByUsername fetches a single account by its login name.
func (lm *LibraryManager) GetUserByUsername(username string) (*User, error) {
	lm.mu.Lock()
	defer lm.mu.Unlock()

	users, err := lm.store.LoadUsers()
	if err != nil {
		return nil, err
	}
	user := findUserByName(users, username)
	if user == nil {
		return nil, failf(ErrNotFound, "User not found")
	}
	return user, nil
}

// GetAllUsers returns the whole roster, password hashes included; callers
// serving these outward strip the hash.
func (lm *LibraryManager) GetAllUsers() ([]*User, error) {
	lm.mu.Lock()
	defer lm.mu.Unlock()
	return lm.store.LoadUsers()
}

func findUserByID(users []*User, userID string) *User {
	for _, u := range users {
		if u.UserID == userID {
			return u
		}
	}
	return nil
}

func findUserByName(users []*User, username string) *User {
	for _, u := range users {
		if u.Username == username {
			return u
		}
	}
	return nil
}

// ------------------ Circulation ------------------

// BorrowBook checks a copy out to a user. The precondition checks run in a
// fixed order so the same situation always fails with the same message:
// book exists, user exists, user active, copy available, borrow limit not
// reached, not already borrowed. On success it performs three independent
// snapshot writes (books, users, ledger) — there is no rollback between them.
func (lm *LibraryManager) BorrowBook(isbn, userID string) (*Transaction, error) {
	lm.mu.Lock()
	defer lm.mu.Unlock()

	books, err := lm.store.LoadBooks()
	if err != nil {
		return nil, err
	}
	users, err := lm.store.LoadUsers()
	if err != nil {
		return nil, err
	}

	book := findBook(books, isbn)
	user := findUserByID(users, userID)

	if book == nil {
		return nil, failf(ErrNotFound, "Book not found")
	}
	if user == nil {
		return nil, failf(ErrNotFound, "User not found")
	}
	if !user.IsActive {
		return nil, failf(ErrConflictState, "User account is inactive")
	}
	if book.AvailableCopies <= 0 {
		return nil, failf(ErrResourceExhausted, "Book is not available")
	}
	if len(user.BorrowedISBNs) >= MaxBorrowLimit {
		return nil, failf(ErrLimitExceeded, "Maximum borrow limit (%d) reached", MaxBorrowLimit)
	}
	if user.HasBorrowed(isbn) {
		return nil, failf(ErrConflictState, "You have already borrowed this book")
	}

	book.AvailableCopies--
	if err := lm.store.SaveBooks(books); err != nil {
		return nil, err
	}

	user.BorrowedISBNs = append(user.BorrowedISBNs, isbn)
	if err := lm.store.SaveUsers(users); err != nil {
		return nil, err
	}

	return lm.appendTransaction(TransactionBorrow, user, book)
}

// ReturnBook checks a copy back in: book exists, user exists, and the user
// actually holds the ISBN. Same three-write sequence as BorrowBook.
func (lm *LibraryManager) ReturnBook(isbn, userID string) (*Transaction, error) {
	lm.mu.Lock()
	defer lm.mu.Unlock()

	books, err := lm.store.LoadBooks()
	if err != nil {
		return nil, err
	}
	users, err := lm.store.LoadUsers()
	if err != nil {
		return nil, err
	}

	book := findBook(books, isbn)
	user := findUserByID(users, userID)

	if book == nil {
		return nil, failf(ErrNotFound, "Book not found")
	}
	if user == nil {
		return nil, failf(ErrNotFound, "User not found")
	}
	if !user.HasBorrowed(isbn) {
		return nil, failf(ErrConflictState, "You have not borrowed this book")
	}

	book.AvailableCopies++
	if err := lm.store.SaveBooks(books); err != nil {
		return nil, err
	}

	kept := user.BorrowedISBNs[:0]
	for _, held := range user.BorrowedISBNs {
		if held != isbn {
			kept = append(kept, held)
		}
	}
	user.BorrowedISBNs = kept
	if err := lm.store.SaveUsers(users); err != nil {
		return nil, err
	}

	return lm.appendTransaction(TransactionReturn, user, book)
}

// appendTransaction allocates the next ledger ID and appends one entry with
// denormalized user/book snapshots. Callers hold the manager lock.
func (lm *LibraryManager) appendTransaction(txType string, user *User, book *Book) (*Transaction, error) {
	transactionID, err := lm.store.NextTransactionID()
	if err != nil {
		return nil, err
	}
	transaction := &Transaction{
		TransactionID: transactionID,
		Type:          txType,
		UserID:        user.UserID,
		UserName:      user.FullName,
		ISBN:          book.ISBN,
		BookTitle:     book.Title,
		Timestamp:     time.Now().UTC().Format(time.RFC3339),
	}
	transactions, err := lm.store.LoadTransactions()
	if err != nil {
		return nil, err
	}
	transactions = append(transactions, transaction)
	if err := lm.store.SaveTransactions(transactions); err != nil {
		return nil, err
	}
	return transaction, nil
}

// GetUserBorrowedBooks resolves a user's borrowed ISBNs against the catalog.
// ISBNs with no matching catalog entry are silently dropped.
func (lm *LibraryManager) GetUserBorrowedBooks(userID string) ([]*Book, error) {
	lm.mu.Lock()
	defer lm.mu.Unlock()

	users, err := lm.store.LoadUsers()
	if err != nil {
		return nil, err
	}
	user := findUserByID(users, userID)
	if user == nil {
		return []*Book{}, nil
	}
	books, err := lm.store.LoadBooks()
	if err != nil {
		return nil, err
	}
	borrowed := make([]*Book, 0, len(user.BorrowedISBNs))
	for _, isbn := range user.BorrowedISBNs {
		if b := findBook(books, isbn); b != nil {
			borrowed = append(borrowed, b)
		}
	}
	return borrowed, nil
}

// ------------------ Search ------------------

// SearchBooksByTitle does a case-insensitive substring match on titles.
func (lm *LibraryManager) SearchBooksByTitle(query string) ([]*Book, error) {
	return lm.searchBooks(func(b *Book) string { return b.Title }, query)
}

// SearchBooksByAuthor does a case-insensitive substring match on authors.
func (lm *LibraryManager) SearchBooksByAuthor(query string) ([]*Book, error) {
	return lm.searchBooks(func(b *Book) string { return b.Author }, query)
}

// SearchBooksByKeyword matches against title, author, and ISBN.
func (lm *LibraryManager) SearchBooksByKeyword(query string) ([]*Book, error) {
	return lm.searchBooks(func(b *Book) string {
		return b.Title + "\x00" + b.Author + "\x00" + b.ISBN
	}, query)
}

func (lm *LibraryManager) searchBooks(field func(*Book) string, query string) ([]*Book, error) {
	lm.mu.Lock()
	defer lm.mu.Unlock()

	books, err := lm.store.LoadBooks()
	if err != nil {
		return nil, err
	}
	needle := strings.ToLower(query)
	results := make([]*Book, 0)
	for _, b := range books {
		if strings.Contains(strings.ToLower(field(b)), needle) {
			results = append(results, b)
		}
	}
	return results, nil
}

// ------------------ Transactions ------------------

// GetAllTransactions returns the full ledger in append order.
func (lm *LibraryManager) GetAllTransactions() ([]*Transaction, error) {
	lm.mu.Lock()
	defer lm.mu.Unlock()
	return lm.store.LoadTransactions()
}

// GetUserTransactions filters the ledger by user.
func (lm *LibraryManager) GetUserTransactions(userID string) ([]*Transaction, error) {
	return lm.filterTransactions(func(t *Transaction) bool { return t.UserID == userID })
}

// GetBookTransactions filters the ledger by ISBN.
func (lm *LibraryManager) GetBookTransactions(isbn string) ([]*Transaction, error) {
	return lm.filterTransactions(func(t *Transaction) bool { return t.ISBN == isbn })
}

func (lm *LibraryManager) filterTransactions(keep func(*Transaction) bool) ([]*Transaction, error) {
	lm.mu.Lock()
	defer lm.mu.Unlock()

	transactions, err := lm.store.LoadTransactions()
	if err != nil {
		return nil, err
	}
	results := make([]*Transaction, 0)
	for _, t := range transactions {
		if keep(t) {
			results = append(results, t)
		}
	}
	return results, nil
}

// GetRecentTransactions returns the last n ledger entries, newest first.
func (lm *LibraryManager) GetRecentTransactions(n int) ([]*Transaction, error) {
	lm.mu.Lock()
	defer lm.mu.Unlock()

	transactions, err := lm.store.LoadTransactions()
	if err != nil {
		return nil, err
	}
	if n > len(transactions) {
		n = len(transactions)
	}
	if n < 0 {
		n = 0
	}
	recent := make([]*Transaction, 0, n)
	for i := len(transactions) - 1; i >= len(transactions)-n; i-- {
		recent = append(recent, transactions[i])
	}
	return recent, nil
}

// ------------------ Statistics ------------------

// GetStatistics derives the aggregate counts; nothing here is stored.
func (lm *LibraryManager) GetStatistics() (*Statistics, error) {
	lm.mu.Lock()
	defer lm.mu.Unlock()

	books, err := lm.store.LoadBooks()
	if err != nil {
		return nil, err
	}
	users, err := lm.store.LoadUsers()
	if err != nil {
		return nil, err
	}
	transactions, err := lm.store.LoadTransactions()
	if err != nil {
		return nil, err
	}

	stats := &Statistics{
		TotalBooks:        len(books),
		TotalUsers:        len(users),
		TotalTransactions: len(transactions),
	}
	for _, b := range books {
		stats.TotalCopies += b.Quantity
		stats.AvailableCopies += b.AvailableCopies
		stats.BorrowedCopies += b.BorrowedCount()
	}
	for _, u := range users {
		if u.IsActive {
			stats.ActiveUsers++
		}
	}
	return stats, nil
}

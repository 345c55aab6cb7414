package library

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

// Record delimiters. One record per line, fields comma-separated; the
// borrowed-ISBN list inside a user record is semicolon-separated.
const (
	fieldDelimiter = ","
	listDelimiter  = ";"
)

// ID prefixes and zero-pad widths.
const (
	userIDPrefix        = "USR"
	userIDWidth         = 4
	transactionIDPrefix = "TXN"
	transactionIDWidth  = 6
)

// Store persists the three record collections as whole-file snapshots under
// a single data directory. There are no incremental writes: every save
// replaces the entire file.
type Store struct {
	booksFile        string
	usersFile        string
	transactionsFile string
}

// NewStore prepares a store rooted at dataDir, creating the directory so
// first-run succeeds.
func NewStore(dataDir string) (*Store, error) {
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return nil, fmt.Errorf("create data dir: %w", err)
	}
	return &Store{
		booksFile:        filepath.Join(dataDir, "books.txt"),
		usersFile:        filepath.Join(dataDir, "users.txt"),
		transactionsFile: filepath.Join(dataDir, "transactions.txt"),
	}, nil
}

// readLines loads a snapshot file and returns its non-blank lines. A missing
// file is an empty collection, not an error.
func readLines(path string) ([]string, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", filepath.Base(path), err)
	}
	var lines []string
	for _, line := range strings.Split(string(data), "\n") {
		if strings.TrimSpace(line) != "" {
			lines = append(lines, line)
		}
	}
	return lines, nil
}

func writeLines(path string, lines []string) error {
	content := strings.Join(lines, "\n") + "\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		return fmt.Errorf("write %s: %w", filepath.Base(path), err)
	}
	return nil
}

// ---------------------------------------------------------------------------
// Books
// ---------------------------------------------------------------------------

// LoadBooks reads the full book collection. Records with too few fields are
// skipped; a record written before availableCopies existed falls back to
// availableCopies = quantity so legacy files keep loading.
func (s *Store) LoadBooks() ([]*Book, error) {
	lines, err := readLines(s.booksFile)
	if err != nil {
		return nil, err
	}
	var books []*Book
	for _, line := range lines {
		parts := strings.Split(line, fieldDelimiter)
		if len(parts) < 4 {
			continue
		}
		quantity := parseIntOr(strings.TrimSpace(parts[3]), 0)
		available := quantity
		if len(parts) > 4 {
			available = parseIntOr(strings.TrimSpace(parts[4]), quantity)
		}
		books = append(books, &Book{
			ISBN:            strings.TrimSpace(parts[0]),
			Title:           strings.TrimSpace(parts[1]),
			Author:          strings.TrimSpace(parts[2]),
			Quantity:        quantity,
			AvailableCopies: available,
		})
	}
	return books, nil
}

// SaveBooks replaces the book snapshot.
func (s *Store) SaveBooks(books []*Book) error {
	lines := make([]string, 0, len(books))
	for _, b := range books {
		lines = append(lines, strings.Join([]string{
			b.ISBN, b.Title, b.Author,
			strconv.Itoa(b.Quantity), strconv.Itoa(b.AvailableCopies),
		}, fieldDelimiter))
	}
	return writeLines(s.booksFile, lines)
}

// ---------------------------------------------------------------------------
// Users
// ---------------------------------------------------------------------------

// LoadUsers reads the full user collection. A record without the trailing
// active flag loads as active.
func (s *Store) LoadUsers() ([]*User, error) {
	lines, err := readLines(s.usersFile)
	if err != nil {
		return nil, err
	}
	var users []*User
	for _, line := range lines {
		parts := strings.Split(line, fieldDelimiter)
		if len(parts) < 7 {
			continue
		}
		var borrowed []string
		for _, isbn := range strings.Split(strings.TrimSpace(parts[6]), listDelimiter) {
			if isbn != "" {
				borrowed = append(borrowed, isbn)
			}
		}
		active := true
		if len(parts) > 7 {
			active = strings.TrimSpace(parts[7]) == "1"
		}
		users = append(users, &User{
			UserID:        strings.TrimSpace(parts[0]),
			Username:      strings.TrimSpace(parts[1]),
			PasswordHash:  strings.TrimSpace(parts[2]),
			FullName:      strings.TrimSpace(parts[3]),
			Email:         strings.TrimSpace(parts[4]),
			Phone:         strings.TrimSpace(parts[5]),
			BorrowedISBNs: borrowed,
			IsActive:      active,
		})
	}
	return users, nil
}

// SaveUsers replaces the user snapshot.
func (s *Store) SaveUsers(users []*User) error {
	lines := make([]string, 0, len(users))
	for _, u := range users {
		active := "0"
		if u.IsActive {
			active = "1"
		}
		lines = append(lines, strings.Join([]string{
			u.UserID, u.Username, u.PasswordHash, u.FullName, u.Email, u.Phone,
			strings.Join(u.BorrowedISBNs, listDelimiter), active,
		}, fieldDelimiter))
	}
	return writeLines(s.usersFile, lines)
}

// ---------------------------------------------------------------------------
// Transactions
// ---------------------------------------------------------------------------

// LoadTransactions reads the full ledger.
func (s *Store) LoadTransactions() ([]*Transaction, error) {
	lines, err := readLines(s.transactionsFile)
	if err != nil {
		return nil, err
	}
	var transactions []*Transaction
	for _, line := range lines {
		parts := strings.Split(line, fieldDelimiter)
		if len(parts) < 6 {
			continue
		}
		timestamp := time.Now().UTC().Format(time.RFC3339)
		if len(parts) > 6 && strings.TrimSpace(parts[6]) != "" {
			timestamp = strings.TrimSpace(parts[6])
		}
		transactions = append(transactions, &Transaction{
			TransactionID: strings.TrimSpace(parts[0]),
			Type:          strings.TrimSpace(parts[1]),
			UserID:        strings.TrimSpace(parts[2]),
			UserName:      strings.TrimSpace(parts[3]),
			ISBN:          strings.TrimSpace(parts[4]),
			BookTitle:     strings.TrimSpace(parts[5]),
			Timestamp:     timestamp,
		})
	}
	return transactions, nil
}

// SaveTransactions replaces the ledger snapshot.
func (s *Store) SaveTransactions(transactions []*Transaction) error {
	lines := make([]string, 0, len(transactions))
	for _, t := range transactions {
		lines = append(lines, strings.Join([]string{
			t.TransactionID, t.Type, t.UserID, t.UserName, t.ISBN, t.BookTitle, t.Timestamp,
		}, fieldDelimiter))
	}
	return writeLines(s.transactionsFile, lines)
}

// ---------------------------------------------------------------------------
// Identifier allocation
// ---------------------------------------------------------------------------

// NextUserID scans existing user IDs for the highest USR suffix and returns
// max+1, zero-padded. Malformed suffixes count as 0.
func (s *Store) NextUserID() (string, error) {
	users, err := s.LoadUsers()
	if err != nil {
		return "", err
	}
	max := 0
	for _, u := range users {
		if n := parseIntOr(strings.TrimPrefix(u.UserID, userIDPrefix), 0); n > max {
			max = n
		}
	}
	return fmt.Sprintf("%s%0*d", userIDPrefix, userIDWidth, max+1), nil
}

// NextTransactionID is the TXN counterpart of NextUserID.
func (s *Store) NextTransactionID() (string, error) {
	transactions, err := s.LoadTransactions()
	if err != nil {
		return "", err
	}
	max := 0
	for _, t := range transactions {
		if n := parseIntOr(strings.TrimPrefix(t.TransactionID, transactionIDPrefix), 0); n > max {
			max = n
		}
	}
	return fmt.Sprintf("%s%0*d", transactionIDPrefix, transactionIDWidth, max+1), nil
}

func parseIntOr(s string, fallback int) int {
	n, err := strconv.Atoi(s)
	if err != nil {
		return fallback
	}
	return n
}

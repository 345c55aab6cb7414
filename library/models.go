package library

// MaxBorrowLimit caps how many books a single user may hold at once.
const MaxBorrowLimit = 5

// Transaction types recorded in the ledger.
const (
	TransactionBorrow = "BORROW"
	TransactionReturn = "RETURN"
)

// Book represents one catalog entry. Quantity is the total number of copies
// owned; AvailableCopies is how many sit on the shelf right now. The number
// of outstanding loans is Quantity - AvailableCopies and is never stored.
type Book struct {
	ISBN            string `json:"isbn"`
	Title           string `json:"title"`
	Author          string `json:"author"`
	Quantity        int    `json:"quantity"`
	AvailableCopies int    `json:"availableCopies"`
}

// BorrowedCount reports how many copies of this book are currently on loan.
func (b *Book) BorrowedCount() int { return b.Quantity - b.AvailableCopies }

// User represents a registered patron.
type User struct {
	UserID        string   `json:"userID"`
	Username      string   `json:"username"`
	PasswordHash  string   `json:"-"` // Don't serialize password hash
	FullName      string   `json:"fullName"`
	Email         string   `json:"email"`
	Phone         string   `json:"phone"`
	BorrowedISBNs []string `json:"borrowedISBNs"`
	IsActive      bool     `json:"isActive"`
}

// HasBorrowed reports whether the user currently holds the given ISBN.
func (u *User) HasBorrowed(isbn string) bool {
	for _, b := range u.BorrowedISBNs {
		if b == isbn {
			return true
		}
	}
	return false
}

// Transaction is one append-only ledger entry. UserName and BookTitle are
// denormalized snapshots taken at transaction time so history keeps
// displaying correctly even after the book or user record changes.
type Transaction struct {
	TransactionID string `json:"transactionID"`
	Type          string `json:"type"`
	UserID        string `json:"userID"`
	UserName      string `json:"userName"`
	ISBN          string `json:"isbn"`
	BookTitle     string `json:"bookTitle"`
	Timestamp     string `json:"timestamp"`
}

// Statistics aggregates derived counts over the three collections.
type Statistics struct {
	TotalBooks        int `json:"totalBooks"`
	TotalCopies       int `json:"totalCopies"`
	AvailableCopies   int `json:"availableCopies"`
	BorrowedCopies    int `json:"borrowedCopies"`
	TotalUsers        int `json:"totalUsers"`
	ActiveUsers       int `json:"activeUsers"`
	TotalTransactions int `json:"totalTransactions"`
}

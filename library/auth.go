package library

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"golang.org/x/crypto/bcrypt"
)

// Caller roles carried inside tokens.
const (
	RoleAdmin = "admin"
	RoleUser  = "user"
)

// AdminID is the fixed identifier of the built-in administrator account.
const AdminID = "ADMIN001"

// Claims is the token payload: who the caller is and which role they hold.
type Claims struct {
	UserID   string `json:"userID"`
	Username string `json:"username"`
	Role     string `json:"role"`
	jwt.RegisteredClaims
}

// Session is what a successful login yields.
type Session struct {
	Token         string `json:"token"`
	UserID        string `json:"userID"`
	Username      string `json:"username"`
	FullName      string `json:"fullName"`
	Email         string `json:"email,omitempty"`
	Phone         string `json:"phone,omitempty"`
	BorrowedCount int    `json:"borrowedCount"`
	Role          string `json:"role"`
}

// AuthManager verifies credentials and issues/verifies signed tokens. The
// single admin account lives in configuration, not in the user roster.
type AuthManager struct {
	lib           *LibraryManager
	secret        []byte
	adminUsername string
	adminPassword string
	tokenTTL      time.Duration
}

// NewAuthManager wires authentication on top of the library manager.
func NewAuthManager(lib *LibraryManager, secret, adminUsername, adminPassword string, tokenTTL time.Duration) *AuthManager {
	if tokenTTL == 0 {
		tokenTTL = 24 * time.Hour
	}
	return &AuthManager{
		lib:           lib,
		secret:        []byte(secret),
		adminUsername: adminUsername,
		adminPassword: adminPassword,
		tokenTTL:      tokenTTL,
	}
}

// LoginAdmin checks the fixed admin credentials.
func (am *AuthManager) LoginAdmin(username, password string) (*Session, error) {
	if username != am.adminUsername || password != am.adminPassword {
		return nil, failf(ErrInvalidArgument, "Invalid admin credentials")
	}
	token, err := am.IssueToken(AdminID, am.adminUsername, RoleAdmin)
	if err != nil {
		return nil, err
	}
	return &Session{
		Token:    token,
		UserID:   AdminID,
		Username: am.adminUsername,
		FullName: "Administrator",
		Role:     RoleAdmin,
	}, nil
}

// LoginUser verifies a patron's password against the stored bcrypt hash.
// Inactive accounts cannot log in.
func (am *AuthManager) LoginUser(username, password string) (*Session, error) {
	user, err := am.lib.GetUserByUsername(username)
	if err != nil {
		return nil, err
	}
	if !user.IsActive {
		return nil, failf(ErrConflictState, "Account is inactive")
	}
	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)) != nil {
		return nil, failf(ErrInvalidArgument, "Invalid password")
	}
	token, err := am.IssueToken(user.UserID, user.Username, RoleUser)
	if err != nil {
		return nil, err
	}
	return &Session{
		Token:         token,
		UserID:        user.UserID,
		Username:      user.Username,
		FullName:      user.FullName,
		Email:         user.Email,
		Phone:         user.Phone,
		BorrowedCount: len(user.BorrowedISBNs),
		Role:          RoleUser,
	}, nil
}

// IssueToken signs an HS256 token for the given identity.
func (am *AuthManager) IssueToken(userID, username, role string) (string, error) {
	now := time.Now()
	claims := &Claims{
		UserID:   userID,
		Username: username,
		Role:     role,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(am.tokenTTL)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(am.secret)
}

// VerifyToken parses and validates a bearer token and returns its claims.
func (am *AuthManager) VerifyToken(tokenString string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return am.secret, nil
	})
	if err != nil || !token.Valid {
		return nil, failf(ErrInvalidArgument, "Invalid or expired token")
	}
	return claims, nil
}

// IsUsernameAvailable reports whether no account holds the given username.
func (am *AuthManager) IsUsernameAvailable(username string) (bool, error) {
	_, err := am.lib.GetUserByUsername(username)
	if err == nil {
		return false, nil
	}
	if errors.Is(err, ErrNotFound) {
		return true, nil
	}
	return false, err
}

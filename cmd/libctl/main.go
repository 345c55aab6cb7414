// libctl is the operator CLI: seed the catalog, create accounts, and
// inspect the collections without going through the HTTP API.
package main

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"library-management/library"
)

var dataDir string

func main() {
	root := &cobra.Command{
		Use:           "libctl",
		Short:         "Operator tooling for the library management service",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&dataDir, "data", "data", "data directory holding the flat-file collections")

	root.AddCommand(importBooksCmd(), addUserCmd(), listBooksCmd(), statsCmd())

	if err := root.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func openManager() (*library.LibraryManager, error) {
	return library.NewLibraryManager(dataDir)
}

// readPassword securely reads a password with masking.
func readPassword(prompt string) (string, error) {
	fmt.Print(prompt)
	bytePassword, err := term.ReadPassword(int(syscall.Stdin))
	if err != nil {
		return "", err
	}
	fmt.Println()
	return strings.TrimSpace(string(bytePassword)), nil
}

func importBooksCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "import-books <file>",
		Short: "Bulk-load books from a delimited file (isbn,title,author,quantity per line)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			manager, err := openManager()
			if err != nil {
				return err
			}

			f, err := os.Open(args[0])
			if err != nil {
				return err
			}
			defer f.Close()

			successCount := 0
			errorCount := 0
			scanner := bufio.NewScanner(f)
			for scanner.Scan() {
				line := strings.TrimSpace(scanner.Text())
				if line == "" || strings.HasPrefix(line, "#") {
					continue
				}
				parts := strings.Split(line, ",")
				if len(parts) < 4 {
					fmt.Printf("Skipping malformed line: %s\n", line)
					errorCount++
					continue
				}
				quantity, err := strconv.Atoi(strings.TrimSpace(parts[3]))
				if err != nil {
					fmt.Printf("Skipping line with bad quantity: %s\n", line)
					errorCount++
					continue
				}
				isbn := strings.TrimSpace(parts[0])
				title := strings.TrimSpace(parts[1])
				author := strings.TrimSpace(parts[2])

				fmt.Printf("Importing: %s by %s... ", title, author)
				if _, err := manager.AddBook(isbn, title, author, quantity); err != nil {
					fmt.Printf("ERROR - %v\n", err)
					errorCount++
					continue
				}
				fmt.Printf("SUCCESS (ISBN: %s)\n", isbn)
				successCount++
			}
			if err := scanner.Err(); err != nil {
				return err
			}

			fmt.Printf("\nImport complete!\n")
			fmt.Printf("Successfully imported: %d books\n", successCount)
			fmt.Printf("Errors: %d\n", errorCount)
			return nil
		},
	}
}

func addUserCmd() *cobra.Command {
	var fullName, email, phone string
	cmd := &cobra.Command{
		Use:   "add-user <username>",
		Short: "Register a user account with a masked password prompt",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			manager, err := openManager()
			if err != nil {
				return err
			}
			username := args[0]

			password, err := readPassword(fmt.Sprintf("Enter password for %s: ", username))
			if err != nil {
				return fmt.Errorf("failed to read password: %w", err)
			}
			if password == "" {
				return fmt.Errorf("password cannot be empty")
			}

			user, err := manager.RegisterUser(username, password, fullName, email, phone)
			if err != nil {
				return err
			}
			fmt.Printf("Added user '%s' with ID %s\n", username, user.UserID)
			return nil
		},
	}
	cmd.Flags().StringVar(&fullName, "full-name", "", "full display name")
	cmd.Flags().StringVar(&email, "email", "", "email address")
	cmd.Flags().StringVar(&phone, "phone", "", "phone number")
	return cmd
}

func listBooksCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list-books",
		Short: "Print the catalog",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			manager, err := openManager()
			if err != nil {
				return err
			}
			books, err := manager.GetAllBooks()
			if err != nil {
				return err
			}
			if len(books) == 0 {
				fmt.Println("No books in library.")
				return nil
			}
			fmt.Printf("%-15s %-40s %-25s %-8s %-9s\n", "ISBN", "Title", "Author", "Owned", "Available")
			fmt.Println(strings.Repeat("-", 100))
			for _, b := range books {
				fmt.Printf("%-15s %-40s %-25s %-8d %-9d\n",
					b.ISBN, truncateString(b.Title, 40), truncateString(b.Author, 25), b.Quantity, b.AvailableCopies)
			}
			return nil
		},
	}
}

func statsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Print the derived statistics aggregate",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			manager, err := openManager()
			if err != nil {
				return err
			}
			stats, err := manager.GetStatistics()
			if err != nil {
				return err
			}
			fmt.Printf("Total books:        %d\n", stats.TotalBooks)
			fmt.Printf("Total copies:       %d\n", stats.TotalCopies)
			fmt.Printf("Available copies:   %d\n", stats.AvailableCopies)
			fmt.Printf("Borrowed copies:    %d\n", stats.BorrowedCopies)
			fmt.Printf("Total users:        %d\n", stats.TotalUsers)
			fmt.Printf("Active users:       %d\n", stats.ActiveUsers)
			fmt.Printf("Total transactions: %d\n", stats.TotalTransactions)
			return nil
		},
	}
}

func truncateString(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	if maxLen <= 3 {
		return s[:maxLen]
	}
	return s[:maxLen-3] + "..."
}

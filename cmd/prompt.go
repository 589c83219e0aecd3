package cmd

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"strings"
	"syscall"

	"github.com/illarion/ringbearer/internal/config"
	"github.com/illarion/ringbearer/internal/crypto"
	"golang.org/x/term"
)

// ReadPassword reads a password from the terminal without echoing
func ReadPassword(prompt string) ([]byte, error) {
	fmt.Print(prompt)

	// Read password without echo
	password, err := term.ReadPassword(int(syscall.Stdin))
	fmt.Println() // New line after password

	if err != nil {
		return nil, fmt.Errorf("failed to read password: %w", err)
	}

	return password, nil
}

// ReadPasswordConfirm reads a password twice and ensures they match
func ReadPasswordConfirm(prompt string) ([]byte, error) {
	password1, err := ReadPassword(prompt)
	if err != nil {
		return nil, err
	}
	defer crypto.ClearBytes(password1)

	password2, err := ReadPassword("Confirm: ")
	if err != nil {
		return nil, err
	}
	defer crypto.ClearBytes(password2)

	if !crypto.ConstantTimeCompare(password1, password2) {
		return nil, errors.New("passwords do not match")
	}
	if len(strings.TrimSpace(string(password1))) == 0 {
		return nil, errors.New("master key cannot be empty")
	}

	// Return a copy of the password
	result := make([]byte, len(password1))
	copy(result, password1)
	return result, nil
}

// GetPasswordFromEnv reads the master key from RINGBEARER_PASSWORD
func GetPasswordFromEnv() []byte {
	password := os.Getenv(config.EnvPassword)
	if password == "" {
		return nil
	}
	// Return a copy to avoid issues when clearing the bytes
	result := make([]byte, len(password))
	copy(result, []byte(password))
	return result
}

// Confirm asks a yes/no question, defaulting to no.
// Without a terminal on stdin the answer is no.
func Confirm(question string) bool {
	if !term.IsTerminal(int(syscall.Stdin)) {
		return false
	}
	fmt.Printf("%s [y/N]: ", question)
	line, err := bufio.NewReader(os.Stdin).ReadString('\n')
	if err != nil {
		return false
	}
	answer := strings.ToLower(strings.TrimSpace(line))
	return answer == "y" || answer == "yes"
}

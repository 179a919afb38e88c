package auth

import (
	"errors"
	"fmt"
	"os"

	"golang.org/x/term"
)

// ttyPath is the controlling terminal. Standard input carries the entries,
// so passwords are read from here instead.
var ttyPath = "/dev/tty"

// ErrEmptyPassword is returned when the user enters an empty password.
var ErrEmptyPassword = errors.New("password cannot be empty")

// ErrNoTerminal is returned when there is no terminal to prompt on.
var ErrNoTerminal = errors.New("no terminal available for password prompt")

// PromptPassword prompts the user for a password (hidden input) on the
// controlling terminal.
func PromptPassword(prompt string) (string, error) {
	tty, err := os.OpenFile(ttyPath, os.O_RDWR, 0)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrNoTerminal, err)
	}
	defer tty.Close()

	fd := int(tty.Fd())
	if !term.IsTerminal(fd) {
		return "", ErrNoTerminal
	}

	fmt.Fprint(tty, prompt)
	password, err := term.ReadPassword(fd)
	fmt.Fprintln(tty) // Add newline after hidden input
	if err != nil {
		return "", fmt.Errorf("failed to read password: %w", err)
	}
	if len(password) == 0 {
		return "", ErrEmptyPassword
	}
	return string(password), nil
}

package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/desertthunder/faves/internal/models"
	"github.com/desertthunder/faves/internal/shared"
	"github.com/urfave/cli/v3"
	"golang.org/x/term"
)

// readPassword is a test seam for term.ReadPassword.
var readPassword = term.ReadPassword

// promptText prints prompt and reads one trimmed line of input.
func (r *Runner) promptText(prompt string) (string, error) {
	if _, err := fmt.Fprint(r.prompt, prompt); err != nil {
		return "", err
	}
	line, err := r.input.ReadString('\n')
	if err != nil && !(errors.Is(err, io.EOF) && len(line) > 0) {
		return "", err
	}
	return strings.TrimSpace(line), nil
}

// promptPassword prints prompt and reads a password from the terminal without echo.
func (r *Runner) promptPassword(prompt string) (string, error) {
	if _, err := fmt.Fprint(r.prompt, prompt); err != nil {
		return "", err
	}
	pw, err := readPassword(int(os.Stdin.Fd()))
	fmt.Fprintln(r.prompt)
	if err != nil {
		return "", err
	}
	return string(pw), nil
}

// credentials reads --username/--password, prompting for whichever is missing.
func (r *Runner) credentials(cmd *cli.Command) (models.Credentials, error) {
	creds := models.Credentials{
		Username: cmd.String("username"),
		Password: cmd.String("password"),
	}

	var err error
	if creds.Username == "" {
		if creds.Username, err = r.promptText("Username: "); err != nil {
			return creds, fmt.Errorf("failed to read username: %w", err)
		}
	}
	if creds.Password == "" {
		if creds.Password, err = r.promptPassword("Password: "); err != nil {
			return creds, fmt.Errorf("failed to read password: %w", err)
		}
	}

	if !creds.Complete() {
		return creds, fmt.Errorf("%w: username and password must not be empty", shared.ErrMissingCredentials)
	}
	return creds, nil
}

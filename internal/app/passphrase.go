package app

import (
	"errors"
	"fmt"
	"os"

	"golang.org/x/term"
)

// PassphraseEnv holds the encryption passphrase for non-interactive use
const PassphraseEnv = "TASKDECK_PASSPHRASE"

// ErrNoPassphrase is returned when encryption is on but no passphrase can be read
var ErrNoPassphrase = errors.New("encryption enabled: set " + PassphraseEnv + " or run in a terminal")

// PassphraseFromEnvOrPrompt reads TASKDECK_PASSPHRASE, or prompts on the terminal
func PassphraseFromEnvOrPrompt() (string, error) {
	if pass := os.Getenv(PassphraseEnv); pass != "" {
		return pass, nil
	}

	fd := int(os.Stdin.Fd())
	if !term.IsTerminal(fd) {
		return "", ErrNoPassphrase
	}

	fmt.Fprint(os.Stderr, "Passphrase: ")
	pass, err := term.ReadPassword(fd)
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return "", err
	}
	if len(pass) == 0 {
		return "", ErrNoPassphrase
	}
	return string(pass), nil
}

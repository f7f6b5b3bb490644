// Package prompt provides interactive terminal prompts for CLI commands.
package prompt

import (
	"errors"
	"fmt"

	"github.com/manifoldco/promptui"
)

// ErrAborted indicates the user aborted the prompt with Ctrl+C.
var ErrAborted = errors.New("aborted")

// ErrPasswordMismatch indicates passwords don't match.
var ErrPasswordMismatch = errors.New("passwords do not match")

// wrapError converts promptui errors into package errors.
func wrapError(err error) error {
	if errors.Is(err, promptui.ErrInterrupt) {
		return ErrAborted
	}
	return err
}

// Password prompts for a password input with masking.
func Password(label string) (string, error) {
	prompt := promptui.Prompt{
		Label: label,
		Mask:  '*',
	}

	result, err := prompt.Run()
	return result, wrapError(err)
}

// PasswordWithValidation prompts for a password with minimum length validation.
func PasswordWithValidation(label string, minLength int) (string, error) {
	prompt := promptui.Prompt{
		Label: label,
		Mask:  '*',
		Validate: func(input string) error {
			if len(input) < minLength {
				return fmt.Errorf("password must be at least %d characters", minLength)
			}
			return nil
		},
	}

	result, err := prompt.Run()
	return result, wrapError(err)
}

// PasswordWithConfirmation prompts for a password and confirmation.
// Returns ErrPasswordMismatch if they differ.
func PasswordWithConfirmation(label, confirmLabel string, minLength int) (string, error) {
	password, err := PasswordWithValidation(label, minLength)
	if err != nil {
		return "", err
	}

	confirm, err := Password(confirmLabel)
	if err != nil {
		return "", err
	}

	if password != confirm {
		return "", ErrPasswordMismatch
	}

	return password, nil
}

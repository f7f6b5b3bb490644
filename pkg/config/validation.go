package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
)

// Validate checks the configuration for errors.
//
// Struct tags drive the field-level checks; the local credential hashes
// and session secret get explicit messages because missing secrets are
// the most common startup failure and "Field validation for
// 'AdminPasswordHash' failed on the 'required' tag" does not tell an
// operator which environment variable to set.
func Validate(cfg *Config) error {
	if err := validateSecrets(cfg); err != nil {
		return err
	}

	validate := validator.New()
	if err := validate.Struct(cfg); err != nil {
		var invalid *validator.InvalidValidationError
		if errors.As(err, &invalid) {
			return fmt.Errorf("invalid configuration structure: %w", err)
		}

		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			msgs := make([]string, 0, len(verrs))
			for _, fe := range verrs {
				msgs = append(msgs, fmt.Sprintf("%s: failed %q check", fe.Namespace(), fe.Tag()))
			}
			return fmt.Errorf("invalid configuration: %s", strings.Join(msgs, "; "))
		}
		return err
	}

	return nil
}

// validateSecrets reports missing required secrets with the environment
// variable names an operator needs.
func validateSecrets(cfg *Config) error {
	var missing []string
	if cfg.Auth.Local.AdminPasswordHash == "" {
		missing = append(missing, "GATEWARDEN_AUTH_LOCAL_ADMIN_PASSWORD_HASH")
	}
	if cfg.Auth.Local.ModeratorPasswordHash == "" {
		missing = append(missing, "GATEWARDEN_AUTH_LOCAL_MODERATOR_PASSWORD_HASH")
	}
	if cfg.Auth.Local.ViewerPasswordHash == "" {
		missing = append(missing, "GATEWARDEN_AUTH_LOCAL_VIEWER_PASSWORD_HASH")
	}
	if len(missing) > 0 {
		return fmt.Errorf("missing required local credential hashes, set: %s\n\n"+
			"Generate a hash with:\n"+
			"  gatewarden hash",
			strings.Join(missing, ", "))
	}

	if cfg.Auth.Session.Secret == "" {
		return errors.New("missing session signing secret, set GATEWARDEN_AUTH_SESSION_SECRET (at least 32 bytes)")
	}

	return nil
}

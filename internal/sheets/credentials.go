package sheets

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/rs/zerolog/log"
	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"
)

var scopes = []string{sheets.SpreadsheetsScope, sheets.DriveScope}

type serviceAccountKey struct {
	Type        string `json:"type"`
	ClientEmail string `json:"client_email"`
	PrivateKey  string `json:"private_key"`
}

// credentialOptions resolves exactly one credential source. Inline JSON is
// consulted first; the file is only read when no inline JSON is configured.
func credentialOptions(cfg Config) ([]option.ClientOption, error) {
	if cfg.CredentialsJSON != "" {
		if err := validateKey([]byte(cfg.CredentialsJSON)); err != nil {
			return nil, &AuthenticationError{Reason: "malformed GOOGLE_CREDENTIALS", Err: err}
		}
		log.Debug().Str("source", "env").Msg("Using inline service account credentials")
		return []option.ClientOption{
			option.WithCredentialsJSON([]byte(cfg.CredentialsJSON)),
			option.WithScopes(scopes...),
		}, nil
	}

	if cfg.CredentialsFile == "" {
		return nil, &AuthenticationError{Reason: "no credential source configured"}
	}

	data, err := os.ReadFile(cfg.CredentialsFile)
	if err != nil {
		return nil, &AuthenticationError{
			Reason: fmt.Sprintf("GOOGLE_CREDENTIALS not set and credentials file %q unreadable", cfg.CredentialsFile),
			Err:    err,
		}
	}
	if err := validateKey(data); err != nil {
		return nil, &AuthenticationError{Reason: fmt.Sprintf("malformed credentials file %q", cfg.CredentialsFile), Err: err}
	}

	log.Debug().Str("source", "file").Str("path", cfg.CredentialsFile).Msg("Using service account credentials file")
	return []option.ClientOption{
		option.WithCredentialsFile(cfg.CredentialsFile),
		option.WithScopes(scopes...),
	}, nil
}

func validateKey(data []byte) error {
	var key serviceAccountKey
	if err := json.Unmarshal(data, &key); err != nil {
		return err
	}
	if key.Type != "service_account" {
		return fmt.Errorf("credential type %q is not service_account", key.Type)
	}
	if key.ClientEmail == "" || key.PrivateKey == "" {
		return errors.New("client_email and private_key are required")
	}
	return nil
}

package sheets

import "ap_business_tools/internal/retry"

// Config identifies the spreadsheet and how to authenticate against it.
// It is built once at startup and handed to NewGateway.
type Config struct {
	SpreadsheetID string

	// CredentialsJSON is an inline service-account key. When set it wins over
	// CredentialsFile.
	CredentialsJSON string
	CredentialsFile string

	// Endpoint overrides the Sheets API base URL.
	Endpoint string

	// StrictSchema turns a header mismatch on an existing tab into a
	// SchemaMismatchError instead of a logged warning.
	StrictSchema bool

	// Retry applies to idempotent calls only. Appends and tab creation make
	// exactly one attempt.
	Retry retry.Config
}

package sheets

// Config holds connection settings for the Google Sheets values API.
type Config struct {
	// BaseURL is the API root. Override for testing.
	BaseURL string `mapstructure:"base_url" default:"https://sheets.googleapis.com"`
	// SpreadsheetID is the default spreadsheet for sync tabs and audit tabs.
	SpreadsheetID string `mapstructure:"spreadsheet_id" default:""`
	// AccessToken is the OAuth bearer token. Token refresh happens outside
	// this process; cron wrappers inject a fresh token per run.
	AccessToken string `mapstructure:"access_token" default:""`
	// TimeoutSeconds is the per-request HTTP timeout.
	TimeoutSeconds int `mapstructure:"timeout_seconds" default:"120"`
	// AuditDetailsTab and AuditSummaryTab receive run audit rows when set.
	AuditDetailsTab string `mapstructure:"audit_details_tab" default:"change_details"`
	AuditSummaryTab string `mapstructure:"audit_summary_tab" default:"run_summary"`
}

package glide

// Config holds connection settings for the Glide Big Tables API.
type Config struct {
	// BaseURL is the API root. Override for testing.
	BaseURL string `mapstructure:"base_url" default:"https://api.glideapp.io"`
	// Token is the bearer token for API access.
	Token string `mapstructure:"token" default:""`
	// AppID identifies the Glide app owning the tables.
	AppID string `mapstructure:"app_id" default:""`
	// TimeoutSeconds is the per-request HTTP timeout.
	TimeoutSeconds int `mapstructure:"timeout_seconds" default:"180"`
	// MutationChunk caps how many mutations go into one mutateTables call.
	MutationChunk int `mapstructure:"mutation_chunk" default:"200"`
	// MaxInflight caps concurrent API calls across all sync units.
	MaxInflight int `mapstructure:"max_inflight" default:"4"`
}

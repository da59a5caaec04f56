package types

const (
	// DefaultRankingLimit is the number of entries ranking skills return when
	// the caller does not ask for a limit.
	DefaultRankingLimit = 10
	// MaxRankingLimit caps ranking skill limits.
	MaxRankingLimit = 100
	// DefaultDetailRecords is the page size of detail and enrichment skills.
	DefaultDetailRecords = 50
	// MaxDetailRecords caps detail and enrichment skills.
	MaxDetailRecords = 500
	// DefaultHistoryLimit is the page size of the history tool.
	DefaultHistoryLimit = 10
	// MaxHistoryLimit caps the history tool page size.
	MaxHistoryLimit = 100
)

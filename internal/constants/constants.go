// Package constants provides shared constants used across the codebase.
package constants

// Upload constants
const (
	// MaxUploadSize is the largest image accepted by the identify endpoint (32 MB)
	MaxUploadSize = 32 << 20

	// MaxImageReadSize caps images read from disk by the CLI
	MaxImageReadSize = 64 << 20
)

// Vote endpoint constants
const (
	// MaxVoteCandidates is the maximum candidate list length accepted by the vote endpoint
	MaxVoteCandidates = 10000

	// MaxVoteBodySize caps a vote request body (1 MB)
	MaxVoteBodySize = 1 << 20
)

// Directory constants
const (
	// MaxPeopleResults caps person listings and name searches
	MaxPeopleResults = 1000
)

// Server constants
const (
	// DefaultPort is the default HTTP port for the serve command
	DefaultPort = 8080

	// RequestTimeoutMinutes bounds one HTTP request including identification
	RequestTimeoutMinutes = 2
)

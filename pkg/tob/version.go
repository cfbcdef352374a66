package tob

// Version information for the tob module.
const (
	// Version is the current version of the tob module.
	Version = "1.0.0"

	// MinCompatibleVersion is the minimum version that is compatible with this version.
	MinCompatibleVersion = "1.0.0"
)

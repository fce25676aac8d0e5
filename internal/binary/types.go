package binary

import (
	"time"
)

// Tool identifies a downloadable tool.
type Tool string

const (
	// ToolButler is the itch.io distribution tool.
	ToolButler Tool = "butler"
)

// String returns the string representation of the tool.
func (t Tool) String() string {
	return string(t)
}

// VerificationMethod indicates how a download was verified
type VerificationMethod int

const (
	// VerificationNone indicates the archive was not verified
	VerificationNone VerificationMethod = iota
	// VerificationGPG indicates GPG signature verification was used
	VerificationGPG
	// VerificationSHA256 indicates SHA256 checksum verification was used
	VerificationSHA256
)

// String returns the string representation of the verification method
func (v VerificationMethod) String() string {
	switch v {
	case VerificationGPG:
		return "GPG"
	case VerificationSHA256:
		return "SHA256"
	case VerificationNone:
		return "None"
	default:
		return "Unknown"
	}
}

// Source says where to fetch a tool from.
type Source struct {
	Tool Tool
	// Channel is the broth channel, e.g. "linux-amd64".
	Channel string
	URL     string
	// SignatureURL and ChecksumURL are optional.
	SignatureURL string
	ChecksumURL  string
}

// FetchResult describes a completed fetch.
type FetchResult struct {
	Tool         Tool
	Path         string
	Verified     VerificationMethod
	DownloadTime time.Duration
}

// VerificationResult contains the outcome of a verification attempt
type VerificationResult struct {
	Method  VerificationMethod
	Success bool
	Error   error
}

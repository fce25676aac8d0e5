// Package binary fetches the distribution tool (butler) into the local tools
// directory before publishing.
//
// # Fetch Strategy
//
// The tool is published as a zip archive per host platform on the broth
// download service. Fetch downloads the archive with retries and
// exponential backoff, verifies it when a signature or checksum source is
// configured, unpacks every entry into the tools directory and marks the
// tool executable.
//
// # Verification
//
//  1. GPG signature (preferred). A detached signature checked against an
//     operator-provided keyring.
//  2. SHA256 checksum. A "<hex>  <name>" checksum file.
//  3. None. The head channel publishes neither, so an unverified fetch is
//     allowed and reported as such.
//
// # Architecture
//
//   - Manager: orchestrates download, verification and extraction
//   - Downloader: HTTP download with retry logic and an optional progress bar
//   - Verifier: GPG and SHA256 verification
//   - Extractor: zip extraction with path traversal checks
//   - Platform: broth channel and URL construction
package binary

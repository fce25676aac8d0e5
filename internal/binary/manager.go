package binary

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"time"
)

// Manager orchestrates download, verification and extraction of a tool into
// the tools directory.
type Manager struct {
	toolsDir   string
	hostOS     string
	downloader *Downloader
	verifier   *Verifier
	extractor  *Extractor
	logger     *slog.Logger
}

// Config holds configuration for the manager
type Config struct {
	// ToolsDir receives the archive and its extracted contents.
	ToolsDir string
	// HostOS is runtime.GOOS of the machine the tool will run on.
	HostOS string
	// KeyringPath enables GPG verification when signatures are available.
	KeyringPath string
	// Progress receives a download progress bar when non-nil.
	Progress io.Writer
	Logger   *slog.Logger
}

// NewManager creates a new manager
func NewManager(config Config) (*Manager, error) {
	if config.ToolsDir == "" {
		return nil, fmt.Errorf("ToolsDir is required")
	}
	if config.HostOS == "" {
		return nil, fmt.Errorf("HostOS is required")
	}

	toolsDir, err := filepath.Abs(config.ToolsDir)
	if err != nil {
		return nil, fmt.Errorf("resolve tools dir: %w", err)
	}

	logger := config.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	downloader := NewDownloader()
	if config.Progress != nil {
		downloader.WithProgress(config.Progress)
	}

	return &Manager{
		toolsDir:   toolsDir,
		hostOS:     config.HostOS,
		downloader: downloader,
		verifier:   NewVerifier(config.KeyringPath),
		extractor:  NewExtractor(),
		logger:     logger,
	}, nil
}

// ToolPath returns the filesystem path to tool inside the tools directory
func (m *Manager) ToolPath(tool Tool) string {
	return filepath.Join(m.toolsDir, ExecutableName(tool, m.hostOS))
}

// IsInstalled checks if tool is already present and executable
func (m *Manager) IsInstalled(tool Tool) (bool, error) {
	info, err := os.Stat(m.ToolPath(tool))
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, fmt.Errorf("stat tool: %w", err)
	}

	if !info.Mode().IsRegular() {
		return false, nil
	}

	if m.hostOS != "windows" && info.Mode().Perm()&0111 == 0 {
		return false, nil
	}

	return true, nil
}

// Fetch downloads src, verifies it and unpacks it into the tools directory.
// The archive is always fetched fresh: head builds change under the same URL.
func (m *Manager) Fetch(ctx context.Context, src Source) (_ *FetchResult, err error) {
	startTime := time.Now()

	lock, err := AcquireLock(ctx, m.toolsDir)
	if err != nil {
		return nil, err
	}
	defer func() {
		if rerr := lock.Release(); rerr != nil && err == nil {
			err = rerr
		}
	}()

	archivePath := filepath.Join(m.toolsDir, src.Tool.String()+".zip")
	m.logger.Info("downloading tool", "tool", src.Tool, "url", src.URL)
	if err := m.downloader.DownloadToFile(ctx, src.URL, archivePath); err != nil {
		return nil, fmt.Errorf("download %s: %w", src.Tool, err)
	}

	var signaturePath, checksumPath string
	if src.SignatureURL != "" {
		signaturePath = archivePath + ".sig"
		if err := m.downloader.DownloadToFile(ctx, src.SignatureURL, signaturePath); err != nil {
			return nil, fmt.Errorf("download signature: %w", err)
		}
	}
	if src.ChecksumURL != "" {
		checksumPath = archivePath + ".sha256"
		if err := m.downloader.DownloadToFile(ctx, src.ChecksumURL, checksumPath); err != nil {
			return nil, fmt.Errorf("download checksums: %w", err)
		}
	}

	verifyResult, err := m.verifier.VerifyFile(archivePath, signaturePath, checksumPath)
	if err != nil {
		return nil, fmt.Errorf("verify %s: %w", src.Tool, err)
	}
	if verifyResult.Method == VerificationNone {
		m.logger.Warn("tool archive not verified", "tool", src.Tool, "reason", "no signature or checksum source")
	}

	files, err := m.extractor.ExtractZip(archivePath, m.toolsDir)
	if err != nil {
		return nil, fmt.Errorf("extract %s: %w", src.Tool, err)
	}
	m.logger.Debug("extracted tool archive", "tool", src.Tool, "files", len(files))

	toolPath := m.ToolPath(src.Tool)
	if !fileExists(toolPath) {
		return nil, fmt.Errorf("%s not found in archive", ExecutableName(src.Tool, m.hostOS))
	}
	if err := SetExecutable(toolPath); err != nil {
		return nil, err
	}

	return &FetchResult{
		Tool:         src.Tool,
		Path:         toolPath,
		Verified:     verifyResult.Method,
		DownloadTime: time.Since(startTime),
	}, nil
}

package storage

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"go.uber.org/zap"
)

var unsafeFolderChars = regexp.MustCompile(`[^a-zA-Z0-9\-_]`)

// FolderManager manages the per-collection folders under the extract root,
// e.g. extract/expenses and extract/bills
type FolderManager struct {
	baseDir string
	logger  *zap.Logger
}

// NewFolderManager creates a new FolderManager
func NewFolderManager(baseDir string, logger *zap.Logger) *FolderManager {
	return &FolderManager{
		baseDir: baseDir,
		logger:  logger,
	}
}

// CreateFolder creates <baseDir>/<folder>/ and returns its path.
// Existing folders are left untouched.
func (m *FolderManager) CreateFolder(folder string) (string, error) {
	safeName := m.SanitizeFolderName(folder)
	if safeName == "" {
		return "", fmt.Errorf("cannot create folder: empty folder name")
	}

	folderPath := filepath.Join(m.baseDir, safeName)
	if err := os.MkdirAll(folderPath, 0755); err != nil {
		m.logger.Error("Failed to create folder",
			zap.String("folder", folder),
			zap.String("folder_path", folderPath),
			zap.Error(err))
		return "", fmt.Errorf("failed to create folder: %w", err)
	}

	m.logger.Debug("Folder ready",
		zap.String("folder", folder),
		zap.String("folder_path", folderPath))

	return folderPath, nil
}

// PrepareFolders creates every folder in one go; downloads assume they exist
func (m *FolderManager) PrepareFolders(folders ...string) error {
	for _, f := range folders {
		if _, err := m.CreateFolder(f); err != nil {
			return err
		}
	}
	return nil
}

// GetFolderPath returns the path for a folder without creating it
func (m *FolderManager) GetFolderPath(folder string) string {
	return filepath.Join(m.baseDir, m.SanitizeFolderName(folder))
}

// SanitizeFolderName returns a filesystem-safe version of the name.
// Keeps only alphanumerics, hyphens and underscores.
func (m *FolderManager) SanitizeFolderName(name string) string {
	name = strings.ReplaceAll(name, "..", "")
	return unsafeFolderChars.ReplaceAllString(name, "")
}

// SanitizeFileName makes a base filename safe to join under a folder.
// Path separators and dots become underscores so a name can neither escape
// its folder nor smuggle in a second extension.
func SanitizeFileName(name string) string {
	name = strings.TrimSpace(name)
	replacer := strings.NewReplacer("/", "_", "\\", "_", ".", "_", "\x00", "")
	name = replacer.Replace(name)
	if name == "" {
		return "unnamed"
	}
	return name
}

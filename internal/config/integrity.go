package config

import (
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/zeebo/blake3"
	"gopkg.in/yaml.v3"
)

// ChecksumManifest is the on-disk .checksums file guarding config integrity.
type ChecksumManifest struct {
	Version     int               `yaml:"version"`
	GeneratedAt string            `yaml:"generated_at"`
	Hashes      map[string]string `yaml:"hashes"`
}

// ComputeBlake3Hash computes the BLAKE3 hash of a file.
func ComputeBlake3Hash(filePath string) (string, error) {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return "", fmt.Errorf("failed to read file: %w", err)
	}

	hash := blake3.Sum256(data)
	return hex.EncodeToString(hash[:]), nil
}

// VerifyFileHash verifies a file against an expected BLAKE3 hash.
func VerifyFileHash(filePath, expectedHash string) error {
	actualHash, err := ComputeBlake3Hash(filePath)
	if err != nil {
		return fmt.Errorf("failed to compute hash: %w", err)
	}

	if actualHash != expectedHash {
		return fmt.Errorf("hash mismatch for %s: expected %s, got %s",
			filepath.Base(filePath), expectedHash, actualHash)
	}

	return nil
}

// Lock computes BLAKE3 hashes for the given config files and writes
// .checksums next to them, authorizing the current state.
func Lock(configDir string, files []string) error {
	manifest := ChecksumManifest{
		Version:     1,
		GeneratedAt: time.Now().UTC().Format(time.RFC3339),
		Hashes:      make(map[string]string),
	}

	for _, filename := range files {
		filePath := filepath.Join(configDir, filename)
		if _, err := os.Stat(filePath); os.IsNotExist(err) {
			continue // optional files
		}
		hash, err := ComputeBlake3Hash(filePath)
		if err != nil {
			return fmt.Errorf("failed to hash %s: %w", filename, err)
		}
		manifest.Hashes[filename] = hash
	}

	data, err := yaml.Marshal(manifest)
	if err != nil {
		return fmt.Errorf("failed to marshal checksums: %w", err)
	}

	// Restrictive permissions: the manifest holds the expected hashes.
	checksumPath := filepath.Join(configDir, ".checksums")
	if err := os.WriteFile(checksumPath, data, 0600); err != nil {
		return fmt.Errorf("failed to write checksums: %w", err)
	}
	return nil
}

// LoadChecksums reads the .checksums file from a config directory.
func LoadChecksums(configDir string) (*ChecksumManifest, error) {
	checksumPath := filepath.Join(configDir, ".checksums")

	data, err := os.ReadFile(checksumPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("checksums file not found (run 'sitekit config lock')")
		}
		return nil, fmt.Errorf("failed to read checksums: %w", err)
	}

	var manifest ChecksumManifest
	if err := yaml.Unmarshal(data, &manifest); err != nil {
		return nil, fmt.Errorf("failed to parse checksums: %w", err)
	}

	if manifest.Version != 1 {
		return nil, fmt.Errorf("unsupported checksums version: %d", manifest.Version)
	}

	return &manifest, nil
}

// Verify checks config files against their recorded checksums.
func Verify(configDir string, manifest *ChecksumManifest, files []string) error {
	for _, filename := range files {
		filePath := filepath.Join(configDir, filename)

		if _, err := os.Stat(filePath); os.IsNotExist(err) {
			if _, hasHash := manifest.Hashes[filename]; hasHash {
				return fmt.Errorf("config file %s is in checksums but missing from disk", filename)
			}
			continue
		}

		expectedHash, ok := manifest.Hashes[filename]
		if !ok {
			return fmt.Errorf("config file %s has no hash in checksums (run 'sitekit config lock')", filename)
		}

		if err := VerifyFileHash(filePath, expectedHash); err != nil {
			return fmt.Errorf("config integrity check failed: %w\n"+
				"If you edited this file intentionally, run: sitekit config lock", err)
		}
	}

	return nil
}

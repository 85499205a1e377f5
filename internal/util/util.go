package util

import (
	"encoding/hex"
	"os"
	"path/filepath"
	"strings"

	"github.com/ethereum/go-ethereum/crypto"
	"github.com/pkg/errors"
)

// Fingerprint hashes the parts with Keccak-256 and returns the hex digest.
// Parts are length-prefixed so ("ab", "c") and ("a", "bc") differ.
func Fingerprint(parts ...string) string {
	var sb strings.Builder
	for _, p := range parts {
		sb.WriteString(hexLen(len(p)))
		sb.WriteString(p)
	}
	return hex.EncodeToString(crypto.Keccak256([]byte(sb.String())))
}

func hexLen(n int) string {
	return hex.EncodeToString([]byte{byte(n >> 24), byte(n >> 16), byte(n >> 8), byte(n)})
}

// ModelFiles expands path into the model files it names: the file itself,
// or every .yaml, .yml and .json file directly inside a directory.
func ModelFiles(path string) ([]string, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, errors.Wrap(err, "Stat")
	}
	if !info.IsDir() {
		return []string{path}, nil
	}
	entries, err := os.ReadDir(path)
	if err != nil {
		return nil, errors.Wrap(err, "ReadDir")
	}
	var files []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		switch strings.ToLower(filepath.Ext(entry.Name())) {
		case ".yaml", ".yml", ".json":
			files = append(files, filepath.Join(path, entry.Name()))
		}
	}
	if len(files) == 0 {
		return nil, errors.Errorf("no model files in %s", path)
	}
	return files, nil
}

// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package secrets loads credentials from a directory of plain-text files
// and from a dotenv file. In the directory each file is one secret: the
// filename is the key name and the trimmed contents are the value.
//
// Supported keys: openalex-email (file) and OPENALEX_MAILTO (environment
// or .env).
package secrets

import (
	"errors"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"
)

// Key names.
const (
	KeyOpenAlexEmail = "openalex-email"
	EnvMailto        = "OPENALEX_MAILTO"
)

// Load reads all files in dir and returns a map of filename to trimmed contents.
// A missing directory or missing files are not errors; Load returns an empty map.
// Unreadable files are logged and skipped.
func Load(dir string) (map[string]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return map[string]string{}, nil
		}
		return nil, eris.Wrapf(err, "reading secrets directory %s", dir)
	}

	secrets := make(map[string]string)
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		if strings.HasPrefix(name, ".") {
			continue
		}

		data, err := os.ReadFile(filepath.Join(dir, name))
		if err != nil {
			zap.L().Warn("could not read secret", zap.String("name", name), zap.Error(err))
			continue
		}

		value := strings.TrimSpace(string(data))
		if value != "" {
			secrets[name] = value
		}
	}

	return secrets, nil
}

// LoadEnv reads the dotenv file at path. A missing file yields an empty
// map. Values are not exported to the process environment.
func LoadEnv(path string) (map[string]string, error) {
	env, err := godotenv.Read(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return map[string]string{}, nil
		}
		return nil, eris.Wrapf(err, "reading %s", path)
	}
	return env, nil
}

// Mailto returns the OpenAlex polite-pool email. The process environment
// wins, then the dotenv file at envPath, then the openalex-email file in
// dir. It returns "" when none is set.
func Mailto(dir, envPath string) (string, error) {
	if v := strings.TrimSpace(os.Getenv(EnvMailto)); v != "" {
		return v, nil
	}
	env, err := LoadEnv(envPath)
	if err != nil {
		return "", err
	}
	if v := strings.TrimSpace(env[EnvMailto]); v != "" {
		return v, nil
	}
	files, err := Load(dir)
	if err != nil {
		return "", err
	}
	return files[KeyOpenAlexEmail], nil
}

package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/hongminglow/bank-portal/internal/client"
)

func defaultSessionPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		dir = os.TempDir()
	}
	return filepath.Join(dir, "bankctl", "session.json")
}

func loadSession(path string) (client.SessionData, error) {
	raw, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return client.SessionData{}, nil
	}
	if err != nil {
		return client.SessionData{}, fmt.Errorf("read session: %w", err)
	}
	var data client.SessionData
	if err := json.Unmarshal(raw, &data); err != nil {
		return client.SessionData{}, fmt.Errorf("decode session %s: %w", path, err)
	}
	return data, nil
}

func saveSession(path string, data client.SessionData) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return fmt.Errorf("create session dir: %w", err)
	}
	raw, err := json.Marshal(data)
	if err != nil {
		return err
	}
	return os.WriteFile(path, raw, 0o600)
}

func removeSession(path string) error {
	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("remove session: %w", err)
	}
	return nil
}

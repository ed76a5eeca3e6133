package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// SaveAtomic validates cfg and replaces path, keeping the previous file
// as path.bak.
func SaveAtomic(path string, cfg Config) error {
	if _, v := NormalizeAndValidate(cfg); !v.OK() {
		return errors.New("config validation failed:\n- " + strings.Join(v.Errors, "\n- "))
	}

	b, err := yaml.Marshal(&cfg)
	if err != nil {
		return err
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}

	tmp := path + ".tmp"
	bak := path + ".bak"

	if err := os.WriteFile(tmp, b, 0o644); err != nil {
		return err
	}

	_ = os.Remove(bak)
	_ = os.Rename(path, bak)

	return os.Rename(tmp, path)
}

package config

import (
	"io"

	"github.com/a8m/envsubst"
	"github.com/pkg/errors"
	"github.com/yosuke-furukawa/json5/encoding/json5"
)

// Read reads a config from the given file. Environment variables referenced as $VAR or ${VAR}
// are substituted before parsing.
func Read(filePath string) (*Search, error) {
	buf, err := envsubst.ReadFile(filePath)
	if err != nil {
		return nil, err
	}
	return fromBytes(filePath, buf)
}

// FromReader reads a config from the given reader and specifies where, if applicable, the file
// the reader originated from.
func FromReader(originalPath string, r io.Reader) (*Search, error) {
	buf, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	return fromBytes(originalPath, buf)
}

func fromBytes(originalPath string, buf []byte) (*Search, error) {
	var cfg Search
	if err := json5.Unmarshal(buf, &cfg); err != nil {
		return nil, errors.Wrapf(err, "failed to decode config from %q", originalPath)
	}
	if err := cfg.Validate("search"); err != nil {
		return nil, errors.Wrapf(err, "invalid config %q", originalPath)
	}
	return &cfg, nil
}

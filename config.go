package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/tailscale/hujson"
)

// defaultConfig is probed when no -c flag is given. It does not have
// to exist.
const defaultConfig = "macrame.hujson"

// Config mirrors the settings file. The format is HuJSON, so comments
// and trailing commas are fine.
type Config struct {
	// Include directories are searched by #include, in order.
	Include []string `json:"include"`
	// Define and Undef apply before any input is processed, defines
	// first. Entries use the same NAME, NAME=VALUE or "NAME VALUE"
	// forms as -D.
	Define []string `json:"define"`
	Undef  []string `json:"undef"`
	// Output names the result file, like -o.
	Output string `json:"output"`
	// Lines false suppresses generated line markers, like -n.
	Lines *bool `json:"lines"`
}

// loadConfig reads and parses the file at path. A missing file is only
// an error when the path was given explicitly.
func loadConfig(path string, explicit bool) (cfg Config, found bool, err error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) && !explicit {
		return Config{}, false, nil
	} else if err != nil {
		return Config{}, false, fmt.Errorf("error reading config: %w", err)
	}

	std, err := hujson.Standardize(data)
	if err != nil {
		return Config{}, false, fmt.Errorf("error in config %s: %w", path, err)
	}
	if err := json.Unmarshal(std, &cfg); err != nil {
		return Config{}, false, fmt.Errorf("error in config %s: %w", path, err)
	}
	return cfg, true, nil
}

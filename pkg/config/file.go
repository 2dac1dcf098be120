package config

import (
	"encoding/json"
	"io"
	"os"
	"strings"

	pkgerrors "github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

// RawConfig is the JSON config-file form of Config. Pointer fields
// distinguish "not set, use the default" from a set zero value.
type RawConfig struct {
	PipePath           *string `json:"pipePath,omitempty"`
	PipeUID            *int    `json:"pipeUID,omitempty"`
	PipeGID            *int    `json:"pipeGID,omitempty"`
	PipeMode           *string `json:"pipeMode,omitempty"`
	DefaultStart       *int    `json:"defaultStart,omitempty"`
	DefaultEnd         *int    `json:"defaultEnd,omitempty"`
	StartThresholdPath *string `json:"startThresholdPath,omitempty"`
	EndThresholdPath   *string `json:"endThresholdPath,omitempty"`
	SocketPath         *string `json:"socketPath,omitempty"`
	AllowNonRootAccess *bool   `json:"allowNonRootAccess,omitempty"`
}

// LoadRaw reads a RawConfig from a JSON file. A missing or empty file is not
// an error: it yields an empty RawConfig, and defaults fill the gaps.
func LoadRaw(path string) (*RawConfig, error) {
	fp, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return &RawConfig{}, nil
		}
		return nil, pkgerrors.Wrapf(err, "failed to open config file %s", path)
	}
	defer func(fp *os.File) {
		if err := fp.Close(); err != nil {
			logrus.Warnf("failed to close config file %s", path)
		}
	}(fp)

	b, err := io.ReadAll(fp)
	if err != nil {
		return nil, pkgerrors.Wrapf(err, "failed to read config file %s", path)
	}
	if strings.TrimSpace(string(b)) == "" {
		return &RawConfig{}, nil
	}

	raw := RawConfig{}
	if err := json.Unmarshal(b, &raw); err != nil {
		return nil, pkgerrors.Wrapf(err, "failed to unmarshal config from file %s", path)
	}

	return &raw, nil
}

// Materialize turns a RawConfig into a concrete Config, filling unset fields
// from the built-in defaults and validating the result.
func (r *RawConfig) Materialize() (*Config, error) {
	pick := func(v, d *string) string {
		if v != nil {
			return *v
		}
		return *d
	}
	pickInt := func(v, d *int) int {
		if v != nil {
			return *v
		}
		return *d
	}
	pickBool := func(v, d *bool) bool {
		if v != nil {
			return *v
		}
		return *d
	}

	mode, err := ParseMode(pick(r.PipeMode, defaultRawConfig.PipeMode))
	if err != nil {
		return nil, err
	}

	c := &Config{
		PipePath:           pick(r.PipePath, defaultRawConfig.PipePath),
		PipeUID:            pickInt(r.PipeUID, defaultRawConfig.PipeUID),
		PipeGID:            pickInt(r.PipeGID, defaultRawConfig.PipeGID),
		PipeMode:           mode,
		DefaultStart:       pickInt(r.DefaultStart, defaultRawConfig.DefaultStart),
		DefaultEnd:         pickInt(r.DefaultEnd, defaultRawConfig.DefaultEnd),
		StartThresholdPath: pick(r.StartThresholdPath, defaultRawConfig.StartThresholdPath),
		EndThresholdPath:   pick(r.EndThresholdPath, defaultRawConfig.EndThresholdPath),
		SocketPath:         pick(r.SocketPath, defaultRawConfig.SocketPath),
		AllowNonRootAccess: pickBool(r.AllowNonRootAccess, defaultRawConfig.AllowNonRootAccess),
	}

	if err := c.Validate(); err != nil {
		return nil, err
	}

	return c, nil
}

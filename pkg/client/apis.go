package client

import (
	"encoding/json"

	pkgerrors "github.com/pkg/errors"

	"github.com/battpipe/battpipe/pkg/config"
	"github.com/battpipe/battpipe/pkg/powerinfo"
	"github.com/battpipe/battpipe/pkg/threshold"
)

// GetThresholds returns the currently effective kernel threshold pair.
func (c *Client) GetThresholds() (*threshold.Resolved, error) {
	ret, err := c.Get("/thresholds")
	if err != nil {
		return nil, pkgerrors.Wrapf(err, "failed to get thresholds")
	}

	r := &threshold.Resolved{}
	if err := json.Unmarshal([]byte(ret), r); err != nil {
		return nil, pkgerrors.Wrapf(err, "failed to unmarshal thresholds")
	}

	return r, nil
}

// SetThresholds submits a threshold expression through the daemon's API and
// returns the daemon's response message.
func (c *Client) SetThresholds(expr string) (string, error) {
	return c.Put("/thresholds", expr)
}

// GetBatteryInfo returns a battery snapshot from the daemon.
func (c *Client) GetBatteryInfo() (*powerinfo.Snapshot, error) {
	ret, err := c.Get("/battery-info")
	if err != nil {
		return nil, pkgerrors.Wrapf(err, "failed to get battery info")
	}

	s := &powerinfo.Snapshot{}
	if err := json.Unmarshal([]byte(ret), s); err != nil {
		return nil, pkgerrors.Wrapf(err, "failed to unmarshal battery info")
	}

	return s, nil
}

// GetConfig returns the daemon's running configuration.
func (c *Client) GetConfig() (*config.Config, error) {
	ret, err := c.Get("/config")
	if err != nil {
		return nil, pkgerrors.Wrapf(err, "failed to get config")
	}

	conf := &config.Config{}
	if err := json.Unmarshal([]byte(ret), conf); err != nil {
		return nil, pkgerrors.Wrapf(err, "failed to unmarshal config")
	}

	return conf, nil
}

// GetVersion returns the daemon's version string.
func (c *Client) GetVersion() (string, error) {
	ret, err := c.Get("/version")
	if err != nil {
		return "", pkgerrors.Wrapf(err, "failed to get daemon version")
	}

	var v string
	if err := json.Unmarshal([]byte(ret), &v); err != nil {
		return "", pkgerrors.Wrapf(err, "failed to unmarshal daemon version")
	}

	return v, nil
}

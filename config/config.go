// ─────────────────────────────────────────────────────────────────────────────
// [Filename]: config.go — bridge configuration file
//
// Purpose:
//   - Decodes the JSON configuration over compile-time defaults.
//   - Derives the wire layout and the simulated device's stages.
//   - Fingerprints the device-facing part of the configuration so traces
//     from different device images never mix.
//
// Notes:
//   - Unset numeric fields keep their constants.* defaults.
//   - Validation returns errors; nothing here panics on user input.
// ─────────────────────────────────────────────────────────────────────────────

package config

import (
	"encoding/hex"
	"errors"
	"fmt"
	"os"

	"github.com/sugawarayuuta/sonnet"
	"golang.org/x/crypto/sha3"

	"fpgabridge/constants"
	"fpgabridge/sim"
	"fpgabridge/wire"
)

// Ghost configures one hardware-resident operator.
type Ghost struct {
	Name      string `json:"name"`
	Kind      string `json:"kind"`
	Threshold uint64 `json:"threshold,omitempty"`
	Offset    uint64 `json:"offset,omitempty"`
}

// Config is the whole bridge configuration.
type Config struct {
	CacheLineWords int     `json:"cache_line_words"`
	BatchWidth     int     `json:"batch_width"`
	Banks          int     `json:"banks"`
	Peers          int     `json:"peers"`
	Ghosts         []Ghost `json:"ghosts"`

	DevicePath   string `json:"device_path"`
	DeviceOffset int64  `json:"device_offset"`

	TraceDB    string `json:"trace_db"`
	StatusAddr string `json:"status_addr"`
	Core       int    `json:"core"`
	TraceCore  int    `json:"trace_core"`
	Verbose    bool   `json:"verbose"`

	GateIdleProgressOnOutput bool `json:"gate_idle_progress_on_output"`

	Epochs          int `json:"epochs"`
	RecordsPerEpoch int `json:"records_per_epoch"`
}

var (
	ErrNoGhosts  = errors.New("config: at least one ghost operator is required")
	ErrPeers     = errors.New("config: peers must be >0")
	ErrEpochs    = errors.New("config: epochs and records_per_epoch must be >=0")
	ErrGhostName = errors.New("config: every ghost operator needs a unique name")
)

// Default is the configuration used for unset fields.
func Default() Config {
	return Config{
		CacheLineWords: constants.CacheLineWords,
		BatchWidth:     constants.BatchWidth,
		Banks:          constants.Banks,
		Peers:          constants.Peers,
		Ghosts: []Ghost{
			{Name: "filter", Kind: "filter", Threshold: 5},
			{Name: "map", Kind: "map", Offset: 1},
			{Name: "buffer", Kind: "buffer"},
			{Name: "pass", Kind: "pass"},
		},
		DevicePath:      "/dev/fpga0",
		Core:            -1,
		TraceCore:       -1,
		Epochs:          constants.DefaultEpochs,
		RecordsPerEpoch: constants.DefaultRecordsPerEpoch,
	}
}

// Load reads and validates the file at path. An empty path yields Default.
func Load(path string) (Config, error) {
	if path == "" {
		c := Default()
		return c, c.Validate()
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("config: read %s: %w", path, err)
	}
	return Parse(b)
}

// Parse decodes b over Default and validates the result.
func Parse(b []byte) (Config, error) {
	c := Default()
	c.Ghosts = nil
	if err := sonnet.Unmarshal(b, &c); err != nil {
		return Config{}, fmt.Errorf("config: decode: %w", err)
	}
	var present struct {
		Ghosts *[]Ghost `json:"ghosts"`
	}
	if err := sonnet.Unmarshal(b, &present); err != nil {
		return Config{}, fmt.Errorf("config: decode: %w", err)
	}
	if present.Ghosts == nil {
		c.Ghosts = Default().Ghosts
	}
	if err := c.Validate(); err != nil {
		return Config{}, err
	}
	return c, nil
}

// Validate checks every field a component will rely on.
func (c *Config) Validate() error {
	if len(c.Ghosts) == 0 {
		return ErrNoGhosts
	}
	if c.Peers <= 0 {
		return ErrPeers
	}
	if c.Epochs < 0 || c.RecordsPerEpoch < 0 {
		return ErrEpochs
	}
	seen := make(map[string]bool, len(c.Ghosts))
	for i, g := range c.Ghosts {
		if g.Name == "" || seen[g.Name] {
			return fmt.Errorf("%w (ghost %d)", ErrGhostName, i)
		}
		seen[g.Name] = true
		if _, err := sim.ParseKind(g.Kind); err != nil {
			return fmt.Errorf("config: ghost %s: %w", g.Name, err)
		}
	}
	if _, err := c.Layout(); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	return nil
}

// Layout derives the exchange region layout.
func (c *Config) Layout() (wire.Layout, error) {
	return wire.NewLayout(len(c.Ghosts), c.BatchWidth, c.CacheLineWords, c.Banks)
}

// Names lists the ghost operators in wire order.
func (c *Config) Names() []string {
	out := make([]string, len(c.Ghosts))
	for i, g := range c.Ghosts {
		out[i] = g.Name
	}
	return out
}

// Stages converts the ghost list for the simulated device.
func (c *Config) Stages() ([]sim.Stage, error) {
	out := make([]sim.Stage, len(c.Ghosts))
	for i, g := range c.Ghosts {
		k, err := sim.ParseKind(g.Kind)
		if err != nil {
			return nil, fmt.Errorf("config: ghost %s: %w", g.Name, err)
		}
		out[i] = sim.Stage{Name: g.Name, Kind: k, Threshold: g.Threshold, Offset: g.Offset}
	}
	return out, nil
}

// deviceView is the part of the configuration the device image depends on.
type deviceView struct {
	CacheLineWords int     `json:"cache_line_words"`
	BatchWidth     int     `json:"batch_width"`
	Banks          int     `json:"banks"`
	Ghosts         []Ghost `json:"ghosts"`
}

// Fingerprint is the hex SHA3-256 of the device-facing configuration.
func (c *Config) Fingerprint() string {
	b, err := sonnet.Marshal(deviceView{c.CacheLineWords, c.BatchWidth, c.Banks, c.Ghosts})
	if err != nil {
		panic("config: fingerprint encode: " + err.Error())
	}
	sum := sha3.Sum256(b)
	return hex.EncodeToString(sum[:])
}

// JSON re-encodes the configuration.
func (c *Config) JSON() []byte {
	b, err := sonnet.Marshal(c)
	if err != nil {
		panic("config: encode: " + err.Error())
	}
	return b
}

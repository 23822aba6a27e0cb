package amlogic

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config selects the target device and the payload to boot on it.
type Config struct {
	VendorID    uint16 `yaml:"vendor_id"`
	ProductID   uint16 `yaml:"product_id"`
	BaseAddress uint32 `yaml:"base_address"`
	ImagePath   string `yaml:"image_path"`
	// BootCommand defaults to "go <base_address>".
	BootCommand string `yaml:"boot_command,omitempty"`

	PadPartial   bool          `yaml:"pad_partial"`
	PollInterval time.Duration `yaml:"poll_interval"`
	MaxPolls     int           `yaml:"max_polls"`
}

// DefaultConfig reproduces the stock u-boot recovery sequence.
func DefaultConfig() Config {
	return Config{
		VendorID:     BurnIdentity.Vendor,
		ProductID:    BurnIdentity.Product,
		BaseAddress:  DefaultBaseAddress,
		ImagePath:    DefaultImagePath,
		PollInterval: DefaultPollInterval,
	}
}

// LoadConfig reads a YAML file on top of DefaultConfig.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config %s: %w", path, err)
	}
	return cfg, nil
}

func (c Config) Identity() Identity {
	return Identity{Vendor: c.VendorID, Product: c.ProductID}
}

func (c Config) Command() string {
	if c.BootCommand != "" {
		return c.BootCommand
	}
	return BootCommand(c.BaseAddress)
}

func (c Config) ChunkPolicy() ChunkPolicy {
	if c.PadPartial {
		return PadPartial
	}
	return DropPartial
}

func (c Config) Validate() error {
	switch {
	case c.VendorID == 0:
		return &ConfigError{Field: "vendor_id", Reason: "must not be zero"}
	case c.ProductID == 0:
		return &ConfigError{Field: "product_id", Reason: "must not be zero"}
	case c.ImagePath == "":
		return &ConfigError{Field: "image_path", Reason: "must be set"}
	case c.PollInterval < 0:
		return &ConfigError{Field: "poll_interval", Reason: "must not be negative"}
	case c.MaxPolls < 0:
		return &ConfigError{Field: "max_polls", Reason: "must not be negative"}
	}
	return nil
}

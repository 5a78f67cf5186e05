package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/abcfood/fingerprint-mw/internal/apperr"
	"github.com/abcfood/fingerprint-mw/internal/models"
)

// rawDeviceDocument mirrors the YAML shape: a top-level devices: map keyed
// by device key. Unknown fields are ignored by yaml.v3's default behavior.
type rawDeviceDocument struct {
	Devices map[string]rawDeviceEntry `yaml:"devices"`
}

type rawDeviceEntry struct {
	IP       string `yaml:"ip"`
	Port     int    `yaml:"port"`
	Password int    `yaml:"password"`
	Name     string `yaml:"name"`
	Model    string `yaml:"model"`
	Serial   string `yaml:"serial"`
}

// LoadDevices parses the device fleet YAML at path into resolved
// DeviceConfigs, applying defaults (port=4370, password=0, name=key) and
// failing with apperr.KindInvalidConfig if any entry is missing ip.
func LoadDevices(path string) ([]models.DeviceConfig, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindInvalidConfig, fmt.Sprintf("read devices file %q", path), err)
	}

	var doc rawDeviceDocument
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return nil, apperr.Wrap(apperr.KindInvalidConfig, "parse devices YAML", err)
	}

	out := make([]models.DeviceConfig, 0, len(doc.Devices))
	for key, entry := range doc.Devices {
		if entry.IP == "" {
			return nil, apperr.New(apperr.KindInvalidConfig, fmt.Sprintf("device %q: ip is required", key))
		}
		cfg := models.DeviceConfig{
			Key:      key,
			Name:     entry.Name,
			IP:       entry.IP,
			Port:     entry.Port,
			Password: entry.Password,
			Model:    entry.Model,
			Serial:   entry.Serial,
		}
		if cfg.Port == 0 {
			cfg.Port = 4370
		}
		if cfg.Name == "" {
			cfg.Name = key
		}
		out = append(out, cfg)
	}
	return out, nil
}

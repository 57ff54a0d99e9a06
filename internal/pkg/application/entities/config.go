package entities

import (
	"fmt"
	"io"

	"github.com/diwise/entity-hydration/pkg/models"
	yaml "gopkg.in/yaml.v2"
)

type KindConfig struct {
	Name     string `yaml:"name"`
	Validate bool   `yaml:"validate"`
	ReadOnly bool   `yaml:"readOnly"`
}

type Config struct {
	Kinds []KindConfig `yaml:"kinds"`
}

// DefaultConfiguration exposes every registered kind without validation
func DefaultConfiguration() Config {
	cfg := Config{}
	for _, name := range models.Kinds() {
		cfg.Kinds = append(cfg.Kinds, KindConfig{Name: name})
	}
	return cfg
}

func LoadConfiguration(data io.Reader) (*Config, error) {

	buf, err := io.ReadAll(data)
	if err != nil {
		return nil, err
	}

	cfg := &Config{}
	err = yaml.Unmarshal(buf, &cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to parse configuration: %w", err)
	}

	for _, k := range cfg.Kinds {
		if _, ok := models.LookupKind(k.Name); !ok {
			return nil, NewUnknownKindError(k.Name)
		}
	}

	return cfg, nil
}

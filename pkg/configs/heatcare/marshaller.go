package heatcare

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

var ErrInvalidConfig = errors.New("heatcare: invalid config")

// Load loads heatcare config from a file.
//
// args:
//   - filepath: filepath refers a config file.
//
// returns *Config, error:
//
//	When loading success, returns `(*Config, nil)`.
//	Otherwise, returns `(nil, error)`.
func Load(filepath string) (*Config, error) {
	content, err := os.ReadFile(filepath)
	if err != nil {
		return nil, err
	}
	return Unmarshal(content)
}

// Unmarshal parses and seals heatcare config.
//
// Misconfigurations are reported as an error wrapping ErrInvalidConfig.
func Unmarshal(conf []byte) (*Config, error) {
	var _out *ConfigMarshall
	if err := yaml.Unmarshal(conf, &_out); err != nil {
		return nil, err
	}
	if _out == nil {
		_out = &ConfigMarshall{}
	}
	return seal(_out)
}

func seal(m *ConfigMarshall) (out *Config, err error) {
	defer func() {
		if r := recover(); r != nil {
			out = nil
			err = fmt.Errorf("%w: %v", ErrInvalidConfig, r)
		}
	}()
	return TrySeal(m), nil
}

// Default returns a config having defaults with given database.
//
// database can be empty. See (*Config).Database .
func Default(database string) (*Config, error) {
	return seal(&ConfigMarshall{Database: database})
}

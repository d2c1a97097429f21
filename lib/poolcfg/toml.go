package poolcfg

import "github.com/pelletier/go-toml/v2"

func unmarshalTOML(data []byte, cfg *Config) error {
	return toml.Unmarshal(data, cfg)
}

func marshalTOML(cfg *Config) ([]byte, error) {
	return toml.Marshal(cfg)
}

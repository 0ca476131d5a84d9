package hefestos

import (
	"github.com/brunoggdev/hefestos-go/config"
)

// FromConfig converts the database section of the configuration file into
// connection settings.
func FromConfig(cfg config.DatabaseConfig) ConnConfig {
	return ConnConfig{
		Address:  cfg.Address(),
		User:     cfg.User,
		Password: cfg.Password,
	}
}

// resolveFromConfigFile is the default Resolver: it loads the file named by
// HEFESTOS_CONFIG (or config/database.yaml).
func resolveFromConfigFile() (ConnConfig, error) {
	cfg, err := config.Load(config.Path())
	if err != nil {
		return ConnConfig{}, err
	}
	return FromConfig(cfg.Database), nil
}

package cmd

import (
	"github.com/vibast-solutions/ms-go-dagpay/app/environment"
	"github.com/vibast-solutions/ms-go-dagpay/config"
)

func newEnvironmentRegistry(cfg config.DagpayConfig) (*environment.Registry, error) {
	envs := make([]environment.Environment, 0, len(cfg.Environments))
	for _, item := range cfg.Environments {
		name, err := environment.ParseName(item.Name)
		if err != nil {
			return nil, err
		}
		envs = append(envs, environment.Environment{
			Name:          name,
			APIBaseURL:    item.APIBaseURL,
			UserID:        item.UserID,
			EnvironmentID: item.EnvironmentID,
			Secret:        item.Secret,
		})
	}

	var defaultName environment.Name
	if cfg.DefaultEnvironment != "" {
		name, err := environment.ParseName(cfg.DefaultEnvironment)
		if err != nil {
			return nil, err
		}
		defaultName = name
	}

	return environment.NewRegistryWithDefault(defaultName, envs...)
}

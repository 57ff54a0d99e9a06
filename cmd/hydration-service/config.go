package main

import (
	"context"
	"flag"

	"github.com/diwise/service-chassis/pkg/infrastructure/env"
)

type FlagType int
type FlagMap map[FlagType]string

const (
	listenAddress FlagType = iota
	servicePort

	configPath
	policiesPath
	validationPath

	storageType
	notifierEndpoint
)

const (
	inMemoryStorage string = "memory"
	postgresStorage string = "postgres"
)

func defaultFlags() FlagMap {
	return FlagMap{
		listenAddress:  "",
		servicePort:    "8080",
		configPath:     "",
		policiesPath:   "",
		validationPath: "",
		storageType:    inMemoryStorage,

		notifierEndpoint: "",
	}
}

// parseExternalConfig reads the environment first and lets command line flags
// override what was found there
func parseExternalConfig(ctx context.Context, flags FlagMap) FlagMap {

	flags[listenAddress] = env.GetVariableOrDefault(ctx, "LISTEN_ADDRESS", flags[listenAddress])
	flags[servicePort] = env.GetVariableOrDefault(ctx, "SERVICE_PORT", flags[servicePort])
	flags[configPath] = env.GetVariableOrDefault(ctx, "CONFIG_PATH", flags[configPath])
	flags[policiesPath] = env.GetVariableOrDefault(ctx, "POLICY_PATH", flags[policiesPath])
	flags[validationPath] = env.GetVariableOrDefault(ctx, "VALIDATION_PATH", flags[validationPath])
	flags[storageType] = env.GetVariableOrDefault(ctx, "STORAGE", flags[storageType])
	flags[notifierEndpoint] = env.GetVariableOrDefault(ctx, "NOTIFIER_ENDPOINT", flags[notifierEndpoint])

	apply := func(f FlagType) func(string) error {
		return func(value string) error {
			flags[f] = value
			return nil
		}
	}

	flag.Func("config", "path to the kinds configuration file", apply(configPath))
	flag.Func("policies", "path to the authorization policies", apply(policiesPath))
	flag.Func("validation", "path to the validation policies", apply(validationPath))
	flag.Func("storage", "storage backend (memory or postgres)", apply(storageType))
	flag.Parse()

	return flags
}

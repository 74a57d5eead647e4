// Package config loads service configuration from the environment.
//
// Load wraps github.com/joho/godotenv and github.com/caarlos0/env/v11: it merges
// optional .env files into the process environment and parses any struct with
// `env` tags. Config is the conntrackd settings struct; nested structs such as
// httpserver.Config and redis.Config carry their own tags.
//
//	var cfg config.Config
//	if err := config.Load(&cfg); err != nil {
//		return err
//	}
//	if err := cfg.Validate(); err != nil {
//		return err
//	}
package config

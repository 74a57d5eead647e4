package config

import (
	"errors"
	"fmt"
	"io/fs"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// Load reads .env files into the process environment and parses it into v
// using `env` struct tags. Without files it tries ".env" and ignores its absence;
// named files must exist. Variables already set in the environment win.
//
//	var cfg config.Config
//	if err := config.Load(&cfg); err != nil {
//		return err
//	}
func Load[T any](v *T, files ...string) error {
	if v == nil {
		return ErrNilPointer
	}

	if len(files) == 0 {
		if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return errors.Join(ErrLoadingEnvFile, err)
		}
	} else if err := godotenv.Load(files...); err != nil {
		return errors.Join(ErrLoadingEnvFile, err)
	}

	if err := env.Parse(v); err != nil {
		return errors.Join(ErrParsingConfig, err)
	}
	return nil
}

// MustLoad works like Load but panics on failure.
func MustLoad[T any](v *T, files ...string) {
	if err := Load(v, files...); err != nil {
		panic(fmt.Sprintf("failed to load required configuration: %v", err))
	}
}

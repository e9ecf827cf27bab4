package config

import (
	"errors"
	"fmt"
	"reflect"
	"sync"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

var (
	dotenvOnce sync.Once

	mu    sync.Mutex
	cache = map[reflect.Type]any{}
)

// Load parses environment variables into a T, reading .env once first if
// it exists. Successful results are cached per type; failures are not, so
// a fixed environment can be retried.
//
//	stripeCfg, err := config.Load[billing.StripeConfig]()
func Load[T any]() (T, error) {
	dotenvOnce.Do(func() { _ = godotenv.Load() })

	key := reflect.TypeFor[T]()

	mu.Lock()
	defer mu.Unlock()
	if v, ok := cache[key]; ok {
		return v.(T), nil
	}

	v, err := env.ParseAs[T]()
	if err != nil {
		var zero T
		return zero, errors.Join(ErrParsingConfig, fmt.Errorf("%s: %w", key, err))
	}
	cache[key] = v
	return v, nil
}

// MustLoad is Load for settings the process cannot start without.
func MustLoad[T any]() T {
	v, err := Load[T]()
	if err != nil {
		panic(err)
	}
	return v
}

// Reset forgets every cached configuration.
func Reset() {
	mu.Lock()
	defer mu.Unlock()
	clear(cache)
}

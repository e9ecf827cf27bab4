// Package config loads typed configuration from the environment
// (caarlos0/env) after reading an optional .env file (godotenv).
//
// Every package that needs settings declares its own struct with env tags;
// App holds the settings shared across commands.
package config

// Package config loads service configuration with Viper.
//
// Values come from a YAML file found in the standard search locations
// (./cmd/<service>/config.yml, ./config/config.yml, ./config.yml), then
// environment variables, then an optional .env file loaded with godotenv.
// Nested keys map to underscore-separated variables, so CAPTURE_SILENCE
// overrides capture.silence.
//
// # Usage
//
//	var cfg AppConfig
//	err := config.LoadConfig("minutes", &cfg)
package config

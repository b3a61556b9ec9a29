// Package config loads application configuration from environment
// variables and an optional .env file.
//
// Defaults are declared as struct tags on the partial config structs
// owned by each package (database, logger, server) plus the sync
// tunables declared here, and are bound into Viper via reflection.
package config

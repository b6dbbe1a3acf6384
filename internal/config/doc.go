// Package config loads the tool's own runtime settings from multiple sources
// (YAML files, environment variables, CLI flags) with precedence: CLI flags >
// YAML config > Environment variables > Defaults. The image optimizer's
// environment contract is not part of Config; see package env.
package config

// Package config loads tallyvm configuration with viper.
//
// Values come from defaults, then an optional YAML file, then TALLYVM_
// environment variables (TALLYVM_EXECUTOR_MAX_LIVE_UNITS and so on).
//
// Example tallyvm.yaml:
//
//	logging:
//	  mode: development
//	  level: debug
//	  dir: /var/log/tallyvm
//	executor:
//	  max_live_units: 32
//	  memory_limit_pages: 256
//	hostfunc:
//	  allowed_hosts: [api.example.com]
//	  http_timeout: 10s
//
// The execution deadline is fixed and cannot be configured.
package config

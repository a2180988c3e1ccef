// Package config handles loading and validating hmtk configuration.
//
// This package manages:
//   - Loading configuration from YAML files
//   - Overriding with environment variables (HMTK_*)
//   - Validation of required fields
//   - Default value handling
//
// Security Considerations:
//   - Sensitive values (broker password, InfluxDB token) should be set via
//     environment variables rather than the config file
//   - The config file should have restricted permissions (0600)
//
// Performance Characteristics:
//   - Configuration is loaded once at startup
//   - No runtime overhead after initial load
//
// Usage:
//
//	cfg, err := config.Load("hmtk.yaml")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Println(cfg.Device.MAC)
//
// The config file is optional: Load("") produces a configuration from
// defaults and environment variables alone, which is the common mode for
// one-shot CLI queries.
package config

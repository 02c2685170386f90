// Package config handles loading and validating avengine configuration.
//
// This package manages:
//   - Loading configuration from YAML files
//   - Overriding with environment variables
//   - Validation of required fields
//   - Default value handling
//
// Security Considerations:
//   - Sensitive values (JWT secret, MQTT password) should be set via
//     environment variables rather than committed to the YAML document.
//   - The config file should have restricted permissions (0600).
//
// Performance Characteristics:
//   - Configuration is loaded once at startup; no runtime overhead after.
//
// Usage:
//
//	cfg, err := config.Load("configs/config.yaml")
//	if err != nil {
//	    log.Fatal(err)
//	}
package config

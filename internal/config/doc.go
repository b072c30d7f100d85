// Package config provides centralized configuration management for the
// glucose report generator.
//
// # Configuration Sources
//
// Configuration is assembled in order of increasing precedence:
//
//	1. Default values (Default())
//	2. A YAML file (config.yaml, configs/config.yaml or GLUCO_CONFIG)
//	3. Environment variables with the GLUCO_ prefix
//
// # Environment Variables
//
//	GLUCO_LOGGING_LEVEL=debug
//	GLUCO_REPORT_OUTPUT_DIR=/srv/reports
//	GLUCO_REPORT_PDF=true
//	GLUCO_SERVER_PORT=8090
//
// # Path Management
//
// Paths resolves directories relative to the executable (example data, logs)
// and the user's documents folder used as the primary report location.
//
// # Testing
//
// Use Default() for a validated configuration that needs no environment.
package config

// Package config handles configuration loading for sqlpeek.
//
// # Overview
//
// Configuration is loaded from a YAML file with environment variable
// expansion. Every field has a default, so a missing config file is fine:
// the viewer starts on :3000 reading credentials from ./auth.json.
//
// # Environment Variable Expansion
//
// Configuration values can reference environment variables:
//
//	auth:
//	  credentials_path: "${HOME}/.config/sqlpeek/auth.json"
//
// Syntax: ${VAR_NAME}
//
// # Overrides
//
// Two environment variables override everything else, matching how the
// viewer was traditionally deployed:
//
//	SQLPEEK_ADDR  listen address
//	SQLPEEK_AUTH  credential file path
//
// # Configuration Sections
//
//	server:
//	  http_addr: ":3000"
//
//	auth:
//	  credentials_path: "auth.json"
//
//	session:
//	  ttl: "1h"
//
//	viewer:
//	  query_timeout: "5s"
//
//	logging:
//	  level: "info"    # debug, info, warn, error
//	  format: "text"   # text, json
package config

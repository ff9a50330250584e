// Package config defines the replayd.yaml file format and its loader.
//
// A config file collects everything the CLI commands need: the listen
// address, mode, cassette path, record-proxy target, playback policy,
// comparison ignores, the capture filter, redaction set, and logging.
// Files are JSON or YAML, detected by extension, and every field can
// be overridden by command-line flags.
//
// Example:
//
//	listen: ":8080"
//	mode: record
//	cassette: testdata/api.yaml
//	target: https://api.example.com
//	policy: exception
//	ignoreHeaders:
//	  - X-Request-Id
//	filter:
//	  excludePaths:
//	    - /health
//	    - /metrics
//	redact:
//	  - Authorization
//	log:
//	  level: info
//	  format: text
package config

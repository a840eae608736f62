// Package config defines configuration structures for the treemirror CLI.
//
// Configuration can be provided via:
//   - Command-line flags
//   - Environment variables (TREEMIRROR_ prefix, optionally from a .env file)
//   - YAML configuration file
//
// Later sources win: defaults, then file, then environment, then flags.
//
// # File format
//
//	base_url: https://adala.justice.gov.ma
//	roots: [12, 569]
//	output: laws            # or s3://bucket/prefix, gs://..., file://..., mem://
//	extension: .pdf
//	chunk_size: 8KB
//	download_delay: 500ms
//	log_level: info
//	strict: false
//	retry:
//	  attempts: 3
//	  delay: 2s
//	timeouts:
//	  metadata: 30s
//	  download: 60s
//	headers:
//	  user_agent: Mozilla/5.0 ...
package config

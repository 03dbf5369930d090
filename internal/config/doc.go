// Package config loads tagdeck's TOML configuration.
//
// # Configuration Discovery
//
// The Load function follows this resolution order:
//
//  1. If a path is explicitly provided, use it
//  2. Otherwise, use ~/.config/tagdeck/config.toml (default)
//  3. If the config file doesn't exist, fall back to hardcoded defaults
//  4. If the file exists but fields are missing/empty, use defaults
//
// # TOML Format
//
//	api_url = "http://127.0.0.1:8000"
//	request_timeout = "5m"
//	output_dir = "~/Music/tagdeck"
//	log_file = "~/.local/share/tagdeck/tagdeck.log"
//	log_level = "info"
//	log_format = "console"
//	serve_bind = "127.0.0.1:0"
//
// Every field is optional. Tilde expansion is performed for output_dir and
// log_file. request_timeout is a Go duration string and bounds each call to
// the conversion service; extraction and finalization download and transcode
// on the server, so the default is generous. serve_bind = "off" disables the
// loopback listener that serves finalized audio links.
//
// Missing config files are NOT an error. tagdeck works against a local
// service on the default port without any configuration.
package config

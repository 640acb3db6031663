// Package config handles loading the footctl configuration file.
//
// # Configuration Discovery
//
// The Load function follows this resolution order:
//
//  1. If a path is explicitly provided, use it
//  2. Otherwise, use ~/.config/footctl/config.toml (default)
//  3. If the config file doesn't exist, fall back to defaults
//  4. If the file exists but fields are missing, empty or non-positive, use defaults
//
// # Fields
//
//	device = "192.168.4.1"                      # host[:port] or URL of the controller
//	log_file = "~/.local/state/footctl/footctl.log"
//	log_level = "info"                          # debug, info, warn, error
//	request_timeout_ms = 5000                   # per HTTP request
//	requests_per_second = 8                     # client-side request limiter
//	burst = 4
//	led_debounce_ms = 250                       # brightness idle commit delay
//	live_poll_ms = 450                          # hardware bank polling cadence
//	nav_grace_ms = 800                          # ignore hardware bank changes after local navigation
//
// Paths starting with ~ are expanded to the user's home directory and made
// absolute. Command-line flags override the file (see cmd/footctl).
package config

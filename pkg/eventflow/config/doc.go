// Package config loads eventflow store settings from YAML or JSON files.
//
// The package has two layers: Config, a permissive map wrapper with typed
// accessors, and Settings, the store-shaped view of a loaded file. Use
// eventflow.FromSettings to turn Settings into store options.
//
// Example file:
//
//	buffer_size: 512
//	max_depth: 100
//	metrics: true
//	tracing: false
//	dead_letter_path: ./failures.db
//	data_events:
//	  - audit.note
//	  - ui.toast
package config

// Package config provides configuration loading and XDG-style path
// management for locus.
//
// # Configuration loading
//
// Load resolves a types.Config by merging, in increasing priority:
//
//  1. The global config file (~/.config/locus/config.json or .jsonc)
//  2. The project config file (<directory>/.locus/config.json or .jsonc)
//  3. Environment variables (ANTHROPIC_API_KEY, OPENAI_API_KEY,
//     LOCUS_MODEL, LOCUS_SMALL_MODEL)
//
// JSONC files are stripped of // and /* */ comments before parsing.
//
// # Path management
//
// GetPaths returns the XDG Base Directory Specification paths for locus's
// own user-level data (distinct from a project's .locus/ directory):
//
//	Data:   ~/.local/share/locus (XDG_DATA_HOME)
//	Config: ~/.config/locus (XDG_CONFIG_HOME)
//	Cache:  ~/.cache/locus (XDG_CACHE_HOME)
//	State:  ~/.local/state/locus (XDG_STATE_HOME)
//
// On Windows these fall back to APPDATA.
package config

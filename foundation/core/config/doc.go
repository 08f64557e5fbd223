// Package config provides hierarchical key/value configuration loaded from
// TOML or YAML files.
//
// Package: config
// Title: Configuration Management
// Description: Loads configuration files into a nested key space addressed
//              with dot notation (BES.Container.Persistence), with optional
//              environment overrides and defaults. Values are read through
//              typed getters or through GetValue, which reports presence.
// Version: v0.2.0
// Created: 2025-01-25
// Modified: 2026-10-19
//
// Change History:
// - 2025-01-25 v0.1.0: Initial implementation with TOML/YAML support
// - 2026-10-19 v0.2.0: GetValue/GetStringMap/Keys; watching and discovery removed
//
// Usage:
//
//	cfg, err := config.LoadWithOptions("bes.toml", config.LoadOptions{EnvPrefix: "BES"})
//	if err != nil {
//		return err
//	}
//	if v, ok := cfg.GetValue("BES.Container.Persistence"); ok {
//		...
//	}
package config

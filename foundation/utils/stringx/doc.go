// Package stringx provides small string helpers shared by the BES
// configuration and command parsing code.
//
// Package: stringx
// Title: String Utilities
// Version: v0.2.0
// Created: 2025-01-24
// Modified: 2026-10-19
package stringx

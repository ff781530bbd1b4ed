// Package config loads, normalizes, and validates clip loader settings from
// TOML.
//
// It supplies defaults, expands user paths (including tilde shortcuts) and
// converts the file into a loader.Config. Validation failures name the
// offending key as section.key and match cliperr.ErrConfiguration.
package config

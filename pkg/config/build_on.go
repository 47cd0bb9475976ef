//go:build !dbc_off

package config

// compiledEnabled is the default for contracts when DBC_ENABLED is unset.
// Build with -tags dbc_off to compile contracts out by default.
const compiledEnabled = true

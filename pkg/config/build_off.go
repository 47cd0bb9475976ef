//go:build dbc_off

package config

const compiledEnabled = false

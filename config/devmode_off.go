//go:build !devmode

package config

const devModeCompiled = false

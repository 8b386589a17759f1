//go:build devmode

package config

const devModeCompiled = true

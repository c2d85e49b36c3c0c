package util

import "github.com/spf13/viper"

// DefaultRematchLimit bounds how often the matcher reruns for one game.
const DefaultRematchLimit = 3

// PatchingEnabled returns whether persisted and matched patch lists are used.
// Disabled with --no-patch.
func PatchingEnabled() bool {
	return !viper.GetBool("no-patch")
}

// RematchLimit returns the configured rematch limit, falling back to the default.
func RematchLimit() int {
	if n := viper.GetInt("rematch-limit"); n > 0 {
		return n
	}
	return DefaultRematchLimit
}

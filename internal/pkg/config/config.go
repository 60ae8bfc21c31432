package config

import (
	"io"
	"time"
)

// Config is the read-only view of the service configuration. Missing keys
// yield zero values; callers decide on defaults.
type Config interface {
	io.Closer

	GetBool(key string) bool
	GetString(key string) string
	GetInt(key string) int
	GetInt32(key string) int32
	GetUint(key string) uint
	GetUint64(key string) uint64
	GetFloat64(key string) float64

	// GetSecond and GetMinute read an integer and scale it to a duration.
	GetSecond(key string) time.Duration
	GetMinute(key string) time.Duration

	// GetArray accepts either a YAML list or a comma separated string.
	GetArray(key string) []string

	// GetMap parses "k:v,k:v" pairs.
	GetMap(key string) map[string]string
}

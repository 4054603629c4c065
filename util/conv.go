package util

import (
	log "github.com/sirupsen/logrus"
	"strconv"
)

// StringToInt64 converts a string to a int64 returning a default value on failure
func StringToInt64(s string, def int64) int64 {
	v, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		log.Warnf("failed to parse int64 value from redis: %s", s)
		return def
	}
	return v
}


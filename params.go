package flume

import (
	"strconv"
	"strings"
)

// Params holds the parameters extracted from a request path by the matching
// route pattern. Parameters declared '{name:int}' are stored as int64, all
// others as string.
type Params map[string]any

// Get returns the value of a parameter by key, rendered as a string. The
// lookup is case-insensitive. Returns an empty string if the key doesn't
// exist.
func (p Params) Get(key string) string {
	for k, v := range p {
		if !strings.EqualFold(k, key) {
			continue
		}
		switch value := v.(type) {
		case string:
			return value
		case int64:
			return strconv.FormatInt(value, 10)
		}
	}
	return ""
}

// Int returns the value of an int-typed parameter by key. The second return
// value is false if the key doesn't exist or the parameter is not int-typed.
func (p Params) Int(key string) (int64, bool) {
	for k, v := range p {
		if strings.EqualFold(k, key) {
			value, ok := v.(int64)
			return value, ok
		}
	}
	return 0, false
}

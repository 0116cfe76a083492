package logging

import "github.com/sirupsen/logrus"

// BaseFields carries the action and config path of a command run.
func BaseFields(action, configPath string) logrus.Fields {
	return logrus.Fields{
		"action":     action,
		"configPath": configPath,
	}
}

// CacheFields describes one cache operation.
func CacheFields(action, key string, hit bool) logrus.Fields {
	return logrus.Fields{
		"action": action,
		"key":    key,
		"hit":    hit,
	}
}

package logger

import (
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var level = zap.NewAtomicLevelAt(zapcore.InfoLevel)

// Init builds the global logger. Production gets JSON output, anything else the console encoder.
func Init(environment, lvl string) error {
	SetLevel(lvl)

	var conf zap.Config
	if environment == "production" {
		conf = zap.NewProductionConfig()
	} else {
		conf = zap.NewDevelopmentConfig()
	}
	conf.Level = level

	l, err := conf.Build()
	if err != nil {
		return err
	}
	zap.ReplaceGlobals(l)

	return nil
}

// SetLevel changes the level of the running logger. Unknown names leave it unchanged.
func SetLevel(lvl string) {
	var l zapcore.Level
	if err := l.Set(strings.ToLower(lvl)); err != nil {
		return
	}
	level.SetLevel(l)
}

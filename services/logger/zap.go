// Package logsvc implements core.Logger on zap, optionally reporting to Rollbar.
package logsvc

import (
	"fmt"
	"sort"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/shubhammm008/Infosys-Team5/core"
	"github.com/shubhammm008/Infosys-Team5/core/user"
)

const redacted = "[REDACTED]"

// keys whose values never reach a log sink
var sensitive = []string{"password", "token", "code", "secret", "key"}

func isSensitive(key string) bool {
	k := strings.ToLower(key)
	for _, s := range sensitive {
		if strings.Contains(k, s) {
			return true
		}
	}
	return false
}

func redact(m map[string]interface{}) map[string]interface{} {
	out := make(map[string]interface{}, len(m))
	for k, v := range m {
		if isSensitive(k) {
			v = redacted
		}
		out[k] = v
	}
	return out
}

// fields turns logger args into zap key/value pairs.
func fields(args []interface{}) []interface{} {
	kvs := make([]interface{}, 0, len(args)*2)
	var nErr, nArg int
	for _, arg := range args {
		switch a := arg.(type) {
		case nil:
		case error:
			key := "error"
			if nErr > 0 {
				key = fmt.Sprintf("error%d", nErr)
			}
			nErr++
			kvs = append(kvs, zap.NamedError(key, a))
		case user.User:
			kvs = append(kvs, zap.String("user.id", a.ID), zap.String("user.email", a.Email))
		case map[string]interface{}:
			keys := make([]string, 0, len(a))
			for k := range a {
				keys = append(keys, k)
			}
			sort.Strings(keys)
			for _, k := range keys {
				v := a[k]
				if isSensitive(k) {
					v = redacted
				}
				kvs = append(kvs, zap.Any(k, v))
			}
		default:
			kvs = append(kvs, zap.Any(fmt.Sprintf("arg%d", nArg), a))
			nArg++
		}
	}
	return kvs
}

// ZapLogger is the plain zap-backed core.Logger.
type ZapLogger struct {
	zl *zap.SugaredLogger
}

var _ core.Logger = (*ZapLogger)(nil)

// NewZap builds the process logger: JSON in production, console otherwise.
func NewZap(conf *core.Config) (*zap.Logger, error) {
	var zc zap.Config
	if conf.Debug || conf.Env == "dev" {
		zc = zap.NewDevelopmentConfig()
		zc.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	} else {
		zc = zap.NewProductionConfig()
	}
	if conf.TestMode {
		zc.Level = zap.NewAtomicLevelAt(zap.WarnLevel)
	}
	zl, err := zc.Build(zap.AddCallerSkip(1))
	if err != nil {
		return nil, err
	}
	return zl.With(zap.String("app", conf.AppName), zap.String("build", conf.Build)), nil
}

func NewZapLogger(zl *zap.Logger) *ZapLogger {
	return &ZapLogger{zl: zl.Sugar()}
}

func (l ZapLogger) Debug(msg string, args ...interface{}) { l.zl.Debugw(msg, fields(args)...) }
func (l ZapLogger) Info(msg string, args ...interface{})  { l.zl.Infow(msg, fields(args)...) }
func (l ZapLogger) Warn(msg string, args ...interface{})  { l.zl.Warnw(msg, fields(args)...) }
func (l ZapLogger) Error(msg string, args ...interface{}) { l.zl.Errorw(msg, fields(args)...) }
func (l ZapLogger) Fatal(msg string, args ...interface{}) { l.zl.Fatalw(msg, fields(args)...) }

// New picks Rollbar when a token is configured.
func New(conf *core.Config) (core.Logger, func(), error) {
	zl, err := NewZap(conf)
	if err != nil {
		return nil, nil, err
	}
	flush := func() { _ = zl.Sync() }
	if conf.RollbarToken != "" && !conf.TestMode {
		return NewRollbarLogger(zl, conf), flush, nil
	}
	return NewZapLogger(zl), flush, nil
}

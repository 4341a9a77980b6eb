package utilities

import (
	"github.com/samber/oops"
	"go.uber.org/zap"
)

// LogError logs err at error level. Errors built with oops contribute their
// code, domain and context as structured fields; anything else is logged as is.
func LogError(logger *zap.SugaredLogger, msg string, err error) {
	if oopsErr, ok := oops.AsOops(err); ok {
		kv := []any{"err", oopsErr.Error()}
		if code := oopsErr.Code(); code != nil {
			kv = append(kv, "code", code)
		}
		if domain := oopsErr.Domain(); domain != "" {
			kv = append(kv, "domain", domain)
		}
		if ctx := oopsErr.Context(); len(ctx) > 0 {
			kv = append(kv, "context", ctx)
		}
		logger.Errorw(msg, kv...)
		return
	}
	logger.Errorw(msg, "err", err)
}

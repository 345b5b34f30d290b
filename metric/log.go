package metric

import (
	"time"

	"go.uber.org/zap"
)

func Author(val string) zap.Field {
	return zap.String("author", val)
}

func Outcome(val string) zap.Field {
	return zap.String("outcome", val)
}

func Pending(val int) zap.Field {
	return zap.Int("pending", val)
}

func Cursor(val int) zap.Field {
	return zap.Int("cursor", val)
}

func TotalDur(val time.Duration) zap.Field {
	return zap.Int64("totalMs", val.Milliseconds())
}

package deepgram

import "go.opentelemetry.io/contrib/bridges/otelslog"

const scopeName = "github.com/koscakluka/ema-tray/core/pipeline/deepgram"

var logger = otelslog.NewLogger(scopeName)

package miniaudio

import "go.opentelemetry.io/contrib/bridges/otelslog"

const scopeName = "github.com/koscakluka/ema-tray/core/audio/miniaudio"

var logger = otelslog.NewLogger(scopeName)

package permissions

import (
	"go.opentelemetry.io/contrib/bridges/otelslog"
)

const scopeName = "github.com/koscakluka/ema-tray/core/permissions"

var logger = otelslog.NewLogger(scopeName)

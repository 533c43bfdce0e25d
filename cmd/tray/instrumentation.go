package main

import "go.opentelemetry.io/contrib/bridges/otelslog"

const scopeName = "github.com/koscakluka/ema-tray/cmd/tray"

var logger = otelslog.NewLogger(scopeName)

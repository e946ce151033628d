package main

import (
	"context"
	"courseatlas-backend/cmd/siascan/commands"
	"courseatlas-backend/lib/serviceutil"
	"courseatlas-backend/lib/telemetry"
)

func main() {
	telemetry.SetupFromEnv(context.Background(), "siascan")
	telemetry.InitSlog(true)
	commands.ExecuteContext(serviceutil.SignalContext())
}

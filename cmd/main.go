package main

import (
	"fmt"
	"os"

	"github.com/VitalPointAI/argus-sub001/internal/app"
	"github.com/VitalPointAI/argus-sub001/internal/platform/envutil"
)

func main() {
	application, err := app.New()
	if err != nil {
		fmt.Printf("Failed to start: %v\n", err)
		os.Exit(1)
	}
	defer application.Close()

	application.Start()

	port := envutil.String("PORT", "8080")
	application.Log.Info("Reputation engine listening", "port", port)
	if err := application.Run(":" + port); err != nil {
		application.Log.Error("Server exited", "error", err)
	}
}

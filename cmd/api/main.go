package main

import (
	"context"
	"log/slog"
	"os"

	"github.com/aws/aws-lambda-go/lambda"

	"github.com/jun/cloudbridge/internal/app"
)

func main() {
	application, err := app.NewApp(context.Background())
	if err != nil {
		slog.Error("failed to initialize", "error", err)
		os.Exit(1)
	}
	lambda.Start(application.HandleRequest)
}

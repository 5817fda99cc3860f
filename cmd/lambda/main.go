// Lambda entrypoint: API Gateway proxy events are bridged onto the same gin
// engine the standalone server runs.
package main

import (
	"context"
	"os"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-lambda-go/lambda"
	"github.com/aws/aws-lambda-go/lambdacontext"
	"github.com/awslabs/aws-lambda-go-api-proxy/httpadapter"
	sloghttp "github.com/samber/slog-http"

	"github.com/lestrix/serverless-todo/internal/config"
	"github.com/lestrix/serverless-todo/internal/repository"
	"github.com/lestrix/serverless-todo/internal/routes"
	"github.com/lestrix/serverless-todo/pkg/logger"
)

var adapter *httpadapter.HandlerAdapter

// Wiring happens once per cold start; warm invocations reuse the adapter and
// its backend connections.
func init() {
	ctx := context.Background()
	cfg, err := config.Load()
	if err != nil {
		logger.Error(ctx, "Invalid configuration", "error", err)
		os.Exit(1)
	}
	logger.SetLevel(cfg.LogLevel)

	repo, err := repository.New(ctx, cfg)
	if err != nil {
		logger.Error(ctx, "Repository init failed", "error", err, "backend", cfg.Backend)
		os.Exit(1)
	}
	adapter = httpadapter.New(sloghttp.New(logger.Default())(routes.Router(repo)))
	logger.Info(ctx, "Lambda handler initialized", "backend", cfg.Backend)
}

func handle(ctx context.Context, req events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error) {
	if lc, ok := lambdacontext.FromContext(ctx); ok {
		ctx = logger.WithRequestID(ctx, lc.AwsRequestID)
	}
	logger.Info(ctx, "Invocation received", "method", req.HTTPMethod, "path", req.Path)
	resp, err := adapter.ProxyWithContext(ctx, req)
	if err != nil {
		logger.Error(ctx, "Invocation failed", "error", err)
		return resp, err
	}
	logger.Info(ctx, "Invocation completed", "status", resp.StatusCode)
	return resp, nil
}

func main() {
	lambda.Start(handle)
}

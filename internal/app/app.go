package app

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"strings"

	"github.com/aws/aws-lambda-go/events"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/kms"
	"github.com/aws/aws-sdk-go-v2/service/ssm"

	"github.com/jun/cloudbridge/internal/adapter/googledrive"
	"github.com/jun/cloudbridge/internal/auth"
	"github.com/jun/cloudbridge/internal/config"
	"github.com/jun/cloudbridge/internal/crypto"
	"github.com/jun/cloudbridge/internal/handler"
	"github.com/jun/cloudbridge/internal/lease"
	"github.com/jun/cloudbridge/internal/registry"
	"github.com/jun/cloudbridge/internal/secret"
)

// App holds the dependencies for the Lambda function.
type App struct {
	authHandler *handler.AuthHandler
	fileHandler *handler.FileHandler
	frontendURL string
	logger      *slog.Logger
}

// New wires an App from ready handlers.
func New(authHandler *handler.AuthHandler, fileHandler *handler.FileHandler, frontendURL string, logger *slog.Logger) *App {
	if logger == nil {
		logger = slog.Default()
	}
	return &App{
		authHandler: authHandler,
		fileHandler: fileHandler,
		frontendURL: frontendURL,
		logger:      logger,
	}
}

// NewLogger returns JSON logs for Lambda and text logs in dev mode.
func NewLogger(devMode bool) *slog.Logger {
	if devMode {
		return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug}))
	}
	return slog.New(slog.NewJSONHandler(os.Stdout, nil))
}

// NewApp initializes the application dependencies from config and AWS.
func NewApp(ctx context.Context) (*App, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	logger := NewLogger(cfg.DevMode)

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx)
	if err != nil {
		return nil, fmt.Errorf("unable to load SDK config: %w", err)
	}

	dynamoClient := dynamodb.NewFromConfig(awsCfg)

	var encryptor crypto.Encryptor
	var resolver secret.Resolver
	if cfg.DevMode {
		encryptor = crypto.NewMockEncryptor()
		resolver = secret.NewEnvResolver()
		logger.Info("using MockEncryptor and EnvResolver", "dev_mode", true)
	} else {
		encryptor = crypto.NewKMSService(kms.NewFromConfig(awsCfg), cfg.KMSKeyID)
		resolver = secret.NewSSMResolver(ssm.NewFromConfig(awsCfg))
	}

	secrets, err := secret.ResolveServiceSecrets(ctx, resolver, cfg.Google)
	if err != nil {
		return nil, err
	}

	store := auth.NewCredentialStore(dynamoClient, cfg.CredentialsTable, encryptor)
	locker := lease.NewManager(dynamoClient, cfg.LeasesTable)

	var driveOpts []googledrive.Option
	if cfg.ChunkSize > 0 {
		driveOpts = append(driveOpts, googledrive.WithChunkSize(cfg.ChunkSize))
	}
	reg := registry.Default(logger, driveOpts...)

	authHandler := handler.NewAuthHandler(handler.AuthHandlerConfig{
		Client:      secrets.Client,
		RedirectURL: cfg.RedirectURL,
		JWTSecret:   secrets.JWTSecret,
		FrontendURL: cfg.FrontendURL,
		DevMode:     cfg.DevMode,
	}, store, nil, logger)

	fileHandler := handler.NewFileHandler(reg, store, secrets.Client, locker, secrets.JWTSecret, logger)

	return New(authHandler, fileHandler, cfg.FrontendURL, logger), nil
}

// HandleRequest routes API Gateway requests to the appropriate handler.
func (app *App) HandleRequest(ctx context.Context, req events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error) {
	path := req.Path
	method := req.HTTPMethod

	app.logger.Info("request", "method", method, "path", path)

	// CORS Preflight
	if method == http.MethodOptions {
		return app.corsResponse(events.APIGatewayProxyResponse{StatusCode: http.StatusNoContent}), nil
	}

	// Strip /api prefix if present (for CloudFront proxying)
	path = strings.TrimPrefix(path, "/api")

	if req.PathParameters == nil {
		req.PathParameters = make(map[string]string)
	}

	switch {
	case path == "/providers" && method == http.MethodGet:
		return app.corsResponse(app.must(app.fileHandler.ListProviders(ctx, req))), nil

	case path == "/auth/login" && method == http.MethodGet:
		return app.corsResponse(app.must(app.authHandler.Login(ctx, req))), nil
	case path == "/auth/callback" && method == http.MethodGet:
		return app.corsResponse(app.must(app.authHandler.Callback(ctx, req))), nil
	case path == "/auth/logout" && method == http.MethodPost:
		return app.corsResponse(app.must(app.authHandler.Logout(ctx, req))), nil
	case path == "/auth/credentials" && method == http.MethodDelete:
		return app.corsResponse(app.must(app.authHandler.Disconnect(ctx, req))), nil
	}

	// /files/{provider}
	if provider, ok := strings.CutPrefix(path, "/files/"); ok && provider != "" && !strings.Contains(provider, "/") {
		req.PathParameters["provider"] = provider
		switch method {
		case http.MethodPost:
			return app.corsResponse(app.must(app.fileHandler.Upload(ctx, req))), nil
		case http.MethodGet:
			return app.corsResponse(app.must(app.fileHandler.Read(ctx, req))), nil
		case http.MethodDelete:
			return app.corsResponse(app.must(app.fileHandler.Delete(ctx, req))), nil
		}
	}

	return app.corsResponse(events.APIGatewayProxyResponse{
		StatusCode: http.StatusNotFound,
		Body:       fmt.Sprintf("Not Found: %s %s", method, path),
	}), nil
}

// corsResponse adds CORS headers to an API Gateway response.
func (app *App) corsResponse(resp events.APIGatewayProxyResponse) events.APIGatewayProxyResponse {
	if resp.Headers == nil {
		resp.Headers = make(map[string]string)
	}
	resp.Headers["Access-Control-Allow-Origin"] = app.frontendURL
	resp.Headers["Access-Control-Allow-Credentials"] = "true"
	resp.Headers["Access-Control-Allow-Methods"] = "GET,POST,DELETE,OPTIONS"
	resp.Headers["Access-Control-Allow-Headers"] = "Content-Type,Authorization"
	return resp
}

// must unwraps a handler response, logging and hiding the error.
func (app *App) must(resp events.APIGatewayProxyResponse, err error) events.APIGatewayProxyResponse {
	if err != nil {
		app.logger.Error("handler error", "error", err)
		return events.APIGatewayProxyResponse{StatusCode: http.StatusInternalServerError, Body: "Internal Server Error"}
	}
	return resp
}

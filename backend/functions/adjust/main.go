package main

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"strconv"
	"strings"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-lambda-go/lambda"
	"go.uber.org/zap"

	"fx-tuner/backend/shared"
)

var effectsTable = os.Getenv("EFFECTS_TABLE")
var settingsTable = os.Getenv("SETTINGS_TABLE")
var sceneFile = os.Getenv("SCENE_FILE")
var settingsFile = os.Getenv("SETTINGS_FILE")

type server struct {
	session *shared.Session
	config  *shared.Config
	logger  *zap.Logger
}

func newServer(session *shared.Session, cfg *shared.Config, logger *zap.Logger) *server {
	return &server{session: session, config: cfg, logger: logger.Named("adjust-api")}
}

func (s *server) handler(ctx context.Context, request events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error) {
	log := s.logger.With(zap.String("path", request.Path), zap.String("method", request.HTTPMethod))
	log.Debug("Adjust handler called")

	if request.HTTPMethod == "OPTIONS" {
		return shared.CreateResponse(200, nil), nil
	}

	username, err := shared.ValidateAuth(request)
	if err != nil {
		log.Warn("Authentication failed", zap.Error(err))
		return shared.CreateErrorResponse(401, "Unauthorized"), nil
	}
	log = log.With(zap.String("user", username))

	path := strings.TrimSuffix(request.Path, "/")
	method := request.HTTPMethod

	switch {
	case path == "/api/targets" && method == "GET":
		return s.handleListTargets(ctx, log)
	case path == "/api/config/check" && method == "GET":
		return s.handleConfigCheck()
	case strings.HasPrefix(path, "/api/targets/") && strings.HasSuffix(path, "/parameters") && method == "GET":
		return s.handleParameters(ctx, log, request)
	case strings.HasPrefix(path, "/api/targets/") && strings.HasSuffix(path, "/adjust") && method == "POST":
		return s.handleAdjust(ctx, log, request)
	default:
		log.Info("No matching route")
		return shared.CreateErrorResponse(404, "Not found"), nil
	}
}

// targetIndex reads {index} from the path parameters, falling back to the path itself
func targetIndex(request events.APIGatewayProxyRequest) (int, error) {
	raw := request.PathParameters["index"]
	if raw == "" {
		parts := strings.Split(strings.Trim(request.Path, "/"), "/")
		if len(parts) >= 3 {
			raw = parts[2]
		}
	}
	index, err := strconv.Atoi(raw)
	if err != nil {
		return 0, errors.New("target index must be a number")
	}
	return index, nil
}

func (s *server) handleListTargets(ctx context.Context, log *zap.Logger) (events.APIGatewayProxyResponse, error) {
	if err := s.session.Refresh(ctx); err != nil {
		log.Error("Failed to list targets", zap.Error(err))
		return shared.CreateErrorResponse(500, "Failed to list targets"), nil
	}
	return shared.CreateSuccessResponse(200, s.session.Summaries()), nil
}

func (s *server) handleConfigCheck() (events.APIGatewayProxyResponse, error) {
	_, hasKey := s.config.APIKey()
	issues := s.config.Validate()
	return shared.CreateSuccessResponse(200, map[string]interface{}{
		"valid":            len(issues) == 0,
		"issues":           issues,
		"apiKeyConfigured": hasKey,
		"model":            s.config.Model(),
		"temperature":      s.config.Temperature(),
		"namespace":        s.config.DefaultNamespace(),
		"aiAvailable":      s.session.Assistant().IsAvailable(),
	}), nil
}

// selectTarget refreshes the target list and checks index against it
func (s *server) selectTarget(ctx context.Context, log *zap.Logger, request events.APIGatewayProxyRequest) (int, *events.APIGatewayProxyResponse) {
	index, err := targetIndex(request)
	if err != nil {
		resp := shared.CreateErrorResponse(400, err.Error())
		return 0, &resp
	}
	if err := s.session.Refresh(ctx); err != nil {
		log.Error("Failed to list targets", zap.Error(err))
		resp := shared.CreateErrorResponse(500, "Failed to list targets")
		return 0, &resp
	}
	if _, err := s.session.Select(index); err != nil {
		resp := shared.CreateErrorResponse(404, "Target not found")
		return 0, &resp
	}
	return index, nil
}

func (s *server) handleParameters(ctx context.Context, log *zap.Logger, request events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error) {
	index, errResp := s.selectTarget(ctx, log, request)
	if errResp != nil {
		return *errResp, nil
	}

	snapshots, err := s.session.Parameters(ctx, index)
	if err != nil {
		log.Error("Failed to read parameters", zap.Int("index", index), zap.Error(err))
		return shared.CreateErrorResponse(500, "Failed to read parameters"), nil
	}
	return shared.CreateSuccessResponse(200, snapshots), nil
}

func (s *server) handleAdjust(ctx context.Context, log *zap.Logger, request events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error) {
	var req shared.AdjustRequest
	if err := json.Unmarshal([]byte(shared.GetRequestBody(request)), &req); err != nil {
		return shared.CreateErrorResponse(400, "Invalid request body"), nil
	}
	req.Request = strings.TrimSpace(req.Request)
	if req.Request == "" {
		return shared.CreateErrorResponse(400, "request is required"), nil
	}

	index, errResp := s.selectTarget(ctx, log, request)
	if errResp != nil {
		return *errResp, nil
	}

	if !s.session.Assistant().IsAvailable() {
		return shared.CreateErrorResponse(503, "AI service unavailable, configure "+shared.EnvAPIKey), nil
	}

	log.Info("Adjustment requested", zap.Int("index", index), zap.String("request", req.Request))
	outcome := s.session.Adjust(ctx, index, req.Request)

	return shared.CreateResponse(200, shared.APIResponse{
		Success: outcome.Success,
		Message: outcome.Explanation,
		Data:    outcome,
	}), nil
}

func loadSettings(ctx context.Context, client shared.DynamoAPI, logger *zap.Logger) (shared.SettingsSource, error) {
	switch {
	case settingsTable != "":
		return shared.LoadDynamoSettings(ctx, shared.NewTable(client, settingsTable, logger))
	case settingsFile != "":
		return shared.LoadFileSettings(settingsFile)
	default:
		return shared.NoSettings{}, nil
	}
}

func openStore(client shared.DynamoAPI, logger *zap.Logger) (shared.ParameterStore, error) {
	switch {
	case effectsTable != "":
		return shared.NewDynamoStore(shared.NewTable(client, effectsTable, logger), logger), nil
	case sceneFile != "":
		records, err := shared.LoadScene(sceneFile)
		if err != nil {
			return nil, err
		}
		return shared.NewMemoryStore(records), nil
	default:
		return nil, errors.New("EFFECTS_TABLE or SCENE_FILE must be set")
	}
}

func main() {
	logger, err := shared.NewLogger(shared.GetEnv("LOG_LEVEL", "info") == "debug")
	if err != nil {
		panic(err)
	}
	defer logger.Sync()

	ctx := context.Background()

	var client shared.DynamoAPI
	if effectsTable != "" || settingsTable != "" {
		dynamo, err := shared.InitDynamoDB(ctx)
		if err != nil {
			logger.Fatal("Failed to initialize DynamoDB", zap.Error(err))
		}
		client = dynamo
	}

	settings, err := loadSettings(ctx, client, logger)
	if err != nil {
		logger.Fatal("Failed to load settings", zap.Error(err))
	}
	cfg := shared.LoadConfig(settings, logger)

	store, err := openStore(client, logger)
	if err != nil {
		logger.Fatal("Failed to open parameter store", zap.Error(err))
	}

	s := newServer(shared.NewSessionFromConfig(store, cfg, logger), cfg, logger)
	lambda.Start(s.handler)
}

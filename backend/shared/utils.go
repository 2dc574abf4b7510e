package shared

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"os"

	"github.com/aws/aws-lambda-go/events"
)

// ErrNoToken is returned when a request carries no bearer token
var ErrNoToken = errors.New("no auth token")

// GetEnv retrieves an environment variable or returns a default value
func GetEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// CreateResponse creates a standard API Gateway response
func CreateResponse(statusCode int, body interface{}) events.APIGatewayProxyResponse {
	jsonBody, _ := json.Marshal(body)
	return events.APIGatewayProxyResponse{
		StatusCode: statusCode,
		Headers: map[string]string{
			"Content-Type":                 "application/json",
			"Access-Control-Allow-Origin":  "*",
			"Access-Control-Allow-Methods": "GET,POST,OPTIONS",
			"Access-Control-Allow-Headers": "Content-Type,Authorization",
		},
		Body: string(jsonBody),
	}
}

// CreateSuccessResponse creates a success response
func CreateSuccessResponse(statusCode int, data interface{}) events.APIGatewayProxyResponse {
	return CreateResponse(statusCode, APIResponse{
		Success: true,
		Data:    data,
	})
}

// CreateErrorResponse creates an error response
func CreateErrorResponse(statusCode int, message string) events.APIGatewayProxyResponse {
	return CreateResponse(statusCode, APIResponse{
		Success: false,
		Error:   message,
	})
}

// GetAuthToken extracts the bearer token from the request headers
func GetAuthToken(request events.APIGatewayProxyRequest) string {
	auth := request.Headers["Authorization"]
	if auth == "" {
		auth = request.Headers["authorization"]
	}
	return BearerToken(auth)
}

// BearerToken strips the "Bearer " prefix from an Authorization header value
func BearerToken(header string) string {
	if len(header) > 7 && header[:7] == "Bearer " {
		return header[7:]
	}
	return ""
}

// ValidateAuth validates the bearer token and returns the username
func ValidateAuth(request events.APIGatewayProxyRequest) (string, error) {
	token := GetAuthToken(request)
	if token == "" {
		return "", ErrNoToken
	}

	claims, err := ValidateToken(token)
	if err != nil {
		return "", err
	}
	return claims.Username, nil
}

// GetRequestBody returns the request body, decoding from base64 if needed
func GetRequestBody(request events.APIGatewayProxyRequest) string {
	body := request.Body

	if request.IsBase64Encoded {
		decoded, err := base64.StdEncoding.DecodeString(body)
		if err == nil {
			return string(decoded)
		}
	}

	return body
}

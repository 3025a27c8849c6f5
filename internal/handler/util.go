package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/aws/aws-lambda-go/events"
	"github.com/golang-jwt/jwt/v5"

	"github.com/jun/cloudbridge/internal/adapter"
)

const (
	sessionCookie = "session_token"
	stateCookie   = "oauth_state"
	sessionTTL    = 24 * time.Hour
)

// getHeader does a case-insensitive header lookup.
func getHeader(req events.APIGatewayProxyRequest, name string) string {
	for k, v := range req.Headers {
		if strings.EqualFold(k, name) {
			return v
		}
	}
	return ""
}

// getCookie returns the named cookie from the Cookie header.
func getCookie(req events.APIGatewayProxyRequest, name string) string {
	cookies := getHeader(req, "Cookie")
	for _, part := range strings.Split(cookies, ";") {
		part = strings.TrimSpace(part)
		if v, ok := strings.CutPrefix(part, name+"="); ok {
			return v
		}
	}
	return ""
}

// GetUserID extracts the user ID from the Authorization header or session cookie.
func GetUserID(req events.APIGatewayProxyRequest, jwtSecret string) (string, error) {
	// 1. Check Authorization Header (Bearer <token>)
	tokenString := ""
	if authHeader := getHeader(req, "Authorization"); strings.HasPrefix(authHeader, "Bearer ") {
		tokenString = strings.TrimPrefix(authHeader, "Bearer ")
	}

	// 2. Check Cookie
	if tokenString == "" {
		tokenString = getCookie(req, sessionCookie)
	}

	if tokenString == "" {
		return "", fmt.Errorf("no authorization token found")
	}

	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(jwtSecret), nil
	})
	if err != nil {
		return "", fmt.Errorf("invalid token: %v", err)
	}

	if claims, ok := token.Claims.(jwt.MapClaims); ok && token.Valid {
		if sub, ok := claims["sub"].(string); ok && sub != "" {
			return sub, nil
		}
	}

	return "", fmt.Errorf("invalid token claims")
}

// IssueSessionToken signs a session JWT for userID.
func IssueSessionToken(userID, email, jwtSecret string, now time.Time) (string, error) {
	claims := jwt.MapClaims{
		"sub":   userID,
		"email": email,
		"iat":   now.Unix(),
		"exp":   now.Add(sessionTTL).Unix(),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(jwtSecret))
}

// cookie renders a Set-Cookie value. Dev mode uses SameSite=Lax; behind
// CloudFront the API and frontend need SameSite=None.
func cookie(name, value string, maxAge time.Duration, devMode bool) string {
	sameSite := "None"
	if devMode {
		sameSite = "Lax"
	}
	return fmt.Sprintf("%s=%s; HttpOnly; Path=/; Max-Age=%d; SameSite=%s; Secure",
		name, value, int(maxAge.Seconds()), sameSite)
}

func jsonResponse(status int, v any) events.APIGatewayProxyResponse {
	body, err := json.Marshal(v)
	if err != nil {
		return events.APIGatewayProxyResponse{StatusCode: http.StatusInternalServerError, Body: "Internal Server Error"}
	}
	return events.APIGatewayProxyResponse{
		StatusCode: status,
		Body:       string(body),
		Headers: map[string]string{
			"Content-Type": "application/json",
		},
	}
}

func errorMessage(status int, msg string) events.APIGatewayProxyResponse {
	return jsonResponse(status, map[string]string{"error": msg})
}

// StatusFor maps an error to the HTTP status for its kind.
func StatusFor(err error) int {
	switch {
	case errors.Is(err, adapter.ErrConfiguration):
		return http.StatusBadRequest
	case errors.Is(err, adapter.ErrMissingCredentials), errors.Is(err, adapter.ErrAuthentication):
		return http.StatusUnauthorized
	case errors.Is(err, adapter.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, adapter.ErrTransfer):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func errorResponse(err error) events.APIGatewayProxyResponse {
	status := StatusFor(err)
	msg := err.Error()
	if status == http.StatusInternalServerError {
		msg = "Internal Server Error"
	}
	return errorMessage(status, msg)
}

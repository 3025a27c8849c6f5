package handler_test

import (
	"strings"
	"time"

	"github.com/aws/aws-lambda-go/events"
	"github.com/golang-jwt/jwt/v5"
)

const (
	testJWTSecret = "test-secret"
	testUserID    = "test-user-123"
)

func makeToken(userID string) string {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": userID,
		"exp": time.Now().Add(1 * time.Hour).Unix(),
	})
	signed, _ := token.SignedString([]byte(testJWTSecret))
	return signed
}

func makeRequest(method, provider string, query map[string]string, body string) events.APIGatewayProxyRequest {
	return events.APIGatewayProxyRequest{
		HTTPMethod: method,
		Path:       "/files/" + provider,
		Headers: map[string]string{
			"Authorization": "Bearer " + makeToken(testUserID),
		},
		PathParameters:        map[string]string{"provider": provider},
		QueryStringParameters: query,
		Body:                  body,
	}
}

// cookieValue finds name in a list of Set-Cookie values.
func cookieValue(setCookies []string, name string) (string, bool) {
	for _, c := range setCookies {
		first, _, _ := strings.Cut(c, ";")
		if v, ok := strings.CutPrefix(first, name+"="); ok {
			return v, true
		}
	}
	return "", false
}

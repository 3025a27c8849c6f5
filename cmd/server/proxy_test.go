package main

import (
	"context"
	"encoding/base64"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/aws/aws-lambda-go/events"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProxyHandler_TextRequest(t *testing.T) {
	var got events.APIGatewayProxyRequest
	h := newProxyHandler(func(_ context.Context, req events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error) {
		got = req
		return events.APIGatewayProxyResponse{
			StatusCode:        http.StatusCreated,
			Headers:           map[string]string{"Content-Type": "application/json"},
			MultiValueHeaders: map[string][]string{"Set-Cookie": {"a=1", "b=2"}},
			Body:              `{"locator":"x"}`,
		}, nil
	}, slog.New(slog.NewTextHandler(io.Discard, nil)))

	req := httptest.NewRequest("POST", "/files/AZURE?path=a.txt", strings.NewReader("hello"))
	req.Header.Set("Authorization", "Bearer t")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, "/files/AZURE", got.Path)
	assert.Equal(t, "POST", got.HTTPMethod)
	assert.Equal(t, "a.txt", got.QueryStringParameters["path"])
	assert.Equal(t, "Bearer t", got.Headers["Authorization"])
	assert.Equal(t, "hello", got.Body)
	assert.False(t, got.IsBase64Encoded)

	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, `{"locator":"x"}`, rec.Body.String())
	assert.Equal(t, []string{"a=1", "b=2"}, rec.Result().Header.Values("Set-Cookie"))
}

func TestProxyHandler_BinaryBodies(t *testing.T) {
	binary := []byte{0xff, 0xfe, 0x00}
	var got events.APIGatewayProxyRequest
	h := newProxyHandler(func(_ context.Context, req events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error) {
		got = req
		return events.APIGatewayProxyResponse{
			StatusCode:      http.StatusOK,
			Body:            base64.StdEncoding.EncodeToString(binary),
			IsBase64Encoded: true,
		}, nil
	}, slog.New(slog.NewTextHandler(io.Discard, nil)))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest("POST", "/files/AZURE", strings.NewReader(string(binary))))

	require.True(t, got.IsBase64Encoded)
	decoded, err := base64.StdEncoding.DecodeString(got.Body)
	require.NoError(t, err)
	assert.Equal(t, binary, decoded)
	assert.Equal(t, binary, rec.Body.Bytes())
}

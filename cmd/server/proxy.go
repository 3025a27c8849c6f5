package main

import (
	"context"
	"encoding/base64"
	"io"
	"log/slog"
	"net/http"
	"unicode/utf8"

	"github.com/aws/aws-lambda-go/events"
)

type lambdaHandler func(context.Context, events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error)

// newProxyHandler serves API Gateway proxy events over plain HTTP.
func newProxyHandler(h lambdaHandler, logger *slog.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		req, err := toProxyRequest(r)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}

		resp, err := h(r.Context(), req)
		if err != nil {
			logger.Error("handler failed", "error", err)
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		writeProxyResponse(w, resp)
	})
}

func toProxyRequest(r *http.Request) (events.APIGatewayProxyRequest, error) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		return events.APIGatewayProxyRequest{}, err
	}

	headers := make(map[string]string, len(r.Header))
	for k, v := range r.Header {
		headers[k] = v[0]
	}

	query := make(map[string]string)
	for k, v := range r.URL.Query() {
		query[k] = v[0]
	}

	req := events.APIGatewayProxyRequest{
		Path:                  r.URL.Path,
		HTTPMethod:            r.Method,
		Headers:               headers,
		MultiValueHeaders:     r.Header,
		QueryStringParameters: query,
		Body:                  string(body),
	}
	// Binary uploads travel base64-encoded, as API Gateway does it.
	if !utf8.Valid(body) {
		req.Body = base64.StdEncoding.EncodeToString(body)
		req.IsBase64Encoded = true
	}
	return req, nil
}

func writeProxyResponse(w http.ResponseWriter, resp events.APIGatewayProxyResponse) {
	for k, v := range resp.Headers {
		w.Header().Set(k, v)
	}
	for k, vs := range resp.MultiValueHeaders {
		for _, v := range vs {
			w.Header().Add(k, v)
		}
	}

	body := []byte(resp.Body)
	if resp.IsBase64Encoded {
		decoded, err := base64.StdEncoding.DecodeString(resp.Body)
		if err != nil {
			http.Error(w, "invalid base64 response body", http.StatusInternalServerError)
			return
		}
		body = decoded
	}

	w.WriteHeader(resp.StatusCode)
	w.Write(body)
}

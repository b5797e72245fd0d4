package controllers

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/xkartlabs/xkart-backend/api/middleware"
	"github.com/xkartlabs/xkart-backend/internal/engine"
	"github.com/xkartlabs/xkart-backend/pkg/logger"
)

const testCampaignDuration = time.Hour

func newTestEngine(t *testing.T) *engine.Engine {
	t.Helper()
	return engine.New(engine.Policy{
		Deployer:          "deployer",
		PlatformPrincipal: "platform",
		TransferFee:       1,
		TxWindow:          24 * time.Hour,
		PermittedDrift:    2 * time.Minute,
		OpenNFTMinting:    true,
	})
}

func testLogger() *logger.Logger {
	return logger.New(logger.Options{ServiceName: "controllers-test", Output: io.Discard})
}

func jsonRequest(t *testing.T, method, target string, payload any) *http.Request {
	t.Helper()
	var body io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			t.Fatalf("marshal request: %v", err)
		}
		body = bytes.NewReader(data)
	}
	return httptest.NewRequest(method, target, body)
}

func asPrincipal(r *http.Request, principal string) *http.Request {
	return r.WithContext(middleware.WithPrincipal(r.Context(), principal))
}

func withURLParam(r *http.Request, key, value string) *http.Request {
	rc := chi.NewRouteContext()
	rc.URLParams.Add(key, value)
	return r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rc))
}

func decodeData(t *testing.T, resp *httptest.ResponseRecorder, dest any) {
	t.Helper()
	var envelope struct {
		Data json.RawMessage `json:"data"`
	}
	if err := json.Unmarshal(resp.Body.Bytes(), &envelope); err != nil {
		t.Fatalf("decode envelope: %v", err)
	}
	if err := json.Unmarshal(envelope.Data, dest); err != nil {
		t.Fatalf("decode data: %v", err)
	}
}

func errorCode(t *testing.T, resp *httptest.ResponseRecorder) string {
	t.Helper()
	var envelope struct {
		Error struct {
			Code string `json:"code"`
		} `json:"error"`
	}
	if err := json.Unmarshal(resp.Body.Bytes(), &envelope); err != nil {
		t.Fatalf("decode error envelope: %v", err)
	}
	return envelope.Error.Code
}

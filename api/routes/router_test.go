package routes

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/xkartlabs/xkart-backend/internal/engine"
	pkgAuth "github.com/xkartlabs/xkart-backend/pkg/auth"
	"github.com/xkartlabs/xkart-backend/pkg/config"
	"github.com/xkartlabs/xkart-backend/pkg/enums"
	"github.com/xkartlabs/xkart-backend/pkg/logger"
)

type stubPinger struct{}

func (stubPinger) Ping(context.Context) error {
	return nil
}

func newTestRouter(t *testing.T) (http.Handler, *engine.Engine, *config.Config) {
	t.Helper()

	cfg := &config.Config{}
	cfg.App.Env = "test"
	cfg.JWT = config.JWTConfig{Secret: "secret", Issuer: "xkart", ExpirationMinutes: 30}

	eng := engine.New(engine.Policy{
		Deployer:          "deployer",
		PlatformPrincipal: "platform",
		TransferFee:       1,
		TxWindow:          24 * time.Hour,
		PermittedDrift:    2 * time.Minute,
	})

	logg := logger.New(logger.Options{ServiceName: "routes-test", Output: io.Discard})
	return NewRouter(cfg, logg, stubPinger{}, nil, eng), eng, cfg
}

func mintToken(t *testing.T, cfg *config.Config, principal string, role enums.ActorRole) string {
	t.Helper()
	token, err := pkgAuth.MintAccessToken(cfg.JWT, time.Now(), pkgAuth.AccessTokenPayload{
		Principal: principal,
		Role:      role,
	})
	if err != nil {
		t.Fatalf("mint token: %v", err)
	}
	return token
}

func TestHealthLive(t *testing.T) {
	router, _, _ := newTestRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/health/live", nil)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}
	if resp.Header().Get("X-XKart-Env") != "test" {
		t.Fatal("expected env header on health endpoint")
	}
}

func TestPublicPingNeedsNoAuth(t *testing.T) {
	router, _, _ := newTestRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/api/public/ping", nil)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}
}

func TestPrivateRoutesRejectMissingToken(t *testing.T) {
	router, _, _ := newTestRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/ledger/supply", nil)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 got %d", resp.Code)
	}
}

func TestLedgerReadsWithToken(t *testing.T) {
	router, eng, cfg := newTestRouter(t)
	if err := eng.Mint("deployer", engine.Account{Owner: "alice"}, 500); err != nil {
		t.Fatalf("seed mint: %v", err)
	}

	token := mintToken(t, cfg, "alice", enums.ActorRolePlayer)
	req := httptest.NewRequest(http.MethodGet, "/api/v1/ledger/balance?owner=alice", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d: %s", resp.Code, resp.Body.String())
	}
	var payload struct {
		Data struct {
			Balance uint64 `json:"balance"`
		} `json:"data"`
	}
	if err := json.Unmarshal(resp.Body.Bytes(), &payload); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if payload.Data.Balance != 500 {
		t.Fatalf("expected balance 500 got %d", payload.Data.Balance)
	}
}

func TestAdminRoutesRequireAdminRole(t *testing.T) {
	router, _, cfg := newTestRouter(t)

	token := mintToken(t, cfg, "alice", enums.ActorRolePlayer)
	req := httptest.NewRequest(http.MethodGet, "/api/admin/ping", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	if resp.Code != http.StatusForbidden {
		t.Fatalf("expected 403 got %d", resp.Code)
	}
}

func TestDevTokenMintOutsideProd(t *testing.T) {
	router, eng, _ := newTestRouter(t)
	if err := eng.Mint("deployer", engine.Account{Owner: "bob"}, 10); err != nil {
		t.Fatalf("seed mint: %v", err)
	}

	body, _ := json.Marshal(map[string]string{"principal": "bob", "role": "player"})
	req := httptest.NewRequest(http.MethodPost, "/api/dev/v1/token", bytes.NewReader(body))
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d: %s", resp.Code, resp.Body.String())
	}

	var payload struct {
		Data struct {
			AccessToken string `json:"access_token"`
		} `json:"data"`
	}
	if err := json.Unmarshal(resp.Body.Bytes(), &payload); err != nil {
		t.Fatalf("decode response: %v", err)
	}

	supplyReq := httptest.NewRequest(http.MethodGet, "/api/v1/ledger/supply", nil)
	supplyReq.Header.Set("Authorization", "Bearer "+payload.Data.AccessToken)
	supplyResp := httptest.NewRecorder()
	router.ServeHTTP(supplyResp, supplyReq)
	if supplyResp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d: %s", supplyResp.Code, supplyResp.Body.String())
	}
}

func TestDevTokenMintHiddenInProd(t *testing.T) {
	cfg := &config.Config{}
	cfg.App.Env = "prod"
	cfg.JWT = config.JWTConfig{Secret: "secret", Issuer: "xkart", ExpirationMinutes: 30}

	eng := engine.New(engine.Policy{Deployer: "deployer", PlatformPrincipal: "platform"})
	logg := logger.New(logger.Options{ServiceName: "routes-test", Output: io.Discard})
	router := NewRouter(cfg, logg, stubPinger{}, nil, eng)

	body, _ := json.Marshal(map[string]string{"principal": "bob", "role": "player"})
	req := httptest.NewRequest(http.MethodPost, "/api/dev/v1/token", bytes.NewReader(body))
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	if resp.Code == http.StatusOK {
		t.Fatal("dev token route must not exist in prod")
	}
}

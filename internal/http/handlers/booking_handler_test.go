// README: Handler tests for session and role checks on the API surface.
package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"

	httptransport "cabdesk/internal/http"
	"cabdesk/internal/infra"
	"cabdesk/internal/modules/booking"
	"cabdesk/internal/modules/wallet"
)

// stubTokenVerifier is a test double for infra.TokenVerifier.
type stubTokenVerifier struct {
	token *infra.SessionToken
	err   error
}

func (s *stubTokenVerifier) VerifyIDToken(_ context.Context, _ string) (*infra.SessionToken, error) {
	return s.token, s.err
}

// buildTestRouter wires the real router with nil-store services. That is
// safe here because every tested path fails on session or input checks
// before any service method runs.
func buildTestRouter(verifier infra.TokenVerifier) http.Handler {
	gin.SetMode(gin.TestMode)
	bookingSvc := booking.NewService(nil, nil, nil, nil, nil)
	walletSvc := wallet.NewService(nil, nil, 500)
	return httptransport.NewRouter(bookingSvc, walletSvc, verifier)
}

func makeVerifier(uid, role string) *stubTokenVerifier {
	claims := map[string]interface{}{}
	if role != "" {
		claims["role"] = role
	}
	return &stubTokenVerifier{token: &infra.SessionToken{UID: uid, Claims: claims}}
}

func doRequest(r http.Handler, method, path string, body interface{}, authHeader string) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if authHeader != "" {
		req.Header.Set("Authorization", authHeader)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

// TestList_Unauthenticated verifies that requests without a valid token are rejected.
func TestList_Unauthenticated(t *testing.T) {
	r := buildTestRouter(&stubTokenVerifier{err: errors.New("no token")})
	w := doRequest(r, http.MethodGet, "/api/bookings", nil, "Bearer badtoken")
	if w.Code != http.StatusUnauthorized {
		t.Errorf("expected 401, got %d", w.Code)
	}
}

func TestList_MissingBearer(t *testing.T) {
	r := buildTestRouter(makeVerifier("v1", "vendor"))
	w := doRequest(r, http.MethodGet, "/api/bookings", nil, "")
	if w.Code != http.StatusUnauthorized {
		t.Errorf("expected 401, got %d", w.Code)
	}
}

// TestList_RequiresVendorRole checks that a driver cannot read the vendor booking list.
func TestList_RequiresVendorRole(t *testing.T) {
	r := buildTestRouter(makeVerifier("d1", "driver"))
	w := doRequest(r, http.MethodGet, "/api/bookings", nil, "Bearer sometoken")
	if w.Code != http.StatusForbidden {
		t.Errorf("expected 403, got %d", w.Code)
	}
}

func TestUpdateStatus_InvalidJSON(t *testing.T) {
	r := buildTestRouter(makeVerifier("v1", "vendor"))
	req := httptest.NewRequest(http.MethodPut, "/api/bookings/b1/status", bytes.NewBufferString("{"))
	req.Header.Set("Authorization", "Bearer sometoken")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if w.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", w.Code)
	}
}

func TestUpdateStatus_UnknownTarget(t *testing.T) {
	r := buildTestRouter(makeVerifier("v1", "vendor"))
	w := doRequest(r, http.MethodPut, "/api/bookings/b1/status",
		map[string]any{"status": "teleported"}, "Bearer sometoken")
	if w.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", w.Code)
	}
}

// TestUpdateStatus_RequiresKnownRole checks that a session without a
// vendor or driver role cannot drive transitions.
func TestUpdateStatus_RequiresKnownRole(t *testing.T) {
	r := buildTestRouter(makeVerifier("u1", ""))
	w := doRequest(r, http.MethodPut, "/api/bookings/b1/status",
		map[string]any{"status": "approved", "driver_id": "d1"}, "Bearer sometoken")
	if w.Code != http.StatusForbidden {
		t.Errorf("expected 403, got %d", w.Code)
	}
}

func TestIssueOtp_RequiresDriverRole(t *testing.T) {
	r := buildTestRouter(makeVerifier("v1", "vendor"))
	w := doRequest(r, http.MethodPost, "/api/bookings/b1/otp/issue", nil, "Bearer sometoken")
	if w.Code != http.StatusForbidden {
		t.Errorf("expected 403, got %d", w.Code)
	}
}

func TestVerifyOtp_RequiresDriverRole(t *testing.T) {
	r := buildTestRouter(makeVerifier("v1", "vendor"))
	w := doRequest(r, http.MethodPost, "/api/bookings/b1/otp/verify",
		map[string]any{"otp": "123456"}, "Bearer sometoken")
	if w.Code != http.StatusForbidden {
		t.Errorf("expected 403, got %d", w.Code)
	}
}

func TestVerifyOtp_MissingCode(t *testing.T) {
	r := buildTestRouter(makeVerifier("d1", "driver"))
	w := doRequest(r, http.MethodPost, "/api/bookings/b1/otp/verify",
		map[string]any{}, "Bearer sometoken")
	if w.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", w.Code)
	}
}

func TestComplete_RequiresDriverRole(t *testing.T) {
	r := buildTestRouter(makeVerifier("v1", "vendor"))
	w := doRequest(r, http.MethodPost, "/api/bookings/b1/complete", nil, "Bearer sometoken")
	if w.Code != http.StatusForbidden {
		t.Errorf("expected 403, got %d", w.Code)
	}
}

func TestWalletGet_RequiresRole(t *testing.T) {
	r := buildTestRouter(makeVerifier("u1", ""))
	w := doRequest(r, http.MethodGet, "/api/wallet", nil, "Bearer sometoken")
	if w.Code != http.StatusForbidden {
		t.Errorf("expected 403, got %d", w.Code)
	}
}

func TestCreateRecharge_RequiresVendorRole(t *testing.T) {
	r := buildTestRouter(makeVerifier("d1", "driver"))
	w := doRequest(r, http.MethodPost, "/api/wallet/recharge/create",
		map[string]any{"amount": 500}, "Bearer sometoken")
	if w.Code != http.StatusForbidden {
		t.Errorf("expected 403, got %d", w.Code)
	}
}

func TestRechargeVerify_MissingOrder(t *testing.T) {
	// The gateway callback route has no session, but it still validates input.
	r := buildTestRouter(makeVerifier("v1", "vendor"))
	w := doRequest(r, http.MethodPost, "/api/wallet/recharge/verify",
		map[string]any{"signature": "abc"}, "")
	if w.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", w.Code)
	}
}

func TestHealth(t *testing.T) {
	r := buildTestRouter(makeVerifier("v1", "vendor"))
	w := doRequest(r, http.MethodGet, "/health", nil, "")
	if w.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", w.Code)
	}
}

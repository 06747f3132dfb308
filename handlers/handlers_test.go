package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"binarymlm-go/config"
	"binarymlm-go/database/dbtest"
	"binarymlm-go/handlers"
	"binarymlm-go/members"
	"binarymlm-go/models"
	"binarymlm-go/recharge"
	"binarymlm-go/utils"

	"github.com/gorilla/mux"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type stubProvider struct{}

func (stubProvider) Recharge(_ context.Context, _ recharge.Order) (*recharge.Response, error) {
	return &recharge.Response{Status: models.RechargeSuccess, Raw: `{"status":"success"}`}, nil
}

type api struct {
	t      *testing.T
	db     *gorm.DB
	router *mux.Router
	plan   models.Plan
}

func newAPI(t *testing.T) *api {
	t.Helper()
	if err := utils.InitializeJWT(strings.Repeat("t", 32)); err != nil {
		t.Fatalf("init jwt: %v", err)
	}
	db := dbtest.OpenSeeded(t)
	plan := models.Plan{Name: "Basic", Price: decimal.NewFromInt(1000), Direct: decimal.NewFromInt(100), Matching: decimal.NewFromInt(100)}
	if err := db.Create(&plan).Error; err != nil {
		t.Fatalf("create plan: %v", err)
	}

	cfg := &config.Config{
		RootUsername:          "admin",
		AdminCode:             "let-me-in",
		PublicBaseURL:         "https://mlm.example.com",
		RechargeSharePercent:  decimal.NewFromInt(4),
		RechargeResalePercent: decimal.NewFromInt(50),
	}
	services := handlers.NewServices(db, cfg, stubProvider{}, members.LogNotifier{})
	h := handlers.NewHandlers(db, cfg, services)
	return &api{t: t, db: db, router: h.Router(nil), plan: plan}
}

func (a *api) do(method, path, token string, body interface{}) *httptest.ResponseRecorder {
	a.t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			a.t.Fatalf("encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	a.router.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(rec.Body.Bytes(), &v); err != nil {
		t.Fatalf("decode %s: %v", rec.Body.String(), err)
	}
	return v
}

func (a *api) register(body map[string]string) {
	a.t.Helper()
	rec := a.do(http.MethodPost, "/api/register", "", body)
	if rec.Code != http.StatusCreated {
		a.t.Fatalf("register %s: expected 201, got %d: %s", body["username"], rec.Code, rec.Body.String())
	}
}

func (a *api) login(username string) string {
	a.t.Helper()
	rec := a.do(http.MethodPost, "/api/login", "", map[string]string{"username": username, "password": "password123"})
	if rec.Code != http.StatusOK {
		a.t.Fatalf("login %s: expected 200, got %d: %s", username, rec.Code, rec.Body.String())
	}
	return decode[models.LoginResponse](a.t, rec).Token
}

func signup(username, sponsor, position string) map[string]string {
	return map[string]string{
		"email":            username + "@example.com",
		"password":         "password123",
		"first_name":       "Test",
		"last_name":        "Member",
		"username":         username,
		"sponsor_username": sponsor,
		"position":         position,
	}
}

func TestHealth(t *testing.T) {
	a := newAPI(t)
	rec := a.do(http.MethodGet, "/api/health", "", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
}

func TestRegisterValidation(t *testing.T) {
	a := newAPI(t)

	rec := a.do(http.MethodPost, "/api/register", "", map[string]string{"email": "nope"})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}

	rec = a.do(http.MethodPost, "/api/register", "", signup("ghost1", "nobody", "Left"))
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for unknown sponsor, got %d: %s", rec.Code, rec.Body.String())
	}
	if body := decode[handlers.ErrorResponse](t, rec); body.Code != "SPONSOR_NOT_FOUND" {
		t.Fatalf("expected SPONSOR_NOT_FOUND, got %q", body.Code)
	}

	bad := signup("ghost2", "", "Left")
	bad["admin_code"] = "wrong"
	if rec = a.do(http.MethodPost, "/api/register", "", bad); rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for wrong admin code, got %d", rec.Code)
	}
}

func TestLoginRejectsBadPassword(t *testing.T) {
	a := newAPI(t)
	a.register(signup("alice1", "", ""))

	rec := a.do(http.MethodPost, "/api/login", "", map[string]string{"username": "alice1", "password": "wrong-pass"})
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
	rec = a.do(http.MethodPost, "/api/login", "", map[string]string{"username": "alice1@example.com", "password": "password123"})
	if rec.Code != http.StatusOK {
		t.Fatalf("expected login by email to work, got %d", rec.Code)
	}
}

func TestMemberJourney(t *testing.T) {
	a := newAPI(t)

	admin := signup("boss1", "", "Right")
	admin["admin_code"] = "let-me-in"
	a.register(admin)
	adminToken := a.login("boss1")

	a.register(signup("alice1", "", "Left"))
	a.register(signup("bobby1", "alice1", "Left"))
	a.register(signup("carol1", "alice1", "Right"))
	aliceToken := a.login("alice1")

	var alice models.Member
	if err := a.db.Where("username = ?", "alice1").First(&alice).Error; err != nil {
		t.Fatalf("load alice: %v", err)
	}

	// Members cannot use admin routes.
	if rec := a.do(http.MethodGet, "/api/admin/members", aliceToken, nil); rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403 for member on admin route, got %d", rec.Code)
	}

	rec := a.do(http.MethodPost, "/api/plans/activate", aliceToken, map[string]uint{"plan_id": a.plan.ID})
	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422 without funds, got %d: %s", rec.Code, rec.Body.String())
	}

	rec = a.do(http.MethodPost, fmt.Sprintf("/api/admin/members/%d/fund", alice.ID), adminToken,
		map[string]string{"amount": "1500", "description": "cash deposit"})
	if rec.Code != http.StatusOK {
		t.Fatalf("fund: expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	rec = a.do(http.MethodPost, "/api/plans/activate", aliceToken, map[string]uint{"plan_id": a.plan.ID})
	if rec.Code != http.StatusCreated {
		t.Fatalf("activate: expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
	rec = a.do(http.MethodPost, "/api/plans/activate", aliceToken, map[string]uint{"plan_id": a.plan.ID})
	if rec.Code != http.StatusConflict {
		t.Fatalf("expected 409 on second activation, got %d", rec.Code)
	}

	rec = a.do(http.MethodGet, "/api/member/dashboard", aliceToken, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("dashboard: expected 200, got %d", rec.Code)
	}
	dash := decode[struct {
		Member     models.Member      `json:"member"`
		Left       struct{ Total int } `json:"left"`
		Right      struct{ Total int } `json:"right"`
		ActivePlan *models.MemberPlan `json:"active_plan"`
	}](t, rec)
	if dash.Member.Status != models.StatusActive || dash.ActivePlan == nil {
		t.Fatalf("expected active member with plan, got %+v", dash)
	}
	if dash.Left.Total != 1 || dash.Right.Total != 1 {
		t.Fatalf("expected one member per leg, got %d/%d", dash.Left.Total, dash.Right.Total)
	}
	if !dash.Member.AccountBalance.Equal(decimal.NewFromInt(500)) {
		t.Fatalf("expected account 500 after purchase, got %s", dash.Member.AccountBalance)
	}

	rec = a.do(http.MethodGet, "/api/member/genealogy?depth=2", aliceToken, nil)
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), "bobby1") {
		t.Fatalf("expected genealogy with bobby1, got %d: %s", rec.Code, rec.Body.String())
	}

	rec = a.do(http.MethodGet, "/api/member/referral-links", aliceToken, nil)
	links := decode[map[string]string](t, rec)
	if !strings.Contains(links["left"], "sponsor=alice1") || !strings.Contains(links["right"], "position=Right") {
		t.Fatalf("unexpected referral links %v", links)
	}

	rec = a.do(http.MethodPost, "/api/recharge", aliceToken,
		map[string]interface{}{"mobile_no": "9876543210", "amount": "100", "company_name": "jio"})
	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422 with empty wallet, got %d: %s", rec.Code, rec.Body.String())
	}

	rec = a.do(http.MethodPost, fmt.Sprintf("/api/admin/members/%d/fund", alice.ID), adminToken,
		map[string]string{"amount": "100", "wallet": "wallet"})
	if rec.Code != http.StatusOK {
		t.Fatalf("fund wallet: expected 200, got %d", rec.Code)
	}
	rec = a.do(http.MethodPost, "/api/recharge", aliceToken,
		map[string]interface{}{"mobile_no": "9876543210", "amount": "100", "company_name": "jio"})
	if rec.Code != http.StatusCreated {
		t.Fatalf("recharge: expected 201, got %d: %s", rec.Code, rec.Body.String())
	}

	rec = a.do(http.MethodGet, "/api/recharge/history", aliceToken, nil)
	if hist := decode[[]models.RechargeTransaction](t, rec); len(hist) != 1 {
		t.Fatalf("expected one recharge in history, got %d", len(hist))
	}

	rec = a.do(http.MethodGet, "/api/admin/audit-logs", adminToken, nil)
	if logs := decode[[]models.AuditLog](t, rec); len(logs) == 0 {
		t.Fatalf("expected audit log entries")
	}

	rec = a.do(http.MethodGet, "/api/admin/wallet", adminToken, nil)
	wallet := decode[models.CompanyWallet](t, rec)
	// 1000 plan price, recharge share of 4 leaves 996.
	if !wallet.Balance.Equal(decimal.NewFromInt(996)) {
		t.Fatalf("expected company wallet 996, got %s", wallet.Balance)
	}

	rec = a.do(http.MethodPost, "/api/admin/wallet/credit", adminToken,
		map[string]string{"amount": "25", "pool": "charges"})
	if rec.Code != http.StatusOK {
		t.Fatalf("credit charges: expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	rec = a.do(http.MethodPost, "/api/admin/wallet/credit", adminToken,
		map[string]string{"amount": "25", "pool": "bonus"})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("unknown pool: expected 400, got %d", rec.Code)
	}
	rec = a.do(http.MethodGet, "/api/admin/wallet", adminToken, nil)
	wallet = decode[models.CompanyWallet](t, rec)
	if !wallet.Balance.Equal(decimal.NewFromInt(996)) || !wallet.ChargesBalance.Equal(decimal.NewFromInt(25)) {
		t.Fatalf("expected balance 996 and charges 25, got %s and %s", wallet.Balance, wallet.ChargesBalance)
	}
}

func TestMemberSearch(t *testing.T) {
	a := newAPI(t)
	a.register(signup("alice1", "", "Left"))
	a.register(signup("malice2", "", "Right"))
	token := a.login("alice1")

	if rec := a.do(http.MethodGet, "/api/members/search?q=alice", "", nil); rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without token, got %d", rec.Code)
	}

	type result struct {
		Members []members.SearchResult `json:"members"`
	}
	rec := a.do(http.MethodGet, "/api/members/search?q=LIC", token, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if got := decode[result](t, rec).Members; len(got) != 2 || got[0].Username != "alice1" {
		t.Fatalf("expected alice1 and malice2, got %+v", got)
	}

	rec = a.do(http.MethodGet, "/api/members/search?q=al", token, nil)
	if got := decode[result](t, rec).Members; got == nil || len(got) != 0 {
		t.Fatalf("expected empty list for short query, got %+v", got)
	}
}

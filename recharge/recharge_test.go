package recharge_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"binarymlm-go/apperrors"
	"binarymlm-go/database/dbtest"
	"binarymlm-go/ledger"
	"binarymlm-go/models"
	"binarymlm-go/recharge"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

func d(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

type fakeProvider struct {
	status string
	err    error
	calls  int
	last   recharge.Order
}

func (f *fakeProvider) Recharge(_ context.Context, order recharge.Order) (*recharge.Response, error) {
	f.calls++
	f.last = order
	if f.err != nil {
		return nil, f.err
	}
	return &recharge.Response{Status: f.status, Raw: `{"status":"` + f.status + `"}`}, nil
}

type env struct {
	t        *testing.T
	db       *gorm.DB
	ctx      context.Context
	member   uint
	provider *fakeProvider
	svc      *recharge.Service
}

func setup(t *testing.T, wallet, company string) *env {
	t.Helper()
	db := dbtest.OpenSeeded(t)
	ctx := context.Background()

	m := models.Member{Username: "caller", Status: models.StatusActive}
	if err := db.Create(&m).Error; err != nil {
		t.Fatalf("create member: %v", err)
	}
	if _, err := ledger.MemberWallet(db, m.ID).Credit(ctx, d(wallet)); err != nil {
		t.Fatalf("fund member: %v", err)
	}
	if _, err := ledger.CompanyWallet(db).Credit(ctx, d(company)); err != nil {
		t.Fatalf("fund company: %v", err)
	}
	p := &fakeProvider{status: models.RechargeSuccess}
	return &env{
		t: t, db: db, ctx: ctx, member: m.ID, provider: p,
		svc: recharge.NewService(db, p, d("4"), d("50")),
	}
}

func (e *env) load() models.Member {
	e.t.Helper()
	var m models.Member
	if err := e.db.First(&m, e.member).Error; err != nil {
		e.t.Fatalf("load member: %v", err)
	}
	return m
}

func (e *env) company() decimal.Decimal {
	e.t.Helper()
	bal, err := ledger.CompanyWallet(e.db).Balance(e.ctx)
	if err != nil {
		e.t.Fatalf("company balance: %v", err)
	}
	return bal
}

func request(amount string) models.RechargeRequest {
	return models.RechargeRequest{MobileNo: "9876543210", Amount: d(amount), CompanyName: "jio"}
}

func TestRechargeSuccessPaysResaleShare(t *testing.T) {
	e := setup(t, "150", "10")

	res, err := e.svc.Recharge(e.ctx, e.member, request("100"))
	if err != nil {
		t.Fatalf("recharge: %v", err)
	}
	if res.Transaction.Status != models.RechargeSuccess {
		t.Fatalf("expected success, got %s", res.Transaction.Status)
	}
	if len(res.Transaction.OrderID) != 10 || res.Transaction.OrderID != e.provider.last.OrderID {
		t.Fatalf("expected 10-digit order id sent to provider, got %q vs %q", res.Transaction.OrderID, e.provider.last.OrderID)
	}
	if !res.Sharable.Equal(d("4")) || !res.ResaleIncome.Equal(d("2")) {
		t.Fatalf("expected sharable 4 and resale 2, got %s and %s", res.Sharable, res.ResaleIncome)
	}

	m := e.load()
	if !m.WalletBalance.Equal(d("52")) {
		t.Fatalf("expected wallet 150-100+2=52, got %s", m.WalletBalance)
	}
	if !m.ResaleIncome.Equal(d("2")) {
		t.Fatalf("expected resale income 2, got %s", m.ResaleIncome)
	}
	if got := e.company(); !got.Equal(d("6")) {
		t.Fatalf("expected company wallet 6, got %s", got)
	}
}

func TestRechargeFailureIsRefunded(t *testing.T) {
	e := setup(t, "150", "10")
	e.provider.err = errors.New("connection refused")

	res, err := e.svc.Recharge(e.ctx, e.member, request("100"))
	if err != nil {
		t.Fatalf("recharge: %v", err)
	}
	if res.Transaction.Status != models.RechargeFailed {
		t.Fatalf("expected failed, got %s", res.Transaction.Status)
	}
	if got := e.load().WalletBalance; !got.Equal(d("150")) {
		t.Fatalf("expected wallet refunded to 150, got %s", got)
	}
	if got := e.company(); !got.Equal(d("10")) {
		t.Fatalf("expected company wallet untouched, got %s", got)
	}
	var n int64
	e.db.Model(&models.IncomeHistory{}).Count(&n)
	if n != 0 {
		t.Fatalf("expected no income rows, got %d", n)
	}
}

func TestRechargeRejectsBeforeCallingProvider(t *testing.T) {
	e := setup(t, "50", "10")

	if _, err := e.svc.Recharge(e.ctx, e.member, request("100")); !errors.Is(err, apperrors.ErrInsufficientFunds) {
		t.Fatalf("expected insufficient funds, got %v", err)
	}
	if _, err := e.svc.Recharge(e.ctx, e.member, request("0")); !errors.Is(err, apperrors.ErrInvalidAmount) {
		t.Fatalf("expected invalid amount, got %v", err)
	}
	if _, err := e.svc.Recharge(e.ctx, 9999, request("10")); !errors.Is(err, apperrors.ErrMemberNotFound) {
		t.Fatalf("expected member not found, got %v", err)
	}
	if e.provider.calls != 0 {
		t.Fatalf("provider must not be called, got %d calls", e.provider.calls)
	}
	var n int64
	e.db.Model(&models.RechargeTransaction{}).Count(&n)
	if n != 0 {
		t.Fatalf("expected no recharge rows, got %d", n)
	}
}

func TestRechargeCompanyShortfallKeepsResale(t *testing.T) {
	e := setup(t, "100", "0")

	res, err := e.svc.Recharge(e.ctx, e.member, request("100"))
	if err != nil {
		t.Fatalf("recharge: %v", err)
	}
	if res.WalletError == "" {
		t.Fatalf("expected company shortfall to be reported")
	}
	if got := e.load().WalletBalance; !got.Equal(d("2")) {
		t.Fatalf("expected resale credited, wallet 2, got %s", got)
	}
	if got := e.company(); !got.IsZero() {
		t.Fatalf("expected company wallet to stay 0, got %s", got)
	}
}

func TestHistoryNewestFirst(t *testing.T) {
	e := setup(t, "500", "100")
	var ids []string
	for _, amt := range []string{"10", "20", "30"} {
		res, err := e.svc.Recharge(e.ctx, e.member, request(amt))
		if err != nil {
			t.Fatalf("recharge %s: %v", amt, err)
		}
		ids = append(ids, res.Transaction.OrderID)
	}

	hist, err := e.svc.History(e.ctx, e.member, 2)
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	if len(hist) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(hist))
	}
	if hist[0].OrderID != ids[2] || hist[1].OrderID != ids[1] {
		t.Fatalf("expected newest first, got %s, %s", hist[0].OrderID, hist[1].OrderID)
	}
}

func TestHTTPProviderPostsForm(t *testing.T) {
	var form map[string]string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseForm(); err != nil {
			t.Errorf("parse form: %v", err)
		}
		form = map[string]string{}
		for k := range r.PostForm {
			form[k] = r.PostForm.Get(k)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"status":"SUCCESS","txid":"abc"}`))
	}))
	defer srv.Close()

	p := recharge.NewHTTPProvider(srv.URL, "token-1")
	resp, err := p.Recharge(context.Background(), recharge.Order{
		OrderID: "1234567890", MobileNo: "9876543210", CompanyName: "airtel", Amount: d("199"),
	})
	if err != nil {
		t.Fatalf("recharge: %v", err)
	}
	if resp.Status != models.RechargeSuccess {
		t.Fatalf("expected success, got %q", resp.Status)
	}
	if form["company_id"] != "2" || form["api_token"] != "token-1" || form["amount"] != "199" {
		t.Fatalf("unexpected form %+v", form)
	}

	if _, err := p.Recharge(context.Background(), recharge.Order{CompanyName: "nope"}); err == nil {
		t.Fatalf("expected error for unknown operator")
	}
}

package recharge

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// CompanyIDs are the operator codes the provider expects.
var CompanyIDs = map[string]int{
	"vi":     1,
	"airtel": 2,
	"bsnl":   4,
	"jio":    5,
}

// Order is one recharge sent to the provider.
type Order struct {
	OrderID     string
	MobileNo    string
	CompanyName string
	Amount      decimal.Decimal
	IsSTV       bool
}

// Response is the provider's answer. Raw is kept verbatim for the audit trail.
type Response struct {
	Status string
	Raw    string
}

type Provider interface {
	Recharge(ctx context.Context, order Order) (*Response, error)
}

// HTTPProvider posts orders as a form to a recharge API.
type HTTPProvider struct {
	URL    string
	Token  string
	Client *http.Client
}

func NewHTTPProvider(apiURL, token string) *HTTPProvider {
	return &HTTPProvider{
		URL:    apiURL,
		Token:  token,
		Client: &http.Client{Timeout: 30 * time.Second},
	}
}

func (p *HTTPProvider) Recharge(ctx context.Context, order Order) (*Response, error) {
	companyID, ok := CompanyIDs[strings.ToLower(order.CompanyName)]
	if !ok {
		return nil, fmt.Errorf("unknown operator %q", order.CompanyName)
	}

	form := url.Values{}
	form.Set("api_token", p.Token)
	form.Set("mobile_no", order.MobileNo)
	form.Set("amount", order.Amount.String())
	form.Set("company_id", strconv.Itoa(companyID))
	form.Set("order_id", order.OrderID)
	form.Set("is_stv", strconv.FormatBool(order.IsSTV))

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.URL, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, fmt.Errorf("build recharge request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := p.Client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("recharge request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("read recharge response: %w", err)
	}
	if resp.StatusCode >= 300 {
		return &Response{Status: "failed", Raw: string(body)}, nil
	}

	var parsed struct {
		Status string `json:"status"`
	}
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, fmt.Errorf("decode recharge response: %w", err)
	}
	return &Response{Status: strings.ToLower(parsed.Status), Raw: string(body)}, nil
}

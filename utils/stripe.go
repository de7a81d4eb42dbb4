package utils

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"
)

// Stripe Checkout client. Only the two calls the storefront needs are
// implemented: create a hosted checkout session, and fetch a session back to
// verify its payment status. Requests are form-encoded per the Stripe API.

const defaultStripeBaseURL = "https://api.stripe.com"

var stripeHTTPClient = &http.Client{Timeout: 15 * time.Second}

func getStripeConfig() (baseURL, secretKey string, err error) {
	baseURL = os.Getenv("STRIPE_BASE_URL")
	if baseURL == "" {
		baseURL = defaultStripeBaseURL
	}
	secretKey = os.Getenv("STRIPE_SECRET_KEY")
	if secretKey == "" {
		return "", "", fmt.Errorf("STRIPE_SECRET_KEY is not set")
	}
	return baseURL, secretKey, nil
}

// CheckoutSession is the subset of the Stripe session object we consume.
type CheckoutSession struct {
	ID            string `json:"id"`
	URL           string `json:"url"`
	PaymentStatus string `json:"payment_status"`
	Status        string `json:"status"`
	AmountTotal   int64  `json:"amount_total"`
	Currency      string `json:"currency"`
}

type stripeErrorBody struct {
	Error struct {
		Type    string `json:"type"`
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

// CreateCheckoutSession opens a hosted checkout session for a single unit of
// the named product. unitAmount is in minor units (cents).
func CreateCheckoutSession(ctx context.Context, productName string, unitAmount int64, successURL, cancelURL string) (*CheckoutSession, error) {
	baseURL, secretKey, err := getStripeConfig()
	if err != nil {
		return nil, err
	}

	form := url.Values{}
	form.Set("mode", "payment")
	form.Set("payment_method_types[0]", "card")
	form.Set("line_items[0][price_data][currency]", getenvDefault("STRIPE_CURRENCY", "usd"))
	form.Set("line_items[0][price_data][unit_amount]", strconv.FormatInt(unitAmount, 10))
	form.Set("line_items[0][price_data][product_data][name]", productName)
	form.Set("line_items[0][quantity]", "1")
	form.Set("success_url", successURL)
	form.Set("cancel_url", cancelURL)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, baseURL+"/v1/checkout/sessions", strings.NewReader(form.Encode()))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+secretKey)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	return doStripeRequest(req)
}

// GetCheckoutSession fetches a session by id, used to verify payment_status
// before a key is issued.
func GetCheckoutSession(ctx context.Context, sessionID string) (*CheckoutSession, error) {
	baseURL, secretKey, err := getStripeConfig()
	if err != nil {
		return nil, err
	}
	if sessionID == "" {
		return nil, fmt.Errorf("empty session id")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, baseURL+"/v1/checkout/sessions/"+url.PathEscape(sessionID), nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+secretKey)

	return doStripeRequest(req)
}

func doStripeRequest(req *http.Request) (*CheckoutSession, error) {
	resp, err := stripeHTTPClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("stripe request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("stripe response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var eb stripeErrorBody
		if json.Unmarshal(body, &eb) == nil && eb.Error.Message != "" {
			return nil, fmt.Errorf("stripe: %s (%s)", eb.Error.Message, eb.Error.Type)
		}
		return nil, fmt.Errorf("stripe: unexpected status %d", resp.StatusCode)
	}

	var session CheckoutSession
	if err := json.Unmarshal(body, &session); err != nil {
		return nil, fmt.Errorf("stripe: decode session: %w", err)
	}
	if session.ID == "" {
		return nil, fmt.Errorf("stripe: session id missing in response")
	}
	return &session, nil
}

func getenvDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

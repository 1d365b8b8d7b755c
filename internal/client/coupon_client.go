package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"cake_heaven_back_end/internal/coupon"
	"cake_heaven_back_end/internal/models"
)

const defaultTimeout = 10 * time.Second

// ErrUnavailable wraps every failure that says nothing about the coupon itself.
var ErrUnavailable = errors.New("coupon service unavailable")

type tokenKey struct{}

// WithBearerToken attaches the shopper's token, forwarded on calls made with ctx.
func WithBearerToken(ctx context.Context, token string) context.Context {
	return context.WithValue(ctx, tokenKey{}, token)
}

func bearerToken(ctx context.Context) string {
	token, _ := ctx.Value(tokenKey{}).(string)
	return token
}

// CouponClient talks to a remote coupon service over HTTP.
type CouponClient struct {
	baseURL string
	http    *http.Client
}

func NewCouponClient(baseURL string, httpClient *http.Client) *CouponClient {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: defaultTimeout}
	}
	return &CouponClient{baseURL: baseURL, http: httpClient}
}

type errorBody struct {
	Error  string `json:"error"`
	Reason string `json:"reason"`
}

// Apply asks the service to price code against the cart. Refusals come back as
// *coupon.RejectionError; anything else wraps ErrUnavailable.
func (c *CouponClient) Apply(ctx context.Context, _ string, req models.ApplyRequest) (models.AppliedCoupon, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return models.AppliedCoupon{}, fmt.Errorf("json.Marshal: %w", err)
	}

	resp, err := c.do(ctx, http.MethodPost, "/coupons/apply", bytes.NewReader(body))
	if err != nil {
		return models.AppliedCoupon{}, err
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusOK:
		var applied models.AppliedCoupon
		if err := json.NewDecoder(resp.Body).Decode(&applied); err != nil {
			return models.AppliedCoupon{}, fmt.Errorf("%w: decode response: %v", ErrUnavailable, err)
		}
		return applied, nil

	case isRejection(resp.StatusCode):
		var eb errorBody
		if err := json.NewDecoder(resp.Body).Decode(&eb); err != nil || eb.Error == "" {
			return models.AppliedCoupon{}, fmt.Errorf("%w: status %d", ErrUnavailable, resp.StatusCode)
		}
		reason := coupon.Reason(eb.Reason)
		if reason == "" {
			reason = coupon.ReasonNotFound
		}
		return models.AppliedCoupon{}, &coupon.RejectionError{Reason: reason, Message: eb.Error}

	default:
		_, _ = io.Copy(io.Discard, resp.Body)
		return models.AppliedCoupon{}, fmt.Errorf("%w: status %d", ErrUnavailable, resp.StatusCode)
	}
}

// ActiveCoupons lists the coupons currently offered to shoppers.
func (c *CouponClient) ActiveCoupons(ctx context.Context) ([]models.Coupon, error) {
	resp, err := c.do(ctx, http.MethodGet, "/coupons/active", nil)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil, fmt.Errorf("%w: status %d", ErrUnavailable, resp.StatusCode)
	}

	var out struct {
		Coupons []models.Coupon `json:"coupons"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("%w: decode response: %v", ErrUnavailable, err)
	}
	return out.Coupons, nil
}

func (c *CouponClient) do(ctx context.Context, method, path string, body io.Reader) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return nil, fmt.Errorf("http.NewRequest: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token := bearerToken(ctx); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return resp, nil
}

// isRejection reports whether the status carries a verdict on the coupon. Auth failures and
// throttling do not, so they are treated as the service being unavailable.
func isRejection(status int) bool {
	switch status {
	case http.StatusBadRequest, http.StatusNotFound, http.StatusConflict, http.StatusUnprocessableEntity:
		return true
	}
	return false
}

package gateway

import (
	"bytes"
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

	"paygate/internal/config"
)

const (
	sandboxBaseURL    = "https://sandbox.api.pagseguro.com"
	productionBaseURL = "https://api.pagseguro.com"

	// Order and charge creation get a generous timeout; lookups stay short.
	createTimeout = 30 * time.Second
	lookupTimeout = 10 * time.Second
)

// Defaults applied when the caller leaves customer fields empty. PagBank
// rejects orders without a tax id and at least one phone.
const (
	defaultCustomerName = "Cliente"
	defaultTaxID        = "12345678909"
)

// Client talks to the PagBank v4 REST API. The environment (and therefore
// the base URL) is resolved once at construction and never changes.
type Client struct {
	baseURL         string
	token           string
	notificationURL string
	httpClient      *http.Client
}

// NewClient creates a PagBank client for the configured environment.
func NewClient(cfg config.PagBankConfig) *Client {
	baseURL := productionBaseURL
	if cfg.Environment == "sandbox" {
		baseURL = sandboxBaseURL
	}

	return &Client{
		baseURL:         baseURL,
		token:           cfg.Token,
		notificationURL: cfg.NotificationURL,
		httpClient:      &http.Client{},
	}
}

// wire payload shapes for the v4 API

type orderPayload struct {
	ReferenceID      string             `json:"reference_id"`
	Customer         customerPayload    `json:"customer"`
	Items            []orderItemPayload `json:"items"`
	NotificationURLs []string           `json:"notification_urls,omitempty"`
}

type customerPayload struct {
	Name   string         `json:"name"`
	Email  string         `json:"email"`
	TaxID  string         `json:"tax_id"`
	Phones []phonePayload `json:"phones,omitempty"`
}

type phonePayload struct {
	Country string `json:"country"`
	Area    string `json:"area"`
	Number  string `json:"number"`
	Type    string `json:"type"`
}

type orderItemPayload struct {
	ReferenceID string `json:"reference_id"`
	Name        string `json:"name"`
	Quantity    int    `json:"quantity"`
	UnitAmount  int64  `json:"unit_amount"`
}

type chargePayload struct {
	ReferenceID      string               `json:"reference_id"`
	Description      string               `json:"description"`
	Amount           amountPayload        `json:"amount"`
	PaymentMethod    paymentMethodPayload `json:"payment_method"`
	Customer         customerPayload      `json:"customer"`
	NotificationURLs []string             `json:"notification_urls,omitempty"`
}

type amountPayload struct {
	Value    int64  `json:"value"`
	Currency string `json:"currency"`
}

type paymentMethodPayload struct {
	Type         string      `json:"type"`
	Installments int         `json:"installments"`
	Capture      bool        `json:"capture"`
	Card         cardPayload `json:"card"`
}

type cardPayload struct {
	Encrypted    string        `json:"encrypted"`
	SecurityCode string        `json:"security_code"`
	Holder       holderPayload `json:"holder"`
}

type holderPayload struct {
	Name string `json:"name"`
}

type orderResponse struct {
	ID     string `json:"id"`
	Status string `json:"status"`
	Links  []struct {
		Rel  string `json:"rel"`
		Href string `json:"href"`
	} `json:"links"`
	Charges []struct {
		Status string `json:"status"`
	} `json:"charges"`
}

type chargeResponse struct {
	ID              string          `json:"id"`
	Status          string          `json:"status"`
	PaymentResponse json.RawMessage `json:"payment_response"`
}

type errorResponse struct {
	ErrorMessages []struct {
		Code        string `json:"code"`
		Description string `json:"description"`
	} `json:"error_messages"`
}

// CreateOrder creates an order with a hosted checkout link.
func (c *Client) CreateOrder(ctx context.Context, req OrderRequest) (*Order, error) {
	payload := orderPayload{
		ReferenceID: req.ReferenceID,
		Customer:    c.buildCustomer(req.Customer),
		Items:       make([]orderItemPayload, 0, len(req.Items)),
	}

	for idx, item := range req.Items {
		payload.Items = append(payload.Items, orderItemPayload{
			ReferenceID: strconv.Itoa(idx + 1),
			Name:        item.Title,
			Quantity:    item.Quantity,
			UnitAmount:  minorUnits(item.UnitPrice),
		})
	}

	if notifyURL := c.notificationURL; isHTTPSURL(notifyURL) {
		payload.NotificationURLs = []string{notifyURL}
	}

	body, err := c.do(ctx, http.MethodPost, "/orders", payload, createTimeout, http.StatusCreated)
	if err != nil {
		return nil, err
	}

	var resp orderResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, &Error{Kind: KindGateway, Message: "malformed order response: " + err.Error(), HTTPStatus: http.StatusCreated}
	}

	order := &Order{ID: resp.ID, Raw: body}
	for _, link := range resp.Links {
		if link.Rel == "PAY" {
			order.PaymentURL = link.Href
			break
		}
	}

	return order, nil
}

// GetOrder looks up an order. The returned status is taken from the order's
// first charge when present.
func (c *Client) GetOrder(ctx context.Context, orderID string) (*OrderStatus, error) {
	body, err := c.do(ctx, http.MethodGet, "/orders/"+url.PathEscape(orderID), nil, lookupTimeout, http.StatusOK)
	if err != nil {
		return nil, err
	}

	var resp orderResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, &Error{Kind: KindGateway, Message: "malformed order response: " + err.Error(), HTTPStatus: http.StatusOK}
	}

	status := resp.Status
	if len(resp.Charges) > 0 && resp.Charges[0].Status != "" {
		status = resp.Charges[0].Status
	}

	return &OrderStatus{ID: resp.ID, Status: status, Raw: body}, nil
}

// CreateCharge creates a direct credit card charge.
func (c *Client) CreateCharge(ctx context.Context, req ChargeRequest) (*Charge, error) {
	installments := req.Card.Installments
	if installments < 1 {
		installments = 1
	}

	payload := chargePayload{
		ReferenceID: req.ReferenceID,
		Description: req.Description,
		Amount: amountPayload{
			Value:    minorUnits(req.Amount),
			Currency: "BRL",
		},
		PaymentMethod: paymentMethodPayload{
			Type:         "CREDIT_CARD",
			Installments: installments,
			Capture:      true,
			Card: cardPayload{
				Encrypted:    req.Card.Encrypted,
				SecurityCode: req.Card.SecurityCode,
				Holder:       holderPayload{Name: req.Card.HolderName},
			},
		},
		Customer: c.buildCustomer(req.Customer),
	}

	if notifyURL := c.notificationURL; isHTTPSURL(notifyURL) {
		payload.NotificationURLs = []string{notifyURL}
	}

	body, err := c.do(ctx, http.MethodPost, "/charges", payload, createTimeout, http.StatusCreated)
	if err != nil {
		return nil, err
	}

	var resp chargeResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, &Error{Kind: KindGateway, Message: "malformed charge response: " + err.Error(), HTTPStatus: http.StatusCreated}
	}

	return &Charge{ID: resp.ID, Status: resp.Status, PaymentResponse: resp.PaymentResponse}, nil
}

// do issues one request and returns the body on the expected status.
// Every failure path comes back as *Error; transport problems map to
// KindNetwork, everything else to KindGateway.
func (c *Client) do(ctx context.Context, method, path string, payload any, timeout time.Duration, wantStatus int) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	var reqBody io.Reader
	if payload != nil {
		encoded, err := json.Marshal(payload)
		if err != nil {
			return nil, &Error{Kind: KindGateway, Message: "encode request: " + err.Error()}
		}
		reqBody = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return nil, &Error{Kind: KindGateway, Message: "build request: " + err.Error()}
	}

	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &Error{Kind: KindNetwork, Message: err.Error()}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &Error{Kind: KindNetwork, Message: "read response: " + err.Error()}
	}

	if resp.StatusCode != wantStatus {
		return nil, &Error{Kind: KindGateway, Message: errorMessage(body), HTTPStatus: resp.StatusCode}
	}

	return body, nil
}

func (c *Client) buildCustomer(customer Customer) customerPayload {
	name := customer.Name
	if name == "" {
		name = defaultCustomerName
	}

	taxID := customer.TaxID
	if taxID == "" {
		taxID = defaultTaxID
	}

	return customerPayload{
		Name:  name,
		Email: customer.Email,
		TaxID: taxID,
		Phones: []phonePayload{
			{Country: "55", Area: "11", Number: "999999999", Type: "MOBILE"},
		},
	}
}

// errorMessage flattens the v4 error_messages array into a single line,
// falling back to the raw body.
func errorMessage(body []byte) string {
	var resp errorResponse
	if err := json.Unmarshal(body, &resp); err == nil && len(resp.ErrorMessages) > 0 {
		parts := make([]string, 0, len(resp.ErrorMessages))
		for _, msg := range resp.ErrorMessages {
			parts = append(parts, fmt.Sprintf("%s: %s", msg.Code, msg.Description))
		}
		return strings.Join(parts, "; ")
	}
	return string(body)
}

// minorUnits converts a currency-unit amount to integer cents.
func minorUnits(amount decimal.Decimal) int64 {
	return amount.Shift(2).Round(0).IntPart()
}

func isHTTPSURL(raw string) bool {
	if raw == "" {
		return false
	}
	u, err := url.Parse(raw)
	return err == nil && u.Scheme == "https" && u.Host != ""
}

// Package gateway is the client for the Asaas v3 payments API used for PIX deposits.
package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/shopspring/decimal"

	"github.com/powerpix/powerpix-api/internal/domain"
)

const defaultTimeout = 30 * time.Second

var ErrCustomerNotFound = errors.New("gateway customer not found")

// APIError is a non-2xx answer from the gateway.
type APIError struct {
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("gateway responded %d: %s", e.StatusCode, e.Body)
}

type Config struct {
	BaseURL string
	APIKey  string
	Timeout time.Duration
}

type Customer struct {
	ID                string `json:"id"`
	Name              string `json:"name"`
	CpfCnpj           string `json:"cpfCnpj"`
	Phone             string `json:"phone"`
	ExternalReference string `json:"externalReference"`
}

type CustomerInput struct {
	Name              string
	CpfCnpj           string
	Phone             string
	ExternalReference string
}

type ChargeInput struct {
	CustomerID        string
	Value             domain.Money
	DueDate           time.Time
	Description       string
	ExternalReference string
}

type Charge struct {
	ID                string
	Status            string
	Value             domain.Money
	DueDate           string
	InvoiceURL        string
	ExternalReference string
}

type PixQRCode struct {
	EncodedImage   string `json:"encodedImage"`
	Payload        string `json:"payload"`
	ExpirationDate string `json:"expirationDate"`
}

type paymentBody struct {
	ID                string          `json:"id"`
	Status            string          `json:"status"`
	Value             decimal.Decimal `json:"value"`
	DueDate           string          `json:"dueDate"`
	InvoiceURL        string          `json:"invoiceUrl"`
	ExternalReference string          `json:"externalReference"`
}

func (p paymentBody) charge() Charge {
	return Charge{
		ID:                p.ID,
		Status:            p.Status,
		Value:             domain.MoneyFromDecimal(p.Value),
		DueDate:           p.DueDate,
		InvoiceURL:        p.InvoiceURL,
		ExternalReference: p.ExternalReference,
	}
}

type Client struct {
	http *resty.Client
}

func NewClient(cfg Config) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}

	http := resty.New().
		SetBaseURL(cfg.BaseURL).
		SetTimeout(timeout).
		SetHeader("access_token", cfg.APIKey).
		SetHeader("Content-Type", "application/json").
		SetHeader("Accept", "application/json")

	return &Client{http: http}
}

func (c *Client) CreateCustomer(ctx context.Context, in CustomerInput) (Customer, error) {
	body := map[string]string{
		"name":              in.Name,
		"externalReference": in.ExternalReference,
	}
	if in.CpfCnpj != "" {
		body["cpfCnpj"] = in.CpfCnpj
	}
	if in.Phone != "" {
		body["mobilePhone"] = in.Phone
	}

	var out Customer
	if err := c.do(ctx, resty.MethodPost, "/customers", body, nil, &out); err != nil {
		return Customer{}, fmt.Errorf("c.do POST /customers -> %w", err)
	}

	return out, nil
}

func (c *Client) FindCustomerByExternalRef(ctx context.Context, ref string) (Customer, error) {
	var out struct {
		Data []Customer `json:"data"`
	}
	query := map[string]string{"externalReference": ref}
	if err := c.do(ctx, resty.MethodGet, "/customers", nil, query, &out); err != nil {
		return Customer{}, fmt.Errorf("c.do GET /customers -> %w", err)
	}
	if len(out.Data) == 0 {
		return Customer{}, ErrCustomerNotFound
	}

	return out.Data[0], nil
}

func (c *Client) CreateCharge(ctx context.Context, in ChargeInput) (Charge, error) {
	body := map[string]any{
		"customer":          in.CustomerID,
		"billingType":       "PIX",
		"value":             json.Number(in.Value.Decimal().StringFixed(2)),
		"dueDate":           in.DueDate.Format(time.DateOnly),
		"description":       in.Description,
		"externalReference": in.ExternalReference,
	}

	var out paymentBody
	if err := c.do(ctx, resty.MethodPost, "/payments", body, nil, &out); err != nil {
		return Charge{}, fmt.Errorf("c.do POST /payments -> %w", err)
	}

	return out.charge(), nil
}

func (c *Client) PixQRCode(ctx context.Context, paymentID string) (PixQRCode, error) {
	var out PixQRCode
	if err := c.do(ctx, resty.MethodGet, "/payments/"+paymentID+"/pixQrCode", nil, nil, &out); err != nil {
		return PixQRCode{}, fmt.Errorf("c.do GET pixQrCode -> %w", err)
	}

	return out, nil
}

func (c *Client) PaymentStatus(ctx context.Context, paymentID string) (Charge, error) {
	var out paymentBody
	if err := c.do(ctx, resty.MethodGet, "/payments/"+paymentID, nil, nil, &out); err != nil {
		return Charge{}, fmt.Errorf("c.do GET /payments -> %w", err)
	}

	return out.charge(), nil
}

func (c *Client) do(ctx context.Context, method, path string, body any, query map[string]string, out any) error {
	req := c.http.R().SetContext(ctx).SetResult(out)
	if body != nil {
		req.SetBody(body)
	}
	if query != nil {
		req.SetQueryParams(query)
	}

	resp, err := req.Execute(method, path)
	if err != nil {
		return err
	}
	if resp.IsError() {
		return &APIError{StatusCode: resp.StatusCode(), Body: resp.String()}
	}

	return nil
}

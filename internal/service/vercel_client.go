package service

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"
)

// DNSRecord Vercel DNS 记录
type DNSRecord struct {
	ID    string `json:"id,omitempty"`
	Name  string `json:"name"`
	Type  string `json:"type"`
	Value string `json:"value"`
	TTL   int    `json:"ttl,omitempty"`
}

// DNSClient DNS 服务商接口
type DNSClient interface {
	ListRecords(ctx context.Context, domain string) ([]DNSRecord, error)
	CreateRecord(ctx context.Context, domain string, rec DNSRecord) (string, error)
	DeleteRecord(ctx context.Context, domain, recordID string) error
}

// DNSError carries the provider error code ("forbidden", "not_found", ...).
type DNSError struct {
	Status  int
	Code    string
	Message string
}

func (e *DNSError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("vercel API error: %s: %s (status: %d)", e.Code, e.Message, e.Status)
	}
	return fmt.Sprintf("vercel API error: %s (status: %d)", e.Message, e.Status)
}

type vercelErrorBody struct {
	Error struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

type vercelListResponse struct {
	Records []DNSRecord `json:"records"`
}

type vercelCreateResponse struct {
	UID string `json:"uid"`
}

// VercelClient Vercel DNS REST 客户端
type VercelClient struct {
	httpClient *resty.Client
	teamID     string
	logger     *zap.Logger
}

var _ DNSClient = (*VercelClient)(nil)

func NewVercelClient(baseURL, token, teamID string, logger *zap.Logger) *VercelClient {
	client := resty.New().
		SetBaseURL(strings.TrimRight(baseURL, "/")).
		SetTimeout(15 * time.Second).
		SetRetryCount(0). // 创建记录非幂等，不重试
		SetHeader("Content-Type", "application/json").
		SetHeader("Accept", "application/json").
		SetAuthToken(token)
	return &VercelClient{httpClient: client, teamID: teamID, logger: logger}
}

func (c *VercelClient) request(ctx context.Context) *resty.Request {
	r := c.httpClient.R().SetContext(ctx)
	if c.teamID != "" {
		r.SetQueryParam("teamId", c.teamID)
	}
	return r
}

func (c *VercelClient) ListRecords(ctx context.Context, domain string) ([]DNSRecord, error) {
	var out vercelListResponse
	var apiErr vercelErrorBody
	resp, err := c.request(ctx).
		SetResult(&out).
		SetError(&apiErr).
		Get("/v4/domains/" + url.PathEscape(domain) + "/records")
	if err != nil {
		return nil, fmt.Errorf("failed to list DNS records: %w", err)
	}
	if resp.IsError() {
		return nil, c.apiError(resp, apiErr, "list")
	}
	return out.Records, nil
}

func (c *VercelClient) CreateRecord(ctx context.Context, domain string, rec DNSRecord) (string, error) {
	c.logger.Info("Creating DNS record",
		zap.String("domain", domain),
		zap.String("name", rec.Name),
		zap.String("type", rec.Type))

	var out vercelCreateResponse
	var apiErr vercelErrorBody
	resp, err := c.request(ctx).
		SetBody(rec).
		SetResult(&out).
		SetError(&apiErr).
		Post("/v2/domains/" + url.PathEscape(domain) + "/records")
	if err != nil {
		return "", fmt.Errorf("failed to create DNS record: %w", err)
	}
	if resp.IsError() {
		return "", c.apiError(resp, apiErr, "create")
	}
	return out.UID, nil
}

func (c *VercelClient) DeleteRecord(ctx context.Context, domain, recordID string) error {
	var apiErr vercelErrorBody
	resp, err := c.request(ctx).
		SetError(&apiErr).
		Delete("/v2/domains/" + url.PathEscape(domain) + "/records/" + url.PathEscape(recordID))
	if err != nil {
		return fmt.Errorf("failed to delete DNS record: %w", err)
	}
	if resp.IsError() {
		return c.apiError(resp, apiErr, "delete")
	}
	return nil
}

func (c *VercelClient) apiError(resp *resty.Response, body vercelErrorBody, op string) error {
	e := &DNSError{Status: resp.StatusCode(), Code: body.Error.Code, Message: body.Error.Message}
	if e.Message == "" {
		e.Message = resp.Status()
	}
	c.logger.Error("Vercel API returned error",
		zap.String("op", op),
		zap.Int("status_code", e.Status),
		zap.String("code", e.Code),
		zap.String("msg", e.Message))
	return e
}

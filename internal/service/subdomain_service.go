package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"storefront/internal/domain"
	"storefront/internal/repository"
	"storefront/internal/store"

	"go.uber.org/zap"
)

// SubdomainService 店铺子域名 DNS 配置
type SubdomainService interface {
	Setup(ctx context.Context, ownerID string, req SetupSubdomainRequest) (*SetupSubdomainResult, error)
	Provision(ctx context.Context, subdomain string) (*ProvisionResult, error)
	Remove(ctx context.Context, subdomain string) error
}

type SetupSubdomainRequest struct {
	StoreID   string `json:"storeId"`
	Subdomain string `json:"subdomain"`
}

type StoreLink struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Subdomain string `json:"subdomain"`
	URL       string `json:"url"`
}

type SetupSubdomainResult struct {
	Success bool      `json:"success"`
	Message string    `json:"message"`
	Store   StoreLink `json:"store"`
}

type ProvisionResult struct {
	Success bool   `json:"success"`
	Created bool   `json:"created"`
	Message string `json:"message"`
}

type SubdomainConfig struct {
	ApexDomain  string
	CNAMETarget string
	// Configured is false when no API token is set.
	Configured bool
}

type subdomainService struct {
	dns    DNSClient
	stores repository.StoresRepository
	links  StoreService
	events store.Publisher
	cfg    SubdomainConfig
	logger *zap.Logger
}

func NewSubdomainService(dns DNSClient, stores repository.StoresRepository, links StoreService, events store.Publisher, cfg SubdomainConfig, logger *zap.Logger) SubdomainService {
	if events == nil {
		events = store.NopPublisher{}
	}
	return &subdomainService{
		dns:    dns,
		stores: stores,
		links:  links,
		events: events,
		cfg:    cfg,
		logger: logger,
	}
}

// Setup 校验身份与归属后配置 DNS
func (s *subdomainService) Setup(ctx context.Context, ownerID string, req SetupSubdomainRequest) (*SetupSubdomainResult, error) {
	if ownerID == "" {
		return nil, domain.ErrAuthRequired
	}
	req.StoreID = strings.TrimSpace(req.StoreID)
	req.Subdomain = strings.ToLower(strings.TrimSpace(req.Subdomain))
	if req.StoreID == "" && req.Subdomain == "" {
		return nil, domain.InvalidInput("either storeId or subdomain is required")
	}

	var st *domain.Store
	var err error
	if req.StoreID != "" {
		st, err = s.stores.GetStore(ctx, req.StoreID)
	} else {
		st, err = s.stores.GetStoreBySubdomain(ctx, req.Subdomain)
	}
	if err != nil {
		return nil, err
	}
	ok, err := s.stores.IsOwner(ctx, ownerID, st.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to check store ownership: %w", err)
	}
	if !ok {
		return nil, domain.ErrForbidden
	}

	res, err := s.Provision(ctx, st.Subdomain)
	if err != nil {
		return nil, err
	}
	if res.Success {
		if err := s.events.Publish(ctx, store.Event{
			Type:     store.EventSubdomainProvisioned,
			OwnerID:  ownerID,
			StoreIDs: []string{st.ID},
			Attrs:    map[string]any{"subdomain": st.Subdomain, "created": res.Created},
		}); err != nil {
			s.logger.Warn("Failed to publish subdomain event", zap.Error(err))
		}
	}
	return &SetupSubdomainResult{
		Success: res.Success,
		Message: res.Message,
		Store: StoreLink{
			ID:        st.ID,
			Name:      st.Name,
			Subdomain: st.Subdomain,
			URL:       s.links.StoreURL(st.Subdomain),
		},
	}, nil
}

// Provision checks existing records once and creates the CNAME when absent.
// Provider failures are reported in the result, not as an error.
func (s *subdomainService) Provision(ctx context.Context, subdomain string) (*ProvisionResult, error) {
	if err := ValidateSubdomain(subdomain); err != nil {
		return nil, err
	}
	if !s.cfg.Configured {
		return &ProvisionResult{Message: "Vercel API token is missing"}, nil
	}
	host := subdomain + "." + s.cfg.ApexDomain

	records, err := s.dns.ListRecords(ctx, s.cfg.ApexDomain)
	if err != nil {
		return s.failure(host, err), nil
	}
	for _, r := range records {
		if strings.EqualFold(r.Name, subdomain) {
			s.logger.Info("DNS record already exists", zap.String("host", host), zap.String("record_id", r.ID))
			return &ProvisionResult{Success: true, Message: fmt.Sprintf("Subdomain %s already configured", host)}, nil
		}
	}

	id, err := s.dns.CreateRecord(ctx, s.cfg.ApexDomain, DNSRecord{
		Name:  subdomain,
		Type:  "CNAME",
		Value: s.cfg.CNAMETarget,
		TTL:   60,
	})
	if err != nil {
		return s.failure(host, err), nil
	}
	s.logger.Info("DNS record created", zap.String("host", host), zap.String("record_id", id))
	return &ProvisionResult{Success: true, Created: true, Message: fmt.Sprintf("Subdomain %s set up successfully", host)}, nil
}

func (s *subdomainService) failure(host string, err error) *ProvisionResult {
	s.logger.Error("Subdomain setup failed", zap.String("host", host), zap.Error(err))
	return &ProvisionResult{Message: s.describe(err)}
}

func (s *subdomainService) describe(err error) string {
	var dnsErr *DNSError
	if errors.As(err, &dnsErr) {
		switch dnsErr.Code {
		case "forbidden":
			return "Permission denied. Check your Vercel API token and team ID."
		case "not_found":
			return fmt.Sprintf("Domain not found. Make sure %s is added to your Vercel account.", s.cfg.ApexDomain)
		}
		if dnsErr.Message != "" {
			return dnsErr.Message
		}
	}
	return err.Error()
}

// Remove deletes every record named subdomain.
func (s *subdomainService) Remove(ctx context.Context, subdomain string) error {
	if !s.cfg.Configured {
		return fmt.Errorf("vercel API token is missing")
	}
	records, err := s.dns.ListRecords(ctx, s.cfg.ApexDomain)
	if err != nil {
		return err
	}
	removed := 0
	for _, r := range records {
		if !strings.EqualFold(r.Name, subdomain) {
			continue
		}
		if err := s.dns.DeleteRecord(ctx, s.cfg.ApexDomain, r.ID); err != nil {
			return err
		}
		removed++
		s.logger.Info("DNS record deleted", zap.String("name", r.Name), zap.String("record_id", r.ID))
	}
	if removed == 0 {
		return fmt.Errorf("DNS record %s.%s %w", subdomain, s.cfg.ApexDomain, domain.ErrNotFound)
	}
	return nil
}

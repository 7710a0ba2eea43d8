// Package application orchestrates account switching and usage resolution on
// top of the repository, session scanner and usage cache ports.
package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/bnema/codex-accounts-cli/internal/domain"
	"github.com/bnema/codex-accounts-cli/internal/ports"
)

type Service struct {
	repo    ports.AccountRepository
	scanner ports.SessionScanner
	cache   ports.UsageCache
	clock   ports.Clock
	logger  *slog.Logger
}

func NewService(repo ports.AccountRepository, scanner ports.SessionScanner, cache ports.UsageCache, clock ports.Clock, logger *slog.Logger) *Service {
	if clock == nil {
		clock = ports.SystemClock{}
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	return &Service{
		repo:    repo,
		scanner: scanner,
		cache:   cache,
		clock:   clock,
		logger:  logger,
	}
}

func (s *Service) LoadAccounts(ctx context.Context) ([]domain.Account, error) {
	accounts, err := s.repo.LoadAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("load accounts: %w", err)
	}

	return accounts, nil
}

// SaveCurrentAsAccount backs up the active credential file as a named
// account and returns it.
func (s *Service) SaveCurrentAsAccount(ctx context.Context) (domain.Account, error) {
	account, err := s.repo.SaveActive(ctx)
	if err != nil {
		return domain.Account{}, fmt.Errorf("save active credential: %w", err)
	}

	s.logger.Info("saved active credential", "account", account.Name, "email", account.Email)
	return account, nil
}

// SwitchToAccount makes the named saved account the active credential.
func (s *Service) SwitchToAccount(ctx context.Context, name string) (domain.Account, error) {
	account, err := s.findAccount(ctx, name)
	if err != nil {
		return domain.Account{}, err
	}

	if err := s.repo.Activate(ctx, account); err != nil {
		return domain.Account{}, fmt.Errorf("activate account %q: %w", name, err)
	}

	s.logger.Info("switched active credential", "account", account.Name, "email", account.Email)
	return account, nil
}

func (s *Service) DeleteAccount(ctx context.Context, name string) error {
	account, err := s.findAccount(ctx, name)
	if err != nil {
		return err
	}

	if err := s.repo.Delete(ctx, account); err != nil {
		return fmt.Errorf("delete account %q: %w", name, err)
	}

	s.logger.Info("deleted account", "account", account.Name)
	return nil
}

// RefreshUsage performs a live usage read for the named account. Only the
// active account can be refreshed: usage is scraped from local session logs,
// which always belong to whoever is signed in.
func (s *Service) RefreshUsage(ctx context.Context, name string) (domain.UsageSummary, error) {
	account, err := s.findAccount(ctx, name)
	if err != nil {
		return domain.UsageSummary{}, err
	}

	if !account.IsCurrent {
		return domain.UsageSummary{}, fmt.Errorf("%w: %s", domain.ErrAccountNotActive, name)
	}

	return s.GetUsageSummary(ctx, account.Email)
}

// GetUsageSummary reads the latest usage record from session logs. On
// success the snapshot is written through to the cache under email; an
// unusable email skips the write. Cache write failures degrade to a warning.
func (s *Service) GetUsageSummary(ctx context.Context, email string) (domain.UsageSummary, error) {
	summary := domain.UsageSummary{
		CheckTime: s.clock.Now(),
		Status:    domain.UsageStatusChecking,
	}

	path, err := s.scanner.FindUsageSource(ctx)
	if err != nil {
		return s.failSummary(summary, fmt.Errorf("find usage source: %w", err))
	}
	if path == "" {
		return s.failSummary(summary, domain.ErrNoUsageSource)
	}

	usage, err := s.scanner.ExtractLatestUsage(ctx, path)
	if err != nil {
		return s.failSummary(summary, fmt.Errorf("extract usage: %w", err))
	}
	if usage == nil {
		return s.failSummary(summary, domain.ErrNoUsageData)
	}

	summary.Status = domain.UsageStatusSuccess
	summary.RateLimits = usage.RateLimits
	if usage.TokenUsage != nil {
		summary.TokenUsage = *usage.TokenUsage
	}

	if cacheable(email) {
		data := domain.UsageData{
			CheckTime:  summary.CheckTime.UTC().Format(time.RFC3339),
			TokenUsage: summary.TokenUsage,
			RateLimits: summary.RateLimits,
		}
		if err := s.cache.Write(ctx, email, data); err != nil {
			s.logger.Warn("usage cache write failed", "email", email, "error", err)
		}
	}

	return summary, nil
}

// ResolveDisplayUsage resolves the usage shown next to an account in
// listings. The cache is consulted first; a live session read happens only
// for the active account, since session logs say nothing about the others. A
// zero DisplayUsage means nothing is known.
func (s *Service) ResolveDisplayUsage(ctx context.Context, account domain.Account) (DisplayUsage, error) {
	if cacheable(account.Email) {
		cached, err := s.cache.Read(ctx, account.Email)
		if err != nil {
			return DisplayUsage{}, fmt.Errorf("read usage cache: %w", err)
		}
		if cached != nil {
			usage := cached.TokenUsage
			return DisplayUsage{
				TokenUsage: &usage,
				Primary:    cached.RateLimits.Primary,
				Secondary:  cached.RateLimits.Secondary,
				FromCache:  true,
				HasData:    true,
			}, nil
		}
	}

	if !account.IsCurrent {
		return DisplayUsage{}, nil
	}

	summary, err := s.GetUsageSummary(ctx, account.Email)
	if err != nil {
		if errors.Is(err, domain.ErrNoUsageSource) || errors.Is(err, domain.ErrNoUsageData) {
			return DisplayUsage{}, nil
		}
		return DisplayUsage{}, err
	}

	usage := summary.TokenUsage
	return DisplayUsage{
		TokenUsage: &usage,
		Primary:    summary.RateLimits.Primary,
		Secondary:  summary.RateLimits.Secondary,
		HasData:    true,
	}, nil
}

func (s *Service) findAccount(ctx context.Context, name string) (domain.Account, error) {
	accounts, err := s.LoadAccounts(ctx)
	if err != nil {
		return domain.Account{}, err
	}

	for _, account := range accounts {
		if account.Name == name {
			return account, nil
		}
	}

	return domain.Account{}, fmt.Errorf("%w: %s", domain.ErrAccountNotFound, name)
}

func (s *Service) failSummary(summary domain.UsageSummary, err error) (domain.UsageSummary, error) {
	summary.Status = domain.UsageStatusFailed
	summary.Errors = append(summary.Errors, err.Error())
	return summary, err
}

// cacheable filters out emails that would collide under one cache key.
func cacheable(email string) bool {
	return email != "" && email != domain.UnknownLabel
}

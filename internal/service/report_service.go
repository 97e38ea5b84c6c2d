package service

import (
	"context"
	"io"
	"time"

	"go.uber.org/zap"

	"carbon-tracker/internal/core/auth"
	"carbon-tracker/internal/core/cache"
	"carbon-tracker/internal/domain"
	"carbon-tracker/internal/feature/report"
)

const (
	defaultListLimit = 50
	maxListLimit     = 500
)

type ReportOptions struct {
	ActiveWindow time.Duration
	ListLimit    int
	CacheTTL     time.Duration
}

// ReportService backs the admin console. Every method requires an ADMIN
// principal before touching storage.
type ReportService struct {
	users   domain.UserRepository
	calcs   domain.CalculationRepository
	offsets domain.OffsetRepository
	cache   *cache.Cache
	log     *zap.Logger
	now     func() time.Time
	opts    ReportOptions
}

// NewReportService wires the admin reports. c may be nil to disable caching.
func NewReportService(
	users domain.UserRepository,
	calcs domain.CalculationRepository,
	offsets domain.OffsetRepository,
	c *cache.Cache,
	log *zap.Logger,
	opts ReportOptions,
) *ReportService {
	if opts.ActiveWindow <= 0 {
		opts.ActiveWindow = report.ActiveWindowDays * 24 * time.Hour
	}
	if opts.ListLimit <= 0 {
		opts.ListLimit = defaultListLimit
	}
	return &ReportService{users: users, calcs: calcs, offsets: offsets, cache: c, log: log, now: utcNow, opts: opts}
}

type UserRow struct {
	domain.User
	CalculationCount int64 `json:"calculationCount"`
}

type UserPage struct {
	Items []UserRow `json:"items"`
	Total int64     `json:"total"`
}

func (s *ReportService) ListUsers(ctx context.Context, p auth.Principal, offset, limit int) (*UserPage, error) {
	if err := p.RequireAdmin(); err != nil {
		return nil, err
	}
	offset = max(offset, 0)
	limit = s.clampLimit(limit)
	users, total, err := s.users.List(ctx, offset, limit)
	if err != nil {
		return nil, err
	}
	counts, err := s.calcs.CountByUser(ctx)
	if err != nil {
		return nil, err
	}
	rows := make([]UserRow, len(users))
	for i, u := range users {
		rows[i] = UserRow{User: u, CalculationCount: counts[u.ID]}
	}
	return &UserPage{Items: rows, Total: total}, nil
}

func (s *ReportService) clampLimit(limit int) int {
	if limit <= 0 {
		return s.opts.ListLimit
	}
	return min(limit, maxListLimit)
}

// ListCalculations returns the newest calculations across all users, each
// carrying the offsets recorded against it.
func (s *ReportService) ListCalculations(ctx context.Context, p auth.Principal, limit int) ([]report.ReconciledCalculation, error) {
	if err := p.RequireAdmin(); err != nil {
		return nil, err
	}
	return s.reconciled(ctx, s.clampLimit(limit))
}

func (s *ReportService) reconciled(ctx context.Context, limit int) ([]report.ReconciledCalculation, error) {
	calcs, err := s.calcs.ListRecent(ctx, limit)
	if err != nil {
		return nil, err
	}
	var ids []string
	if limit > 0 {
		ids = make([]string, len(calcs))
		for i, c := range calcs {
			ids[i] = c.ID
		}
	}
	offsets, err := s.offsets.ListReferencing(ctx, ids)
	if err != nil {
		return nil, err
	}
	return report.Reconcile(calcs, offsets), nil
}

func (s *ReportService) Stats(ctx context.Context, p auth.Principal) (*report.SystemStats, error) {
	if err := p.RequireAdmin(); err != nil {
		return nil, err
	}
	return cache.GetOrLoadJSON(s.cache, ctx, "stats", s.opts.CacheTTL, s.loadStats)
}

func (s *ReportService) loadStats(ctx context.Context) (*report.SystemStats, error) {
	users, err := s.users.Count(ctx)
	if err != nil {
		return nil, err
	}
	active, err := s.users.CountActiveSince(ctx, s.now().Add(-s.opts.ActiveWindow))
	if err != nil {
		return nil, err
	}
	calcs, err := s.calcs.Count(ctx)
	if err != nil {
		return nil, err
	}
	totals, err := s.calcs.Totals(ctx)
	if err != nil {
		return nil, err
	}
	recorded, err := s.offsets.TotalAmount(ctx)
	if err != nil {
		return nil, err
	}
	st := report.BuildStats(users, active, calcs, totals, recorded)
	return &st, nil
}

func (s *ReportService) ProvinceAnalytics(ctx context.Context, p auth.Principal) (*report.ProvinceAnalytics, error) {
	if err := p.RequireAdmin(); err != nil {
		return nil, err
	}
	return cache.GetOrLoadJSON(s.cache, ctx, "province-analytics", s.opts.CacheTTL, s.loadProvinces)
}

func (s *ReportService) loadProvinces(ctx context.Context) (*report.ProvinceAnalytics, error) {
	users, err := s.users.ListWithProvince(ctx)
	if err != nil {
		return nil, err
	}
	totals, err := s.calcs.TotalsByUser(ctx)
	if err != nil {
		return nil, err
	}
	recorded, err := s.offsets.TotalAmountByUser(ctx)
	if err != nil {
		return nil, err
	}
	pa := report.BuildProvinceAnalytics(users, totals, recorded)
	return &pa, nil
}

// ExportCSV writes every calculation, newest first, as CSV.
func (s *ReportService) ExportCSV(ctx context.Context, p auth.Principal, w io.Writer) error {
	if err := p.RequireAdmin(); err != nil {
		return err
	}
	rows, err := s.reconciled(ctx, 0)
	if err != nil {
		return err
	}
	s.log.Info("calculations exported", zap.String("by", p.UserID), zap.Int("rows", len(rows)))
	return report.WriteCSV(w, rows)
}

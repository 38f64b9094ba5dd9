// Package crm proxies prospect and opportunity CRUD to the backend and
// computes the pipeline aggregates the dashboard needs.
package crm

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/alkymya/basegenspark/internal/backend"
	"github.com/containerd/errdefs"
)

// Backend table and view names owned by the external database. The schema
// predates this gateway; column names stay as-is.
const (
	tableProspects     = "crm_prospects"
	tableOpportunities = "crm_opportunites"
	tableInteractions  = "crm_interactions"
	tableMeetings      = "crm_rendez_vous"
	viewActiveProspect = "crm_v_prospects_actifs"
	viewPipeline       = "crm_v_pipeline_opportunites"
	viewDashboard      = "crm_v_tableau_bord"
	rpcSearchProspects = "rpc/crm_search_prospects"
)

const (
	defaultProspectLimit = 100
	maxProspectLimit     = 500
)

// Row is a raw backend record proxied without reshaping.
type Row = map[string]interface{}

// Client is the subset of the backend client the CRM service needs.
type Client interface {
	Select(ctx context.Context, table string, q backend.Query, dest interface{}) error
	Insert(ctx context.Context, table string, payload interface{}, dest interface{}) error
	Update(ctx context.Context, table string, q backend.Query, patch interface{}, dest interface{}) error
}

// Service provides pass-through CRM operations.
type Service struct {
	client Client
	now    func() time.Time
}

// NewService creates a CRM service.
func NewService(client Client) *Service {
	return &Service{client: client, now: time.Now}
}

// ListProspects returns active prospects, optionally filtered by status.
func (s *Service) ListProspects(ctx context.Context, status string, limit int) ([]Row, error) {
	if limit <= 0 {
		limit = defaultProspectLimit
	}
	if limit > maxProspectLimit {
		limit = maxProspectLimit
	}
	q := backend.NewQuery().Limit(limit)
	if status != "" {
		q = q.Eq("statut", status)
	}
	var rows []Row
	if err := s.client.Select(ctx, viewActiveProspect, q, &rows); err != nil {
		return nil, fmt.Errorf("list prospects: %w", err)
	}
	return rows, nil
}

// SearchProspects runs the backend fulltext search function.
func (s *Service) SearchProspects(ctx context.Context, query string) ([]Row, error) {
	if query == "" {
		return nil, fmt.Errorf("search query is required: %w", errdefs.ErrInvalidArgument)
	}
	var rows []Row
	payload := map[string]string{"query_text": query}
	if err := s.client.Insert(ctx, rpcSearchProspects, payload, &rows); err != nil {
		return nil, fmt.Errorf("search prospects: %w", err)
	}
	return rows, nil
}

// GetProspect returns a prospect with its opportunities, interactions, and
// meetings attached. Sub-resource fetch failures degrade to empty lists.
func (s *Service) GetProspect(ctx context.Context, prospectID string) (Row, error) {
	var prospects []Row
	q := backend.NewQuery().Eq("id", prospectID)
	if err := s.client.Select(ctx, tableProspects, q, &prospects); err != nil {
		return nil, fmt.Errorf("get prospect: %w", err)
	}
	if len(prospects) == 0 {
		return nil, fmt.Errorf("prospect %s: %w", prospectID, errdefs.ErrNotFound)
	}
	prospect := prospects[0]

	prospect["opportunites"] = s.related(ctx, tableOpportunities, prospectID, 0)
	prospect["interactions"] = s.related(ctx, tableInteractions, prospectID, 10)
	prospect["rendez_vous"] = s.related(ctx, tableMeetings, prospectID, 0)
	return prospect, nil
}

func (s *Service) related(ctx context.Context, table, prospectID string, limit int) []Row {
	q := backend.NewQuery().Eq("prospect_id", prospectID)
	if limit > 0 {
		q = q.Limit(limit)
	}
	var rows []Row
	if err := s.client.Select(ctx, table, q, &rows); err != nil {
		slog.Warn("Failed to fetch prospect sub-resource", "table", table, "prospect_id", prospectID, "error", err)
		return []Row{}
	}
	if rows == nil {
		rows = []Row{}
	}
	return rows
}

// CreateProspect inserts a prospect and stamps the last-exchange date.
func (s *Service) CreateProspect(ctx context.Context, payload Row) (Row, error) {
	if str(payload["nom"]) == "" || str(payload["entreprise"]) == "" {
		return nil, fmt.Errorf("nom and entreprise are required: %w", errdefs.ErrInvalidArgument)
	}
	payload["date_dernier_echange"] = s.today()

	var rows []Row
	if err := s.client.Insert(ctx, tableProspects, payload, &rows); err != nil {
		return nil, fmt.Errorf("create prospect: %w", err)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("create prospect: backend returned no representation: %w", errdefs.ErrUnavailable)
	}
	return rows[0], nil
}

// UpdateProspect patches a prospect. A status change refreshes the
// last-exchange date.
func (s *Service) UpdateProspect(ctx context.Context, prospectID string, updates Row) (Row, error) {
	if len(updates) == 0 {
		return nil, fmt.Errorf("update requires at least one field: %w", errdefs.ErrInvalidArgument)
	}
	if _, ok := updates["statut"]; ok {
		updates["date_dernier_echange"] = s.today()
	}

	var rows []Row
	q := backend.NewQuery().Eq("id", prospectID)
	if err := s.client.Update(ctx, tableProspects, q, updates, &rows); err != nil {
		return nil, fmt.Errorf("update prospect: %w", err)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("prospect %s: %w", prospectID, errdefs.ErrNotFound)
	}
	return rows[0], nil
}

// ListOpportunities returns pipeline opportunities, optionally by status.
func (s *Service) ListOpportunities(ctx context.Context, status string) ([]Row, error) {
	q := backend.NewQuery()
	if status != "" {
		q = q.Eq("statut", status)
	}
	var rows []Row
	if err := s.client.Select(ctx, viewPipeline, q, &rows); err != nil {
		return nil, fmt.Errorf("list opportunities: %w", err)
	}
	return rows, nil
}

// CreateOpportunity inserts an opportunity.
func (s *Service) CreateOpportunity(ctx context.Context, payload Row) (Row, error) {
	if str(payload["prospect_id"]) == "" || str(payload["nom_opportunite"]) == "" {
		return nil, fmt.Errorf("prospect_id and nom_opportunite are required: %w", errdefs.ErrInvalidArgument)
	}
	var rows []Row
	if err := s.client.Insert(ctx, tableOpportunities, payload, &rows); err != nil {
		return nil, fmt.Errorf("create opportunity: %w", err)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("create opportunity: backend returned no representation: %w", errdefs.ErrUnavailable)
	}
	return rows[0], nil
}

// UpdateOpportunity patches an opportunity.
func (s *Service) UpdateOpportunity(ctx context.Context, opportunityID string, updates Row) (Row, error) {
	if len(updates) == 0 {
		return nil, fmt.Errorf("update requires at least one field: %w", errdefs.ErrInvalidArgument)
	}
	var rows []Row
	q := backend.NewQuery().Eq("id", opportunityID)
	if err := s.client.Update(ctx, tableOpportunities, q, updates, &rows); err != nil {
		return nil, fmt.Errorf("update opportunity: %w", err)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("opportunity %s: %w", opportunityID, errdefs.ErrNotFound)
	}
	return rows[0], nil
}

func (s *Service) today() string {
	return s.now().UTC().Format("2006-01-02")
}

func str(v interface{}) string {
	s, _ := v.(string)
	return s
}

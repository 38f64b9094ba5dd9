package crm

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/alkymya/basegenspark/internal/backend"
)

// StatusBucket aggregates opportunities sharing a status.
type StatusBucket struct {
	Count         int     `json:"count"`
	Value         float64 `json:"valeur"`
	WeightedValue float64 `json:"valeur_ponderee"`
}

// PipelineView is the aggregated pipeline the dashboard renders.
type PipelineView struct {
	TotalOpportunities int                     `json:"total_opportunites"`
	TotalValue         float64                 `json:"valeur_totale"`
	WeightedValue      float64                 `json:"valeur_ponderee"`
	MeanCloseRate      int                     `json:"taux_conversion_moyen"`
	ByStatus           map[string]StatusBucket `json:"par_statut"`
	Opportunities      []Row                   `json:"opportunites"`
}

// Pipeline fetches all pipeline opportunities and derives the aggregate
// sums gateway-side.
func (s *Service) Pipeline(ctx context.Context) (*PipelineView, error) {
	opportunities, err := s.ListOpportunities(ctx, "")
	if err != nil {
		return nil, err
	}

	view := &PipelineView{
		TotalOpportunities: len(opportunities),
		ByStatus:           map[string]StatusBucket{},
		Opportunities:      opportunities,
	}

	var probabilitySum float64
	for _, opp := range opportunities {
		value := num(opp["montant_ht"])
		weighted := num(opp["valeur_ponderee"])
		view.TotalValue += value
		view.WeightedValue += weighted
		probabilitySum += num(opp["probabilite_closing"])

		status := str(opp["statut"])
		if status == "" {
			status = "Non défini"
		}
		bucket := view.ByStatus[status]
		bucket.Count++
		bucket.Value += value
		bucket.WeightedValue += weighted
		view.ByStatus[status] = bucket
	}
	if len(opportunities) > 0 {
		view.MeanCloseRate = int(math.Round(probabilitySum / float64(len(opportunities))))
	}
	return view, nil
}

// Stats assembles the dashboard snapshot: the backend dashboard view plus
// prospect and opportunity counts and value sums.
func (s *Service) Stats(ctx context.Context) (Row, error) {
	var dashboard []Row
	if err := s.client.Select(ctx, viewDashboard, backend.NewQuery(), &dashboard); err != nil {
		return nil, fmt.Errorf("dashboard view: %w", err)
	}
	board := Row{}
	if len(dashboard) > 0 {
		board = dashboard[0]
	}

	var prospectIDs []Row
	if err := s.client.Select(ctx, tableProspects, backend.NewQuery().Select("id"), &prospectIDs); err != nil {
		return nil, fmt.Errorf("count prospects: %w", err)
	}

	var opportunities []Row
	q := backend.NewQuery().Select("montant_ht,probabilite_closing,statut")
	if err := s.client.Select(ctx, tableOpportunities, q, &opportunities); err != nil {
		return nil, fmt.Errorf("opportunity stats: %w", err)
	}

	var totalValue, weightedValue float64
	open := 0
	for _, opp := range opportunities {
		value := num(opp["montant_ht"])
		totalValue += value
		weightedValue += value * num(opp["probabilite_closing"]) / 100
		if status := str(opp["statut"]); status != "Gagné" && status != "Perdu" {
			open++
		}
	}

	prospects := Row{"total": len(prospectIDs)}
	for k, v := range board {
		prospects[k] = v
	}

	return Row{
		"prospects": prospects,
		"opportunites": Row{
			"total":           len(opportunities),
			"en_cours":        open,
			"valeur_totale":   totalValue,
			"valeur_ponderee": weightedValue,
		},
		"alertes": Row{
			"relances_urgentes": board["nb_relances_urgentes"],
		},
	}, nil
}

// Alert flags a prospect whose next action is overdue.
type Alert struct {
	Type           string `json:"type"`
	ProspectID     string `json:"prospect_id"`
	Company        string `json:"entreprise"`
	NextAction     string `json:"prochaine_action"`
	NextActionDate string `json:"date_prochaine_action"`
	DaysLate       int    `json:"jours_retard"`
	Priority       string `json:"priorite"`
}

// Alerts lists prospects with an overdue next action, excluding closed
// statuses, with the number of days late.
func (s *Service) Alerts(ctx context.Context) ([]Alert, error) {
	today := s.today()
	q := backend.NewQuery().
		Lt("date_prochaine_action", today).
		NotIn("statut", "Gagné", "Perdu").
		Select("id,entreprise,prochaine_action,date_prochaine_action")

	var rows []Row
	if err := s.client.Select(ctx, tableProspects, q, &rows); err != nil {
		return nil, fmt.Errorf("overdue prospects: %w", err)
	}

	alerts := make([]Alert, 0, len(rows))
	for _, row := range rows {
		due := str(row["date_prochaine_action"])
		daysLate := 0
		if parsed, err := time.Parse("2006-01-02", due); err == nil {
			daysLate = int(s.now().UTC().Truncate(24*time.Hour).Sub(parsed) / (24 * time.Hour))
		}
		alerts = append(alerts, Alert{
			Type:           "Action en retard",
			ProspectID:     str(row["id"]),
			Company:        str(row["entreprise"]),
			NextAction:     str(row["prochaine_action"]),
			NextActionDate: due,
			DaysLate:       daysLate,
			Priority:       "Haute",
		})
	}
	return alerts, nil
}

func num(v interface{}) float64 {
	switch n := v.(type) {
	case float64:
		return n
	case int:
		return float64(n)
	}
	return 0
}

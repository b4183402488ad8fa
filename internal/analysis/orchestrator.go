package analysis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/smukkama/riskwatch/internal/database"
	"github.com/smukkama/riskwatch/internal/events"
	"github.com/smukkama/riskwatch/internal/protocol"
	"github.com/smukkama/riskwatch/internal/sources"
)

// ErrRunActive rejects a trigger while another run is in progress
var ErrRunActive = errors.New("analysis run already in progress")

// Store is the persistence surface the orchestrator needs,
// implemented by database.DB.
type Store interface {
	ScopeStore
	ListManufacturers() ([]*database.Manufacturer, error)

	CreateRisk(risk *database.Risk) error
	CreateOpportunity(opp *database.Opportunity) error
	CreatePlan(plan *database.MitigationPlan) error

	ListDetectedRisksForRun(manufacturerID, runID uuid.UUID) ([]*database.Risk, error)
	ListDetectedRisksForSupplier(manufacturerID, supplierID uuid.UUID) ([]*database.Risk, error)
	ListIdentifiedOpportunitiesForRun(manufacturerID, runID uuid.UUID) ([]*database.Opportunity, error)
	CountPlansForRisk(riskID uuid.UUID) (int, error)
	CountPlansForOpportunity(opportunityID uuid.UUID) (int, error)

	CreateRiskScore(score *database.RiskScore) error
	UpdateSupplierRiskScore(supplierID uuid.UUID, score *float64, level *string) error
	RiskSummariesBySupplier(manufacturerID uuid.UUID) (map[string]*database.SupplierRiskSummary, error)

	CreateRun(state, task string) (*database.Run, error)
	FindActiveRun() (*database.Run, error)
	GetRun(id uuid.UUID) (*database.Run, error)
	UpdateRunState(id uuid.UUID, state, task string) error
	MarkRunError(id uuid.UUID, message string) error
	UpdateRunCounts(id uuid.UUID) error
}

// Fetcher dispatches source fetches, implemented by sources.Manager
type Fetcher interface {
	FetchByTypes(ctx context.Context, types []string, params sources.Params) map[string][]json.RawMessage
}

// Orchestrator drives one analysis run through its stages. A single
// run may be active at a time, enforced by the persisted run state
// plus an in-process flag; concurrent triggers are rejected.
type Orchestrator struct {
	store       Store
	fetcher     Fetcher
	extractor   *Extractor
	planner     *Planner
	broadcaster events.Broadcaster

	mu      sync.Mutex
	running bool
}

// NewOrchestrator wires the orchestrator. broadcaster may be nil to
// disable event emission.
func NewOrchestrator(store Store, fetcher Fetcher, extractor *Extractor, planner *Planner, broadcaster events.Broadcaster) *Orchestrator {
	return &Orchestrator{
		store:       store,
		fetcher:     fetcher,
		extractor:   extractor,
		planner:     planner,
		broadcaster: broadcaster,
	}
}

// Trigger starts a run for one manufacturer, or for all of them when
// manufacturerID is uuid.Nil. Returns ErrRunActive when a run is
// already in progress.
func (o *Orchestrator) Trigger(ctx context.Context, manufacturerID uuid.UUID) error {
	active, err := o.store.FindActiveRun()
	if err != nil {
		return fmt.Errorf("checking for active run: %w", err)
	}
	if active != nil {
		fmt.Printf("Run %s already in progress (state %s)\n", active.ID, active.State)
		return ErrRunActive
	}

	o.mu.Lock()
	if o.running {
		o.mu.Unlock()
		fmt.Printf("Run already in progress (in-process flag)\n")
		return ErrRunActive
	}
	o.running = true
	o.mu.Unlock()
	defer func() {
		o.mu.Lock()
		o.running = false
		o.mu.Unlock()
	}()

	if manufacturerID != uuid.Nil {
		return o.runSingle(ctx, manufacturerID)
	}
	return o.runAll(ctx)
}

func (o *Orchestrator) runSingle(ctx context.Context, manufacturerID uuid.UUID) error {
	scope, err := ResolveScope(o.store, manufacturerID)
	if err != nil {
		return err
	}

	run, err := o.store.CreateRun(database.RunStateMonitoring, fmt.Sprintf("Manual run for OEM: %s", scope.Name))
	if err != nil {
		return fmt.Errorf("creating run: %w", err)
	}
	fmt.Printf("Run %s started for manufacturer %s\n", run.ID, scope.Name)

	if err := o.runForManufacturer(ctx, scope, run.ID); err != nil {
		o.failRun(run.ID, err)
		return err
	}
	return o.completeRun(ctx, run.ID, "Manual analysis completed")
}

func (o *Orchestrator) runAll(ctx context.Context) error {
	manufacturers, err := o.store.ListManufacturers()
	if err != nil {
		return fmt.Errorf("listing manufacturers: %w", err)
	}

	run, err := o.store.CreateRun(database.RunStateMonitoring, "Monitoring cycle for all OEMs")
	if err != nil {
		return fmt.Errorf("creating run: %w", err)
	}

	if len(manufacturers) == 0 {
		return o.completeRun(ctx, run.ID, "No OEMs to process")
	}

	for _, m := range manufacturers {
		scope, err := ResolveScope(o.store, m.ID)
		if errors.Is(err, ErrScopeNotFound) {
			fmt.Printf("Skipping manufacturer %s: %v\n", m.ID, err)
			continue
		}
		if err != nil {
			o.failRun(run.ID, err)
			return err
		}
		if err := o.runForManufacturer(ctx, scope, run.ID); err != nil {
			o.failRun(run.ID, err)
			return err
		}
	}
	return o.completeRun(ctx, run.ID, "Monitoring cycle completed")
}

func (o *Orchestrator) completeRun(ctx context.Context, runID uuid.UUID, task string) error {
	if err := o.store.UpdateRunCounts(runID); err != nil {
		o.failRun(runID, err)
		return fmt.Errorf("updating run counts: %w", err)
	}
	if err := o.store.UpdateRunState(runID, database.RunStateCompleted, task); err != nil {
		return fmt.Errorf("completing run: %w", err)
	}
	o.broadcastStatus(ctx, runID)
	fmt.Printf("Run %s completed\n", runID)
	return nil
}

func (o *Orchestrator) failRun(runID uuid.UUID, cause error) {
	fmt.Printf("Run %s failed: %v\n", runID, cause)
	if err := o.store.MarkRunError(runID, cause.Error()); err != nil {
		fmt.Printf("Could not mark run %s as errored: %v\n", runID, err)
	}
}

// runForManufacturer executes the staged sequence for one scope. Fetch
// and inference failures degrade to fallbacks inside the stages; only
// persistence failures propagate.
func (o *Orchestrator) runForManufacturer(ctx context.Context, scope *Scope, runID uuid.UUID) error {
	manufacturerID, err := uuid.Parse(scope.ManufacturerID)
	if err != nil {
		return fmt.Errorf("invalid manufacturer id in scope: %w", err)
	}

	suppliers, err := o.store.ListSuppliers(manufacturerID)
	if err != nil {
		return fmt.Errorf("loading suppliers: %w", err)
	}
	supplierIDs := make(map[string]uuid.UUID, len(suppliers))
	for _, s := range suppliers {
		supplierIDs[strings.ToLower(s.Name)] = s.ID
	}

	// Stage 1: supplier-scoped weather and news
	o.setStage(ctx, runID, database.RunStateMonitoring, fmt.Sprintf("Fetching weather & news for OEM: %s", scope.Name))
	params := scope.SourceParams()
	supplierData := o.fetcher.FetchByTypes(ctx, []string{"weather", "news"}, params)
	fmt.Printf("Fetched supplier data weather=%d news=%d for %s\n",
		len(supplierData["weather"]), len(supplierData["news"]), scope.Name)

	o.setStage(ctx, runID, database.RunStateAnalyzing, fmt.Sprintf("Analyzing for OEM: %s", scope.Name))
	supplierAnalysis := o.extractor.AnalyzeData(ctx, supplierData, scope)
	fmt.Printf("Extracted risks=%d opportunities=%d for %s\n",
		len(supplierAnalysis.Risks), len(supplierAnalysis.Opportunities), scope.Name)

	o.setStage(ctx, runID, database.RunStateProcessing, fmt.Sprintf("Saving supplier results for OEM: %s", scope.Name))
	for i := range supplierAnalysis.Risks {
		if err := o.persistRisk(&supplierAnalysis.Risks[i], manufacturerID, runID, supplierIDs); err != nil {
			return err
		}
	}
	for i := range supplierAnalysis.Opportunities {
		if err := o.persistOpportunity(&supplierAnalysis.Opportunities[i], manufacturerID, runID); err != nil {
			return err
		}
	}
	o.broadcastSnapshot(ctx, manufacturerID)

	// Stage 2: global risk sweep
	o.setStage(ctx, runID, database.RunStateMonitoring, "Fetching global news")
	globalData := o.fetcher.FetchByTypes(ctx, []string{"news"}, GlobalNewsParams())
	globalRisks := o.extractor.AnalyzeGlobalRisk(ctx, globalData)
	fmt.Printf("Global news analysis risks=%d for %s\n", len(globalRisks), scope.Name)
	for i := range globalRisks {
		if err := o.persistRisk(&globalRisks[i], manufacturerID, runID, supplierIDs); err != nil {
			return err
		}
	}
	o.broadcastSnapshot(ctx, manufacturerID)

	// Stage 3: shipping routes
	o.setStage(ctx, runID, database.RunStateMonitoring, fmt.Sprintf("Fetching shipping for OEM: %s", scope.Name))
	routeData := o.fetcher.FetchByTypes(ctx, []string{"traffic", "shipping"}, sources.Params{Routes: params.Routes})
	shippingRisks := o.extractor.AnalyzeShippingDisruptions(ctx, routeData)
	fmt.Printf("Shipping analysis risks=%d for %s\n", len(shippingRisks), scope.Name)
	for i := range shippingRisks {
		if err := o.persistRisk(&shippingRisks[i], manufacturerID, runID, supplierIDs); err != nil {
			return err
		}
	}

	// Stage 4: OEM-level risk score
	allRisks, err := o.store.ListDetectedRisksForRun(manufacturerID, runID)
	if err != nil {
		return fmt.Errorf("loading detected risks: %w", err)
	}
	score := ComputeScore(allRisks)
	breakdown, _ := json.Marshal(score.Breakdown)
	severityCounts, _ := json.Marshal(score.SeverityCounts)
	scoreRow := &database.RiskScore{
		ManufacturerID: manufacturerID,
		OverallScore:   score.Overall,
		Breakdown:      breakdown,
		SeverityCounts: severityCounts,
		RunID:          runID,
	}
	if len(allRisks) > 0 {
		ids := make([]string, 0, len(allRisks))
		for _, r := range allRisks {
			ids = append(ids, r.ID.String())
		}
		joined := strings.Join(ids, ",")
		scoreRow.RiskIDs = &joined
	}
	if err := o.store.CreateRiskScore(scoreRow); err != nil {
		return fmt.Errorf("storing risk score: %w", err)
	}
	fmt.Printf("Risk score stored overall=%.2f for %s (risks=%d)\n", score.Overall, scope.Name, len(allRisks))

	// Stage 4b: per-supplier scores; absent, not zero, without risks
	for _, s := range suppliers {
		supplierRisks, err := o.store.ListDetectedRisksForSupplier(manufacturerID, s.ID)
		if err != nil {
			return fmt.Errorf("loading risks for supplier %s: %w", s.ID, err)
		}
		if len(supplierRisks) == 0 {
			if err := o.store.UpdateSupplierRiskScore(s.ID, nil, nil); err != nil {
				return fmt.Errorf("clearing score for supplier %s: %w", s.ID, err)
			}
			continue
		}
		supplierScore := ComputeScore(supplierRisks)
		level := BandForScore(supplierScore.Overall)
		if err := o.store.UpdateSupplierRiskScore(s.ID, &supplierScore.Overall, &level); err != nil {
			return fmt.Errorf("updating score for supplier %s: %w", s.ID, err)
		}
	}
	o.broadcastSnapshot(ctx, manufacturerID)

	// Stage 5: combined plans, one per supplier named by any risk
	risksBySupplier := groupRisksBySupplier(allRisks)
	covered := make(map[uuid.UUID]bool)
	combined := 0
	for _, supplierName := range sortedKeys(risksBySupplier) {
		riskList := risksBySupplier[supplierName]
		plan := o.planner.CombinedPlan(ctx, supplierName, riskList)
		if err := o.persistPlan(plan, &riskList[0].ID, nil, runID); err != nil {
			return err
		}
		for _, r := range riskList {
			covered[r.ID] = true
		}
		combined++
	}
	fmt.Printf("Combined mitigation plans created=%d for %s\n", combined, scope.Name)

	// Stage 6: per-risk plans for uncovered risks without an existing plan
	perRisk := 0
	for _, r := range allRisks {
		if covered[r.ID] {
			continue
		}
		count, err := o.store.CountPlansForRisk(r.ID)
		if err != nil {
			return fmt.Errorf("counting plans for risk %s: %w", r.ID, err)
		}
		if count > 0 {
			continue
		}
		plan := o.planner.MitigationPlan(ctx, r)
		if err := o.persistPlan(plan, &r.ID, nil, runID); err != nil {
			return err
		}
		perRisk++
	}
	fmt.Printf("Per-risk mitigation plans created=%d for %s\n", perRisk, scope.Name)

	// Stage 7: opportunity plans
	opportunities, err := o.store.ListIdentifiedOpportunitiesForRun(manufacturerID, runID)
	if err != nil {
		return fmt.Errorf("loading opportunities: %w", err)
	}
	oppPlans := 0
	for _, opp := range opportunities {
		count, err := o.store.CountPlansForOpportunity(opp.ID)
		if err != nil {
			return fmt.Errorf("counting plans for opportunity %s: %w", opp.ID, err)
		}
		if count > 0 {
			continue
		}
		plan := o.planner.OpportunityPlan(ctx, opp)
		if err := o.persistPlan(plan, nil, &opp.ID, runID); err != nil {
			return err
		}
		oppPlans++
	}
	fmt.Printf("Opportunity plans created=%d for %s\n", oppPlans, scope.Name)

	// Stage 8: final snapshot
	o.broadcastSnapshot(ctx, manufacturerID)
	return nil
}

func (o *Orchestrator) setStage(ctx context.Context, runID uuid.UUID, state, task string) {
	if err := o.store.UpdateRunState(runID, state, task); err != nil {
		fmt.Printf("Could not update run %s state: %v\n", runID, err)
		return
	}
	o.broadcastStatus(ctx, runID)
}

func (o *Orchestrator) persistRisk(record *RiskRecord, manufacturerID, runID uuid.UUID, supplierIDs map[string]uuid.UUID) error {
	risk := &database.Risk{
		Title:             record.Title,
		Description:       record.Description,
		Severity:          normalizeSeverity(record.Severity),
		Status:            database.RiskStatusDetected,
		SourceType:        record.SourceType,
		SourceData:        record.SourceData,
		AffectedSuppliers: record.SupplierNames(),
		ManufacturerID:    manufacturerID,
		RunID:             runID,
	}
	if record.AffectedRegion != "" {
		risk.AffectedRegion = &record.AffectedRegion
	}
	if record.EstimatedImpact != "" {
		risk.EstimatedImpact = &record.EstimatedImpact
	}
	if record.EstimatedCost > 0 {
		risk.EstimatedCost = &record.EstimatedCost
	}
	for _, name := range risk.AffectedSuppliers {
		if id, ok := supplierIDs[strings.ToLower(name)]; ok {
			supplierID := id
			risk.SupplierID = &supplierID
			break
		}
	}
	if err := o.store.CreateRisk(risk); err != nil {
		return fmt.Errorf("storing risk %q: %w", record.Title, err)
	}
	return nil
}

func (o *Orchestrator) persistOpportunity(record *OpportunityRecord, manufacturerID, runID uuid.UUID) error {
	opp := &database.Opportunity{
		Title:          record.Title,
		Description:    record.Description,
		Type:           normalizeOpportunityType(record.Type),
		Status:         database.OpportunityStatusIdentified,
		SourceType:     record.SourceType,
		SourceData:     record.SourceData,
		ManufacturerID: manufacturerID,
		RunID:          runID,
	}
	if record.AffectedRegion != "" {
		opp.AffectedRegion = &record.AffectedRegion
	}
	if record.PotentialBenefit != "" {
		opp.PotentialBenefit = &record.PotentialBenefit
	}
	if record.EstimatedValue > 0 {
		opp.EstimatedValue = &record.EstimatedValue
	}
	if err := o.store.CreateOpportunity(opp); err != nil {
		return fmt.Errorf("storing opportunity %q: %w", record.Title, err)
	}
	return nil
}

func (o *Orchestrator) persistPlan(record *PlanRecord, riskID, opportunityID *uuid.UUID, runID uuid.UUID) error {
	plan := &database.MitigationPlan{
		Title:         record.Title,
		Description:   record.Description,
		Actions:       record.Actions,
		Status:        database.PlanStatusDraft,
		RiskID:        riskID,
		OpportunityID: opportunityID,
		Metadata:      record.Metadata,
		RunID:         runID,
	}
	if record.AssignedTo != "" {
		plan.AssignedTo = &record.AssignedTo
	}
	if record.DueDate != "" {
		if due, err := time.Parse(dueDateLayout, record.DueDate); err == nil {
			plan.DueDate = &due
		}
	}
	if err := o.store.CreatePlan(plan); err != nil {
		return fmt.Errorf("storing plan %q: %w", record.Title, err)
	}
	return nil
}

func (o *Orchestrator) broadcastStatus(ctx context.Context, runID uuid.UUID) {
	if o.broadcaster == nil {
		return
	}
	run, err := o.store.GetRun(runID)
	if err != nil {
		fmt.Printf("Could not load run %s for broadcast: %v\n", runID, err)
		return
	}
	if run == nil {
		fmt.Printf("Run %s no longer exists, skipping broadcast\n", runID)
		return
	}
	msg := &protocol.RunStatusMessage{
		RunID:                   run.ID.String(),
		State:                   run.State,
		RisksDetected:           run.RisksDetected,
		OpportunitiesIdentified: run.OpportunitiesIdentified,
		PlansGenerated:          run.PlansGenerated,
		LastUpdated:             run.LastUpdated.UTC().Format(time.RFC3339),
		CreatedAt:               run.CreatedAt.UTC().Format(time.RFC3339),
	}
	if run.CurrentTask != nil {
		msg.CurrentTask = *run.CurrentTask
	}
	if run.ErrorMessage != nil {
		msg.ErrorMessage = *run.ErrorMessage
	}
	if err := o.broadcaster.BroadcastRunStatus(ctx, msg); err != nil {
		fmt.Printf("Run status broadcast failed: %v\n", err)
	}
}

func (o *Orchestrator) broadcastSnapshot(ctx context.Context, manufacturerID uuid.UUID) {
	if o.broadcaster == nil {
		return
	}
	suppliers, err := o.store.ListSuppliers(manufacturerID)
	if err != nil {
		fmt.Printf("Could not load suppliers for snapshot: %v\n", err)
		return
	}
	if len(suppliers) == 0 {
		return
	}
	summaries, err := o.store.RiskSummariesBySupplier(manufacturerID)
	if err != nil {
		fmt.Printf("Could not load risk summaries for snapshot: %v\n", err)
		return
	}

	msg := &protocol.SupplierSnapshotMessage{
		ManufacturerID: manufacturerID.String(),
		Suppliers:      make([]protocol.SupplierPayload, 0, len(suppliers)),
	}
	for _, s := range suppliers {
		payload := protocol.SupplierPayload{
			ID:              s.ID.String(),
			ManufacturerID:  s.ManufacturerID.String(),
			Name:            s.Name,
			LatestRiskScore: s.LatestRiskScore,
			LatestRiskLevel: s.LatestRiskLevel,
			RiskSummary: protocol.SupplierRiskSummary{
				BySeverity: map[string]int{},
			},
		}
		if s.Location != nil {
			payload.Location = *s.Location
		}
		if s.City != nil {
			payload.City = *s.City
		}
		if s.Country != nil {
			payload.Country = *s.Country
		}
		if s.Region != nil {
			payload.Region = *s.Region
		}
		if s.Commodities != nil {
			payload.Commodities = *s.Commodities
		}
		if summary, ok := summaries[s.Name]; ok {
			payload.RiskSummary.Count = summary.Count
			payload.RiskSummary.BySeverity = summary.BySeverity
			if summary.LatestID != "" {
				payload.RiskSummary.Latest = &protocol.LatestRisk{
					ID:       summary.LatestID,
					Title:    summary.LatestTitle,
					Severity: summary.LatestSev,
				}
			}
		}
		msg.Suppliers = append(msg.Suppliers, payload)
	}
	if err := o.broadcaster.BroadcastSupplierSnapshot(ctx, msg); err != nil {
		fmt.Printf("Supplier snapshot broadcast failed: %v\n", err)
	}
}

// groupRisksBySupplier buckets risks by each affected supplier name; a
// multi-supplier risk contributes to every bucket it names.
func groupRisksBySupplier(risks []*database.Risk) map[string][]*database.Risk {
	out := make(map[string][]*database.Risk)
	for _, r := range risks {
		for _, name := range r.AffectedSuppliers {
			name = strings.TrimSpace(name)
			if name == "" {
				continue
			}
			out[name] = append(out[name], r)
		}
	}
	return out
}

func sortedKeys(m map[string][]*database.Risk) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func normalizeSeverity(severity string) string {
	switch strings.ToLower(strings.TrimSpace(severity)) {
	case database.SeverityLow:
		return database.SeverityLow
	case database.SeverityHigh:
		return database.SeverityHigh
	case database.SeverityCritical:
		return database.SeverityCritical
	default:
		return database.SeverityMedium
	}
}

func normalizeOpportunityType(t string) string {
	switch strings.ToLower(strings.TrimSpace(t)) {
	case database.OpportunityTimeSaving:
		return database.OpportunityTimeSaving
	case database.OpportunityQuality:
		return database.OpportunityQuality
	case database.OpportunityMarketExpansion:
		return database.OpportunityMarketExpansion
	case database.OpportunityDiversification:
		return database.OpportunityDiversification
	default:
		return database.OpportunityCostSaving
	}
}

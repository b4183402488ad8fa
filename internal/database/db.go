package database

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

// Enforce the numeric(10,2) column constraint on estimated cost/value.
const maxMoney = 99999999.99

// DB wraps the database connection
type DB struct {
	*sql.DB
}

// Connect establishes a connection to the database
func Connect(connectionString string) (*DB, error) {
	db, err := sql.Open("postgres", connectionString)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Test the connection
	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	// Set connection pool settings
	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)

	return &DB{db}, nil
}

// RunMigrations executes all SQL migration files in order
func (db *DB) RunMigrations(migrationsDir string) error {
	files, err := os.ReadDir(migrationsDir)
	if err != nil {
		return fmt.Errorf("failed to read migrations directory: %w", err)
	}

	var sqlFiles []string
	for _, file := range files {
		if !file.IsDir() && strings.HasSuffix(file.Name(), ".sql") {
			sqlFiles = append(sqlFiles, file.Name())
		}
	}
	sort.Strings(sqlFiles)

	for _, filename := range sqlFiles {
		fmt.Printf("Running migration: %s\n", filename)

		filePath := filepath.Join(migrationsDir, filename)
		content, err := os.ReadFile(filePath)
		if err != nil {
			return fmt.Errorf("failed to read migration %s: %w", filename, err)
		}

		if _, err := db.Exec(string(content)); err != nil {
			return fmt.Errorf("failed to execute migration %s: %w", filename, err)
		}
	}

	fmt.Println("All migrations completed successfully")
	return nil
}

func clampMoney(v *float64) *float64 {
	if v == nil {
		return nil
	}
	c := *v
	if c > maxMoney {
		c = maxMoney
	}
	if c < -maxMoney {
		c = -maxMoney
	}
	return &c
}

// GetManufacturer retrieves one manufacturer by id
func (db *DB) GetManufacturer(id uuid.UUID) (*Manufacturer, error) {
	query := `
		SELECT id, name, location, city, country, region, created_at, updated_at
		FROM manufacturers
		WHERE id = $1
	`

	var m Manufacturer
	err := db.QueryRow(query, id).Scan(
		&m.ID,
		&m.Name,
		&m.Location,
		&m.City,
		&m.Country,
		&m.Region,
		&m.CreatedAt,
		&m.UpdatedAt,
	)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	return &m, nil
}

// ListManufacturers returns all manufacturers, oldest first
func (db *DB) ListManufacturers() ([]*Manufacturer, error) {
	query := `
		SELECT id, name, location, city, country, region, created_at, updated_at
		FROM manufacturers
		ORDER BY created_at
	`

	rows, err := db.Query(query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var manufacturers []*Manufacturer
	for rows.Next() {
		var m Manufacturer
		if err := rows.Scan(
			&m.ID,
			&m.Name,
			&m.Location,
			&m.City,
			&m.Country,
			&m.Region,
			&m.CreatedAt,
			&m.UpdatedAt,
		); err != nil {
			return nil, err
		}
		manufacturers = append(manufacturers, &m)
	}

	return manufacturers, rows.Err()
}

// ListSuppliers returns all suppliers of a manufacturer, newest first
func (db *DB) ListSuppliers(manufacturerID uuid.UUID) ([]*Supplier, error) {
	query := `
		SELECT id, manufacturer_id, name, location, city, country, region,
		       commodities, latest_risk_score, latest_risk_level,
		       created_at, updated_at
		FROM suppliers
		WHERE manufacturer_id = $1
		ORDER BY created_at DESC
	`

	rows, err := db.Query(query, manufacturerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var suppliers []*Supplier
	for rows.Next() {
		var s Supplier
		if err := rows.Scan(
			&s.ID,
			&s.ManufacturerID,
			&s.Name,
			&s.Location,
			&s.City,
			&s.Country,
			&s.Region,
			&s.Commodities,
			&s.LatestRiskScore,
			&s.LatestRiskLevel,
			&s.CreatedAt,
			&s.UpdatedAt,
		); err != nil {
			return nil, err
		}
		suppliers = append(suppliers, &s)
	}

	return suppliers, rows.Err()
}

// SupplierCity resolves a supplier's city, "Unknown" when missing
func (db *DB) SupplierCity(id uuid.UUID) (string, error) {
	var city sql.NullString
	err := db.QueryRow(`SELECT city FROM suppliers WHERE id = $1`, id).Scan(&city)
	if err == sql.ErrNoRows {
		return "Unknown", nil
	}
	if err != nil {
		return "", err
	}
	if !city.Valid || city.String == "" {
		return "Unknown", nil
	}
	return city.String, nil
}

// ManufacturerCity resolves a manufacturer's city, "Unknown" when missing
func (db *DB) ManufacturerCity(id uuid.UUID) (string, error) {
	var city sql.NullString
	err := db.QueryRow(`SELECT city FROM manufacturers WHERE id = $1`, id).Scan(&city)
	if err == sql.ErrNoRows {
		return "Unknown", nil
	}
	if err != nil {
		return "", err
	}
	if !city.Valid || city.String == "" {
		return "Unknown", nil
	}
	return city.String, nil
}

// CreateRisk inserts a new risk and fills its generated id
func (db *DB) CreateRisk(risk *Risk) error {
	query := `
		INSERT INTO risks (
			title, description, severity, status, source_type, source_data,
			affected_region, affected_suppliers, estimated_impact,
			estimated_cost, supplier_id, manufacturer_id, run_id
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		RETURNING id, created_at
	`

	return db.QueryRow(
		query,
		risk.Title,
		risk.Description,
		risk.Severity,
		risk.Status,
		risk.SourceType,
		risk.SourceData,
		risk.AffectedRegion,
		pq.Array(risk.AffectedSuppliers),
		risk.EstimatedImpact,
		clampMoney(risk.EstimatedCost),
		risk.SupplierID,
		risk.ManufacturerID,
		risk.RunID,
	).Scan(&risk.ID, &risk.CreatedAt)
}

// CreateOpportunity inserts a new opportunity and fills its generated id
func (db *DB) CreateOpportunity(opp *Opportunity) error {
	query := `
		INSERT INTO opportunities (
			title, description, type, status, source_type, source_data,
			affected_region, potential_benefit, estimated_value,
			manufacturer_id, run_id
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		RETURNING id, created_at
	`

	return db.QueryRow(
		query,
		opp.Title,
		opp.Description,
		opp.Type,
		opp.Status,
		opp.SourceType,
		opp.SourceData,
		opp.AffectedRegion,
		opp.PotentialBenefit,
		clampMoney(opp.EstimatedValue),
		opp.ManufacturerID,
		opp.RunID,
	).Scan(&opp.ID, &opp.CreatedAt)
}

// CreatePlan inserts a new mitigation plan and fills its generated id
func (db *DB) CreatePlan(plan *MitigationPlan) error {
	query := `
		INSERT INTO mitigation_plans (
			title, description, actions, status, risk_id, opportunity_id,
			metadata, assigned_to, due_date, run_id
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING id, created_at
	`

	return db.QueryRow(
		query,
		plan.Title,
		plan.Description,
		pq.Array(plan.Actions),
		plan.Status,
		plan.RiskID,
		plan.OpportunityID,
		plan.Metadata,
		plan.AssignedTo,
		plan.DueDate,
		plan.RunID,
	).Scan(&plan.ID, &plan.CreatedAt)
}

func scanRisks(rows *sql.Rows) ([]*Risk, error) {
	defer rows.Close()

	var risks []*Risk
	for rows.Next() {
		var r Risk
		if err := rows.Scan(
			&r.ID,
			&r.Title,
			&r.Description,
			&r.Severity,
			&r.Status,
			&r.SourceType,
			&r.SourceData,
			&r.AffectedRegion,
			pq.Array(&r.AffectedSuppliers),
			&r.EstimatedImpact,
			&r.EstimatedCost,
			&r.SupplierID,
			&r.ManufacturerID,
			&r.RunID,
			&r.CreatedAt,
			&r.UpdatedAt,
		); err != nil {
			return nil, err
		}
		risks = append(risks, &r)
	}

	return risks, rows.Err()
}

const riskColumns = `
	id, title, description, severity, status, source_type, source_data,
	affected_region, affected_suppliers, estimated_impact, estimated_cost,
	supplier_id, manufacturer_id, run_id, created_at, updated_at
`

// ListDetectedRisksForRun returns all detected risks created by one run
func (db *DB) ListDetectedRisksForRun(manufacturerID, runID uuid.UUID) ([]*Risk, error) {
	query := `
		SELECT ` + riskColumns + `
		FROM risks
		WHERE manufacturer_id = $1 AND status = $2 AND run_id = $3
		ORDER BY created_at
	`

	rows, err := db.Query(query, manufacturerID, RiskStatusDetected, runID)
	if err != nil {
		return nil, err
	}
	return scanRisks(rows)
}

// ListDetectedRisksForSupplier returns all detected risks linked to a supplier
func (db *DB) ListDetectedRisksForSupplier(manufacturerID, supplierID uuid.UUID) ([]*Risk, error) {
	query := `
		SELECT ` + riskColumns + `
		FROM risks
		WHERE manufacturer_id = $1 AND status = $2 AND supplier_id = $3
		ORDER BY created_at
	`

	rows, err := db.Query(query, manufacturerID, RiskStatusDetected, supplierID)
	if err != nil {
		return nil, err
	}
	return scanRisks(rows)
}

// ListIdentifiedOpportunitiesForRun returns opportunities created by one run
func (db *DB) ListIdentifiedOpportunitiesForRun(manufacturerID, runID uuid.UUID) ([]*Opportunity, error) {
	query := `
		SELECT id, title, description, type, status, source_type, source_data,
		       affected_region, potential_benefit, estimated_value,
		       manufacturer_id, run_id, created_at, updated_at
		FROM opportunities
		WHERE manufacturer_id = $1 AND status = $2 AND run_id = $3
		ORDER BY created_at
	`

	rows, err := db.Query(query, manufacturerID, OpportunityStatusIdentified, runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var opps []*Opportunity
	for rows.Next() {
		var o Opportunity
		if err := rows.Scan(
			&o.ID,
			&o.Title,
			&o.Description,
			&o.Type,
			&o.Status,
			&o.SourceType,
			&o.SourceData,
			&o.AffectedRegion,
			&o.PotentialBenefit,
			&o.EstimatedValue,
			&o.ManufacturerID,
			&o.RunID,
			&o.CreatedAt,
			&o.UpdatedAt,
		); err != nil {
			return nil, err
		}
		opps = append(opps, &o)
	}

	return opps, rows.Err()
}

// CountPlansForRisk returns how many plans already reference a risk
func (db *DB) CountPlansForRisk(riskID uuid.UUID) (int, error) {
	var count int
	err := db.QueryRow(
		`SELECT COUNT(*) FROM mitigation_plans WHERE risk_id = $1`, riskID,
	).Scan(&count)
	return count, err
}

// CountPlansForOpportunity returns how many plans already reference an opportunity
func (db *DB) CountPlansForOpportunity(opportunityID uuid.UUID) (int, error) {
	var count int
	err := db.QueryRow(
		`SELECT COUNT(*) FROM mitigation_plans WHERE opportunity_id = $1`, opportunityID,
	).Scan(&count)
	return count, err
}

// CreateRiskScore inserts the OEM-level score record for a run
func (db *DB) CreateRiskScore(score *RiskScore) error {
	query := `
		INSERT INTO risk_scores (
			manufacturer_id, overall_score, breakdown, severity_counts,
			risk_ids, run_id
		) VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at
	`

	return db.QueryRow(
		query,
		score.ManufacturerID,
		score.OverallScore,
		score.Breakdown,
		score.SeverityCounts,
		score.RiskIDs,
		score.RunID,
	).Scan(&score.ID, &score.CreatedAt)
}

// UpdateSupplierRiskScore sets or clears the supplier-level score columns.
// Pass nil score/level to clear (supplier has no detected risks).
func (db *DB) UpdateSupplierRiskScore(supplierID uuid.UUID, score *float64, level *string) error {
	query := `
		UPDATE suppliers
		SET latest_risk_score = $1,
		    latest_risk_level = $2,
		    updated_at = CURRENT_TIMESTAMP
		WHERE id = $3
	`

	_, err := db.Exec(query, score, level, supplierID)
	return err
}

// RiskSummariesBySupplier groups detected risks by affected supplier name
func (db *DB) RiskSummariesBySupplier(manufacturerID uuid.UUID) (map[string]*SupplierRiskSummary, error) {
	query := `
		SELECT id, title, severity, affected_suppliers
		FROM risks
		WHERE manufacturer_id = $1 AND status = $2
		ORDER BY created_at DESC
	`

	rows, err := db.Query(query, manufacturerID, RiskStatusDetected)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	summaries := make(map[string]*SupplierRiskSummary)
	for rows.Next() {
		var (
			id       uuid.UUID
			title    string
			severity string
			names    []string
		)
		if err := rows.Scan(&id, &title, &severity, pq.Array(&names)); err != nil {
			return nil, err
		}
		for _, name := range names {
			name = strings.TrimSpace(name)
			if name == "" {
				continue
			}
			s, ok := summaries[name]
			if !ok {
				s = &SupplierRiskSummary{BySeverity: make(map[string]int)}
				summaries[name] = s
			}
			s.Count++
			s.BySeverity[severity]++
			if s.LatestID == "" {
				s.LatestID = id.String()
				s.LatestTitle = title
				s.LatestSev = severity
			}
		}
	}

	return summaries, rows.Err()
}

// CreateRun inserts a new run row in its initial state
func (db *DB) CreateRun(state string, task string) (*Run, error) {
	query := `
		INSERT INTO agent_runs (state, current_task, last_updated)
		VALUES ($1, $2, CURRENT_TIMESTAMP)
		RETURNING id, state, current_task, risks_detected,
		          opportunities_identified, plans_generated, error_message,
		          last_updated, created_at
	`

	var run Run
	err := db.QueryRow(query, state, task).Scan(
		&run.ID,
		&run.State,
		&run.CurrentTask,
		&run.RisksDetected,
		&run.OpportunitiesIdentified,
		&run.PlansGenerated,
		&run.ErrorMessage,
		&run.LastUpdated,
		&run.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	return &run, nil
}

// FindActiveRun returns the most recent run in a non-terminal state, nil if none
func (db *DB) FindActiveRun() (*Run, error) {
	query := `
		SELECT id, state, current_task, risks_detected,
		       opportunities_identified, plans_generated, error_message,
		       last_updated, created_at
		FROM agent_runs
		WHERE state IN ($1, $2, $3)
		ORDER BY created_at DESC
		LIMIT 1
	`

	var run Run
	err := db.QueryRow(query, RunStateMonitoring, RunStateAnalyzing, RunStateProcessing).Scan(
		&run.ID,
		&run.State,
		&run.CurrentTask,
		&run.RisksDetected,
		&run.OpportunitiesIdentified,
		&run.PlansGenerated,
		&run.ErrorMessage,
		&run.LastUpdated,
		&run.CreatedAt,
	)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	return &run, nil
}

// GetRun retrieves one run row by id
func (db *DB) GetRun(id uuid.UUID) (*Run, error) {
	query := `
		SELECT id, state, current_task, risks_detected,
		       opportunities_identified, plans_generated, error_message,
		       last_updated, created_at
		FROM agent_runs
		WHERE id = $1
	`

	var run Run
	err := db.QueryRow(query, id).Scan(
		&run.ID,
		&run.State,
		&run.CurrentTask,
		&run.RisksDetected,
		&run.OpportunitiesIdentified,
		&run.PlansGenerated,
		&run.ErrorMessage,
		&run.LastUpdated,
		&run.CreatedAt,
	)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	return &run, nil
}

// UpdateRunState moves a run to a new state with a task description
func (db *DB) UpdateRunState(id uuid.UUID, state, task string) error {
	query := `
		UPDATE agent_runs
		SET state = $1, current_task = $2, last_updated = CURRENT_TIMESTAMP
		WHERE id = $3
	`

	_, err := db.Exec(query, state, task, id)
	return err
}

// MarkRunError finalizes a run in the error state with a recorded message
func (db *DB) MarkRunError(id uuid.UUID, message string) error {
	query := `
		UPDATE agent_runs
		SET state = $1, error_message = $2, last_updated = CURRENT_TIMESTAMP
		WHERE id = $3
	`

	_, err := db.Exec(query, RunStateError, message, id)
	return err
}

// UpdateRunCounts writes the aggregate risk/opportunity/plan counts for a run
func (db *DB) UpdateRunCounts(id uuid.UUID) error {
	query := `
		UPDATE agent_runs
		SET risks_detected = (SELECT COUNT(*) FROM risks WHERE run_id = $1),
		    opportunities_identified = (SELECT COUNT(*) FROM opportunities WHERE run_id = $1),
		    plans_generated = (SELECT COUNT(*) FROM mitigation_plans WHERE run_id = $1),
		    last_updated = CURRENT_TIMESTAMP
		WHERE id = $1
	`

	_, err := db.Exec(query, id)
	return err
}

// PruneStaleRuns marks runs stuck in a non-terminal state older than maxAge
// as errored. Called at startup so a crashed process never blocks new runs.
func (db *DB) PruneStaleRuns(maxAge time.Duration) (int64, error) {
	query := `
		UPDATE agent_runs
		SET state = $1, error_message = 'run abandoned (stale)',
		    last_updated = CURRENT_TIMESTAMP
		WHERE state IN ($2, $3, $4) AND created_at < $5
	`

	result, err := db.Exec(
		query,
		RunStateError,
		RunStateMonitoring, RunStateAnalyzing, RunStateProcessing,
		time.Now().Add(-maxAge),
	)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

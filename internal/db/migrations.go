package db

import (
	"fmt"

	"gorm.io/gorm"
)

var migrationStatements = []string{
	`CREATE EXTENSION IF NOT EXISTS "uuid-ossp";`,
	`DO $$
	BEGIN
		IF NOT EXISTS (SELECT 1 FROM pg_type WHERE typname = 'solicitation_state') THEN
			CREATE TYPE solicitation_state AS ENUM ('DRAFT', 'OPEN', 'UNDER_EVALUATION', 'AWARDED', 'CANCELLED');
		END IF;
		IF NOT EXISTS (SELECT 1 FROM pg_type WHERE typname = 'proposal_state') THEN
			CREATE TYPE proposal_state AS ENUM ('SUBMITTED', 'WITHDRAWN', 'WON', 'NOT_SELECTED');
		END IF;
		IF NOT EXISTS (SELECT 1 FROM pg_type WHERE typname = 'payment_modality') THEN
			CREATE TYPE payment_modality AS ENUM ('MONTHLY', 'QUARTERLY', 'ANNUAL');
		END IF;
		IF NOT EXISTS (SELECT 1 FROM pg_type WHERE typname = 'ack_state') THEN
			CREATE TYPE ack_state AS ENUM ('PENDING', 'ACCEPTED_BY_BIDDER');
		END IF;
	END
	$$;`,
	`CREATE TABLE IF NOT EXISTS solicitations (
		id UUID PRIMARY KEY,
		issuer_org_id UUID NOT NULL,
		title VARCHAR(255) NOT NULL DEFAULT '',
		category VARCHAR(128) NOT NULL DEFAULT '',
		description TEXT NOT NULL DEFAULT '',
		budget_min NUMERIC(18,2),
		budget_max NUMERIC(18,2),
		closing_at TIMESTAMPTZ NOT NULL,
		state solicitation_state NOT NULL DEFAULT 'DRAFT',
		requirements JSONB NOT NULL DEFAULT '[]'::jsonb,
		inspection_at TIMESTAMPTZ,
		inspection_location TEXT NOT NULL DEFAULT '',
		special_conditions TEXT NOT NULL DEFAULT '',
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		published_at TIMESTAMPTZ,
		evaluation_started_at TIMESTAMPTZ,
		closed_out_at TIMESTAMPTZ
	);`,
	`CREATE INDEX IF NOT EXISTS idx_solicitations_issuer ON solicitations (issuer_org_id);`,
	`CREATE INDEX IF NOT EXISTS idx_solicitations_state ON solicitations (state);`,
	`CREATE TABLE IF NOT EXISTS proposals (
		id UUID PRIMARY KEY,
		solicitation_id UUID NOT NULL REFERENCES solicitations(id) ON DELETE CASCADE,
		bidder_org_id UUID NOT NULL,
		annual_price NUMERIC(18,2) NOT NULL,
		modality payment_modality NOT NULL,
		narrative TEXT NOT NULL DEFAULT '',
		ack_read_requirements BOOLEAN NOT NULL DEFAULT FALSE,
		ack_site_inspection BOOLEAN NOT NULL DEFAULT FALSE,
		ack_penalty_terms BOOLEAN NOT NULL DEFAULT FALSE,
		state proposal_state NOT NULL DEFAULT 'SUBMITTED',
		submitted_at TIMESTAMPTZ NOT NULL
	);`,
	`CREATE UNIQUE INDEX IF NOT EXISTS uq_proposal_active_bidder
		ON proposals (solicitation_id, bidder_org_id)
		WHERE state <> 'WITHDRAWN';`,
	`CREATE INDEX IF NOT EXISTS idx_proposals_solicitation ON proposals (solicitation_id);`,
	`CREATE TABLE IF NOT EXISTS proposal_scores (
		proposal_id UUID PRIMARY KEY REFERENCES proposals(id) ON DELETE CASCADE,
		price_score NUMERIC(6,2) NOT NULL,
		experience_score NUMERIC(6,2) NOT NULL,
		technical_score NUMERIC(6,2) NOT NULL,
		documentation_score NUMERIC(6,2) NOT NULL,
		reputation_score NUMERIC(6,2) NOT NULL,
		total NUMERIC(6,2) NOT NULL,
		rationale TEXT NOT NULL DEFAULT '',
		scored_at TIMESTAMPTZ NOT NULL
	);`,
	`CREATE TABLE IF NOT EXISTS contracts (
		id UUID PRIMARY KEY,
		solicitation_id UUID NOT NULL REFERENCES solicitations(id),
		winning_proposal_id UUID NOT NULL REFERENCES proposals(id),
		issuer_org_id UUID NOT NULL,
		bidder_org_id UUID NOT NULL,
		start_date TIMESTAMPTZ NOT NULL,
		end_date TIMESTAMPTZ,
		modality payment_modality NOT NULL,
		penalty_percentage NUMERIC(5,2) NOT NULL,
		special_conditions TEXT NOT NULL DEFAULT '',
		internal_notes TEXT NOT NULL DEFAULT '',
		ack_state ack_state NOT NULL DEFAULT 'PENDING',
		acknowledged_at TIMESTAMPTZ,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	);`,
	`CREATE UNIQUE INDEX IF NOT EXISTS uq_contract_solicitation ON contracts (solicitation_id);`,
}

func runMigrations(db *gorm.DB) error {
	for i, stmt := range migrationStatements {
		if err := db.Exec(stmt).Error; err != nil {
			return fmt.Errorf("migration %d failed: %w", i+1, err)
		}
	}
	return nil
}

package migrations

import (
	"github.com/go-gormigrate/gormigrate/v2"
	"gorm.io/gorm"
)

func createRecoveryTablesMigration() *gormigrate.Migration {
	return &gormigrate.Migration{
		ID: "000002_create_recovery_tables",
		Migrate: func(tx *gorm.DB) error {
			// Clients and suppliers
			if err := tx.Exec(`
				CREATE TABLE IF NOT EXISTS clients (
					id UUID PRIMARY KEY DEFAULT uuid_generate_v4(),
					cnpj VARCHAR(14) NOT NULL UNIQUE,
					legal_name VARCHAR(255) NOT NULL,
					trade_name VARCHAR(255),
					email VARCHAR(255),
					phone VARCHAR(20),
					contact_name VARCHAR(150),
					city VARCHAR(100),
					state VARCHAR(2),
					status VARCHAR(20) DEFAULT 'active',
					observations TEXT,
					created_at TIMESTAMP WITH TIME ZONE DEFAULT NOW(),
					updated_at TIMESTAMP WITH TIME ZONE DEFAULT NOW(),
					deleted_at TIMESTAMP WITH TIME ZONE
				);

				CREATE TABLE IF NOT EXISTS suppliers (
					id UUID PRIMARY KEY DEFAULT uuid_generate_v4(),
					cnpj VARCHAR(14) NOT NULL UNIQUE,
					legal_name VARCHAR(255),
					trade_name VARCHAR(255),
					main_activity_code VARCHAR(10),
					main_activity_desc VARCHAR(255),
					legal_nature VARCHAR(150),
					company_size VARCHAR(50),
					tax_regime VARCHAR(50),
					street VARCHAR(255),
					number VARCHAR(20),
					complement VARCHAR(100),
					district VARCHAR(100),
					city VARCHAR(100),
					state VARCHAR(2),
					postal_code VARCHAR(10),
					registry_fetched_at TIMESTAMP WITH TIME ZONE,
					created_at TIMESTAMP WITH TIME ZONE DEFAULT NOW(),
					updated_at TIMESTAMP WITH TIME ZONE DEFAULT NOW(),
					deleted_at TIMESTAMP WITH TIME ZONE
				);

				CREATE INDEX idx_suppliers_main_activity_code ON suppliers(main_activity_code);
			`).Error; err != nil {
				return err
			}

			// Payments and tax rates
			if err := tx.Exec(`
				CREATE TABLE IF NOT EXISTS payments (
					id UUID PRIMARY KEY DEFAULT uuid_generate_v4(),
					client_id UUID NOT NULL REFERENCES clients(id),
					supplier_cnpj VARCHAR(14) NOT NULL,
					amount DECIMAL(20,2) NOT NULL,
					payment_date DATE NOT NULL,
					description TEXT,
					created_at TIMESTAMP WITH TIME ZONE DEFAULT NOW(),
					updated_at TIMESTAMP WITH TIME ZONE DEFAULT NOW(),
					deleted_at TIMESTAMP WITH TIME ZONE
				);

				CREATE INDEX idx_payments_supplier_cnpj ON payments(supplier_cnpj);
				CREATE INDEX idx_payments_payment_date ON payments(payment_date);

				CREATE TABLE IF NOT EXISTS tax_rates (
					id UUID PRIMARY KEY DEFAULT uuid_generate_v4(),
					activity_code VARCHAR(10) NOT NULL,
					description VARCHAR(255),
					tax_type VARCHAR(10) NOT NULL,
					percentage DECIMAL(10,4) NOT NULL,
					minimum_value DECIMAL(20,2) NOT NULL,
					effective_from DATE NOT NULL,
					effective_to DATE,
					created_at TIMESTAMP WITH TIME ZONE DEFAULT NOW(),
					updated_at TIMESTAMP WITH TIME ZONE DEFAULT NOW(),
					deleted_at TIMESTAMP WITH TIME ZONE
				);

				CREATE INDEX idx_tax_rates_activity_code ON tax_rates(activity_code);
				CREATE INDEX idx_tax_rates_effective_from ON tax_rates(effective_from);
			`).Error; err != nil {
				return err
			}

			// Audit results and proposals
			return tx.Exec(`
				CREATE TABLE IF NOT EXISTS audit_results (
					id UUID PRIMARY KEY DEFAULT uuid_generate_v4(),
					payment_id UUID NOT NULL REFERENCES payments(id),
					supplier_id UUID NOT NULL REFERENCES suppliers(id),
					tax_rate_id UUID REFERENCES tax_rates(id),
					original_amount DECIMAL(20,2) NOT NULL,
					applied_rate DECIMAL(10,4),
					tax_value DECIMAL(20,2) NOT NULL,
					net_value DECIMAL(20,2) NOT NULL,
					tax_type VARCHAR(10),
					status VARCHAR(20) NOT NULL,
					observations TEXT,
					audited_at TIMESTAMP WITH TIME ZONE NOT NULL,
					created_at TIMESTAMP WITH TIME ZONE DEFAULT NOW()
				);

				CREATE INDEX idx_audit_results_payment_id ON audit_results(payment_id);
				CREATE INDEX idx_audit_results_status ON audit_results(status);
				CREATE INDEX idx_audit_results_audited_at ON audit_results(audited_at);

				CREATE TABLE IF NOT EXISTS proposals (
					id UUID PRIMARY KEY DEFAULT uuid_generate_v4(),
					client_id UUID NOT NULL REFERENCES clients(id),
					title VARCHAR(255) NOT NULL,
					slug VARCHAR(120) UNIQUE,
					description TEXT,
					estimated_value DECIMAL(20,2),
					fee_percentage DECIMAL(10,4),
					status VARCHAR(20) DEFAULT 'draft',
					valid_until DATE,
					sent_at TIMESTAMP WITH TIME ZONE,
					decided_at TIMESTAMP WITH TIME ZONE,
					created_at TIMESTAMP WITH TIME ZONE DEFAULT NOW(),
					updated_at TIMESTAMP WITH TIME ZONE DEFAULT NOW(),
					deleted_at TIMESTAMP WITH TIME ZONE
				);
			`).Error
		},
		Rollback: func(tx *gorm.DB) error {
			return tx.Exec(`
				DROP TABLE IF EXISTS proposals;
				DROP TABLE IF EXISTS audit_results;
				DROP TABLE IF EXISTS tax_rates;
				DROP TABLE IF EXISTS payments;
				DROP TABLE IF EXISTS suppliers;
				DROP TABLE IF EXISTS clients;
			`).Error
		},
	}
}

func init() {
	migrationsList = append(migrationsList, createRecoveryTablesMigration())
}

package database

import (
	"fmt"

	"formsportal/internal/model"
)

// FormTableDDL returns the statements creating the header and item tables of
// one form. Statements are idempotent.
func FormTableDDL(f model.FormType) []string {
	h, i := f.HeaderTable, f.ItemTable
	return []string{
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %[1]s (
			id BIGSERIAL PRIMARY KEY,
			form_code VARCHAR(40) NOT NULL,
			form_type VARCHAR(50) NOT NULL DEFAULT '%[2]s',
			requester_id VARCHAR(64) NOT NULL DEFAULT '',
			requester_name VARCHAR(255) NOT NULL,
			employee_id VARCHAR(50) NOT NULL DEFAULT '',
			branch VARCHAR(100) NOT NULL DEFAULT '',
			department VARCHAR(100) NOT NULL DEFAULT '',
			status VARCHAR(30) NOT NULL DEFAULT 'Pending',
			payload JSONB NOT NULL DEFAULT '{}',
			total_amount NUMERIC(18,2) NOT NULL DEFAULT 0,
			approved_by VARCHAR(255),
			approved_signature VARCHAR(255),
			approved_at TIMESTAMPTZ,
			declined_reason TEXT,
			declined_by VARCHAR(255),
			declined_at TIMESTAMPTZ,
			received_by VARCHAR(255),
			received_signature VARCHAR(255),
			received_at TIMESTAMPTZ,
			completion JSONB,
			completed_by VARCHAR(255),
			completed_at TIMESTAMPTZ,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			CONSTRAINT %[1]s_form_code_key UNIQUE (form_code),
			CONSTRAINT %[1]s_declined_reason_check CHECK ((status = 'Declined') = (declined_reason IS NOT NULL))
		)`, h, f.Key),
		fmt.Sprintf("CREATE INDEX IF NOT EXISTS idx_%[1]s_status ON %[1]s(status)", h),
		fmt.Sprintf("CREATE INDEX IF NOT EXISTS idx_%[1]s_created_at ON %[1]s(created_at DESC)", h),
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %[1]s (
			id BIGSERIAL PRIMARY KEY,
			request_id BIGINT NOT NULL REFERENCES %[2]s(id) ON DELETE CASCADE,
			line_no INT NOT NULL,
			payload JSONB NOT NULL DEFAULT '{}',
			amount NUMERIC(18,2),
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`, i, h),
		fmt.Sprintf("CREATE INDEX IF NOT EXISTS idx_%[1]s_request_id ON %[1]s(request_id)", i),
	}
}

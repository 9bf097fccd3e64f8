package model

import "time"

// OutstandingAlertAge is how long a request may stay pending before it is
// counted as an alert on the dashboard.
const OutstandingAlertAge = 48 * time.Hour

// StatusCount is one (form, status) group.
type StatusCount struct {
	FormType string `json:"form_type"`
	Status   string `json:"status"`
	Count    int64  `json:"count"`
}

// FormWorkload is the bucketed status breakdown of one form type.
type FormWorkload struct {
	FormType string           `json:"form_type"`
	FormName string           `json:"form_name"`
	Pending  int64            `json:"pending"`
	Approved int64            `json:"approved"`
	Declined int64            `json:"declined"`
	Other    int64            `json:"other"`
	Total    int64            `json:"total"`
	ByStatus map[string]int64 `json:"by_status"`
}

// WorkloadSummary rolls up every form type.
type WorkloadSummary struct {
	Forms    []FormWorkload `json:"forms"`
	Pending  int64          `json:"pending"`
	Approved int64          `json:"approved"`
	Declined int64          `json:"declined"`
}

// OutstandingRow is a pending request in the cross-form queue.
type OutstandingRow struct {
	FormType      string    `json:"form_type"`
	RequestID     int64     `json:"request_id"`
	FormCode      string    `json:"form_code"`
	RequesterName string    `json:"requester_name"`
	Branch        string    `json:"branch"`
	Status        string    `json:"status"`
	ActivityAt    time.Time `json:"activity_at"`
	AgeSeconds    int64     `json:"age_seconds" gorm:"-"`
}

// OutstandingQueue is the limited page plus the alert count over all rows.
type OutstandingQueue struct {
	Items  []OutstandingRow `json:"items"`
	Total  int64            `json:"total"`
	Alerts int64            `json:"alerts"`
}

// EngagementSummary reports user activity over the trailing window.
type EngagementSummary struct {
	TotalUsers       int64     `json:"total_users"`
	ActiveSubmitters int64     `json:"active_submitters"`
	Submissions      int64     `json:"submissions"`
	WindowStart      time.Time `json:"window_start"`
}

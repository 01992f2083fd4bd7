package probe

import (
	"encoding/json"
	"time"
)

// SeedConfig holds configuration for the snapshot seeder.
type SeedConfig struct {
	DB          string    // SQLite file to write
	Vehicles    int       // stock rows
	Competitors int       // competitor rows
	Seed        uint64    // generator seed; equal seeds give equal snapshots
	Now         time.Time // reference date for publication and detection dates
}

// CheckConfig holds configuration for the API checker.
type CheckConfig struct {
	BaseURL string        // base URL of the service
	Source  string        // optional competitor source filter
	Timeout time.Duration // HTTP request timeout
	Output  string        // report file; empty means stdout only
}

// listResponse is the subset of GET /pricing-analysis the checks read.
type listResponse struct {
	Success  bool            `json:"success"`
	Count    int             `json:"count"`
	Stats    listStats       `json:"stats"`
	Vehicles json.RawMessage `json:"vehiculos"`
}

type listStats struct {
	OverallPosition float64 `json:"posicionGeneral"`
	Opportunities   int     `json:"oportunidades"`
	Total           int     `json:"totalComparables"`
}

type vehicle struct {
	ID          string   `json:"id"`
	Position    *string  `json:"posicion"`
	Recommended *float64 `json:"precioRecomendado"`
}

// CheckResult is the outcome of one verification.
type CheckResult struct {
	Name   string `json:"name"`
	Passed bool   `json:"passed"`
	Detail string `json:"detail,omitempty"`
}

// Report is written at the end of a check run.
type Report struct {
	BaseURL    string        `json:"baseUrl"`
	Source     string        `json:"source,omitempty"`
	StartedAt  time.Time     `json:"startedAt"`
	Duration   string        `json:"duration"`
	Vehicles   int           `json:"vehicles"`
	Checks     []CheckResult `json:"checks"`
	Passed     bool          `json:"passed"`
	FirstCall  string        `json:"firstCall"`
	SecondCall string        `json:"secondCall"`
}

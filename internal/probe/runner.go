package probe

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/okian/comparador/pkg/logger"
)

// File permission constants.
const (
	directoryPermission = 0o750
	reportPermission    = 0o600
)

// Check calls the analysis endpoint twice, verifies the responses and
// writes the report to out and, when configured, to cfg.Output. It returns
// ErrChecksFailed when any check fails.
func Check(ctx context.Context, cfg CheckConfig, out io.Writer) (Report, error) {
	report := Report{BaseURL: cfg.BaseURL, Source: cfg.Source, StartedAt: time.Now()}
	log := logger.Get()
	log.Info(ctx, "starting pricing probe",
		logger.String("baseURL", cfg.BaseURL),
		logger.String("source", cfg.Source),
		logger.Duration("timeout", cfg.Timeout),
	)

	client := newHTTPClient(cfg.BaseURL, cfg.Timeout)
	if err := client.health(ctx); err != nil {
		return report, err
	}

	start := time.Now()
	first, _, err := client.analysis(ctx, cfg.Source)
	if err != nil {
		return report, fmt.Errorf("first call: %w", err)
	}
	report.FirstCall = time.Since(start).String()

	start = time.Now()
	second, _, err := client.analysis(ctx, cfg.Source)
	if err != nil {
		return report, fmt.Errorf("second call: %w", err)
	}
	report.SecondCall = time.Since(start).String()

	report.Vehicles = first.Count
	report.Checks = verify(first, second)
	report.Passed = true
	for _, c := range report.Checks {
		if !c.Passed {
			report.Passed = false
			log.Warn(ctx, "check failed", logger.String("check", c.Name), logger.String("detail", c.Detail))
		}
	}
	report.Duration = time.Since(report.StartedAt).String()

	if err := writeReport(report, out, cfg.Output); err != nil {
		return report, err
	}
	if !report.Passed {
		return report, ErrChecksFailed
	}
	log.Info(ctx, "all checks passed", logger.Int("vehicles", report.Vehicles))
	return report, nil
}

func writeReport(r Report, out io.Writer, path string) error {
	data, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal report: %w", err)
	}
	data = append(data, '\n')
	if out != nil {
		if _, err := out.Write(data); err != nil {
			return fmt.Errorf("write report: %w", err)
		}
	}
	if path == "" {
		return nil
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, directoryPermission); err != nil {
			return fmt.Errorf("create report directory: %w", err)
		}
	}
	if err := os.WriteFile(path, data, reportPermission); err != nil {
		return fmt.Errorf("write report file: %w", err)
	}
	return nil
}

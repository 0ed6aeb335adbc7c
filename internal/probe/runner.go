package probe

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"time"

	"github.com/goccy/go-json"
	"github.com/okian/discmatch/internal/domain/model"
	"github.com/okian/discmatch/pkg/logger"
	"golang.org/x/sync/errgroup"
)

// File permission constants.
const (
	directoryPermission = 0750
	reportPermission    = 0600
)

// Run matches every reference disc against a live service, verifies the
// answers and optionally writes a JSON report.
func Run(ctx context.Context, cfg *Config) (*Report, error) {
	log := logger.Get().Named("probe")
	client := NewClient(cfg.BaseURL, cfg.Timeout)

	report := &Report{BaseURL: cfg.BaseURL, StartTime: time.Now(), Violations: []string{}}

	log.Info(ctx, "starting discmatch probe",
		logger.String("baseURL", cfg.BaseURL),
		logger.Int("workers", cfg.Workers),
		logger.Duration("timeout", cfg.Timeout))

	if err := client.Health(ctx); err != nil {
		return nil, fmt.Errorf("service health check failed: %w", err)
	}

	st, err := client.Status(ctx)
	if err != nil {
		return nil, fmt.Errorf("status: %w", err)
	}
	report.SourceInUse = st.SourceInUse

	ref, err := client.Catalog(ctx, model.DatasetReference)
	if err != nil {
		return nil, fmt.Errorf("reference catalog: %w", err)
	}
	report.ReferenceDisc = len(ref.Records)

	report.Results = matchAll(ctx, client, cfg, ref.Records)
	for _, r := range report.Results {
		if r.Err != "" {
			report.Failed++
			continue
		}
		report.Matched++
		report.Violations = append(report.Violations, Verify(r)...)
	}
	report.Violations = append(report.Violations, checkDeterminism(ctx, client, report.Results)...)
	report.Duration = time.Since(report.StartTime)

	if cfg.OutputFile != "" {
		if err := saveReport(cfg.OutputFile, report); err != nil {
			log.Warn(ctx, "failed to save report", logger.Error(err))
		}
	}

	log.Info(ctx, "probe finished",
		logger.String("source", report.SourceInUse),
		logger.Int("referenceDiscs", report.ReferenceDisc),
		logger.Int("matched", report.Matched),
		logger.Int("failed", report.Failed),
		logger.Int("violations", len(report.Violations)),
		logger.Duration("duration", report.Duration))
	return report, nil
}

func matchAll(ctx context.Context, client *Client, cfg *Config, discs []model.DiscRecord) []Result {
	workers := cfg.Workers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	log := logger.Get().Named("probe")

	results := make([]Result, len(discs))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i, d := range discs {
		g.Go(func() error {
			res := MatchOne(gctx, client, d.Name, d.Manufacturer)
			results[i] = res
			if cfg.Verbose {
				log.Info(gctx, "matched",
					logger.String("disc", d.Name),
					logger.String("best", res.Best),
					logger.Int("percentage", res.Percentage),
					logger.String("error", res.Err))
			}
			return nil
		})
	}
	_ = g.Wait()
	return results
}

// MatchOne runs a single name match and records its outcome.
func MatchOne(ctx context.Context, client *Client, name, manufacturer string) Result {
	res := Result{Name: name, Manufacturer: manufacturer, Status: 200}
	start := time.Now()
	resp, err := client.Match(ctx, name, manufacturer)
	res.Latency = time.Since(start)
	if err != nil {
		res.Status = 0
		var se *StatusError
		if errors.As(err, &se) {
			res.Status = se.Code
		}
		res.Err = err.Error()
		return res
	}
	res.Response = &resp
	if resp.Best != nil {
		res.Best = resp.Best.Disc.Name
		res.Percentage = resp.Best.Percentage
	}
	return res
}

// checkDeterminism repeats the first successful match and compares answers.
func checkDeterminism(ctx context.Context, client *Client, results []Result) []string {
	for _, r := range results {
		if r.Err != "" {
			continue
		}
		again := MatchOne(ctx, client, r.Name, r.Manufacturer)
		if again.Err != "" {
			return []string{fmt.Sprintf("%s: repeat match failed: %s", r.Name, again.Err)}
		}
		if again.Best != r.Best || again.Percentage != r.Percentage {
			return []string{fmt.Sprintf("%s: repeat match changed from %s (%d%%) to %s (%d%%)",
				r.Name, r.Best, r.Percentage, again.Best, again.Percentage)}
		}
		return nil
	}
	return nil
}

func saveReport(filename string, report *Report) error {
	if dir := filepath.Dir(filename); dir != "." {
		if err := os.MkdirAll(dir, directoryPermission); err != nil {
			return fmt.Errorf("failed to create directory: %w", err)
		}
	}
	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal report: %w", err)
	}
	if err := os.WriteFile(filename, append(data, '\n'), reportPermission); err != nil {
		return fmt.Errorf("write report: %w", err)
	}
	logger.Get().Info(context.Background(), "report saved", logger.String("filename", filename))
	return nil
}

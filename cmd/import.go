package main

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/sells-group/lead-router/internal/fetcher"
	"github.com/sells-group/lead-router/internal/intake"
	"github.com/sells-group/lead-router/internal/model"
	"github.com/sells-group/lead-router/internal/validate"
)

var (
	importFile     string
	importCampaign string
	importSheet    int
	importDryRun   bool
)

var importCmd = &cobra.Command{
	Use:   "import",
	Short: "Import leads from an XLSX/CSV file or FTP source",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		env, err := initRouter(ctx)
		if err != nil {
			return err
		}
		defer env.Close()

		header, rows, err := readSource(ctx, importFile)
		if err != nil {
			return err
		}

		campaign := importCampaign
		if campaign == "" {
			campaign = cfg.Import.Campaign
		}

		summary, err := importLeads(ctx, env, header, rows, campaign, importDryRun, cfg.Import.MaxConcurrent)
		if err != nil {
			return err
		}

		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(summary)
	},
}

func init() {
	importCmd.Flags().StringVar(&importFile, "file", "", "path or ftp:// URL of the lead sheet (required)")
	importCmd.Flags().StringVar(&importCampaign, "campaign", "", "campaign id stamped on imported leads (default from config)")
	importCmd.Flags().IntVar(&importSheet, "sheet", -1, "XLSX sheet index (default from config)")
	importCmd.Flags().BoolVar(&importDryRun, "dry-run", false, "validate and report without persisting")
	_ = importCmd.MarkFlagRequired("file")
	rootCmd.AddCommand(importCmd)
}

// readSource resolves the --file argument into header and data rows.
// ftp:// URLs are downloaded to a temp file first; the extension then
// selects the parser.
func readSource(ctx context.Context, source string) ([]string, [][]string, error) {
	path := source
	if strings.HasPrefix(source, "ftp://") {
		f := fetcher.NewFTPFetcher(fetcher.FTPOptions{
			User:     cfg.Import.FTPUser,
			Password: cfg.Import.FTPPassword,
			Timeout:  time.Duration(cfg.Import.FTPTimeoutSecs) * time.Second,
		})
		tmp := filepath.Join(os.TempDir(), filepath.Base(source))
		n, err := f.DownloadToFile(ctx, source, tmp)
		if err != nil {
			return nil, nil, eris.Wrap(err, "download lead sheet")
		}
		zap.L().Info("lead sheet downloaded",
			zap.String("source", source),
			zap.Int64("bytes", n),
		)
		path = tmp
		defer os.Remove(tmp)
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".xlsx":
		sheet := importSheet
		if sheet < 0 {
			sheet = cfg.Import.SheetIndex
		}
		return fetcher.ReadXLSX(path, fetcher.XLSXOptions{SheetIndex: sheet})
	case ".csv":
		return fetcher.ReadCSV(path)
	default:
		return nil, nil, eris.Errorf("unsupported lead sheet format: %s", filepath.Ext(path))
	}
}

// importSummary is the JSON report printed after an import run.
type importSummary struct {
	Rows       int  `json:"rows"`
	Skipped    int  `json:"skipped"`
	Valid      int  `json:"valid"`
	Invalid    int  `json:"invalid"`
	Warnings   int  `json:"warnings"`
	Duplicates int  `json:"duplicate_clusters"`
	Imported   int  `json:"imported"`
	DryRun     bool `json:"dry_run,omitempty"`

	Errors   []model.ValidationError  `json:"errors,omitempty"`
	Clusters []model.DuplicateCluster `json:"clusters,omitempty"`
}

// importLeads runs the intake pipeline: normalize, validate, detect
// duplicates, enrich, persist. Invalid leads are reported and dropped;
// duplicate clusters are advisory and do not block members.
func importLeads(ctx context.Context, env *routerEnv, header []string, rows [][]string, campaign string, dryRun bool, concurrency int) (*importSummary, error) {
	raw := intake.FromStrings(header, rows)
	leads, skipped := intake.NewNormalizer().Normalize(raw, campaign)

	result := validate.Validate(leads)
	report := validate.FindDuplicatesCached(result.Valid, env.Cache)

	summary := &importSummary{
		Rows:       len(rows),
		Skipped:    skipped,
		Valid:      len(result.Valid),
		Invalid:    len(result.Invalid),
		Warnings:   len(result.Warnings),
		Duplicates: len(report.Clusters),
		DryRun:     dryRun,
		Errors:     result.Errors,
		Clusters:   report.Clusters,
	}

	zap.L().Info("intake complete",
		zap.String("campaign", campaign),
		zap.Int("rows", len(rows)),
		zap.Int("skipped", skipped),
		zap.Int("valid", len(result.Valid)),
		zap.Int("invalid", len(result.Invalid)),
		zap.Int("duplicate_clusters", len(report.Clusters)),
	)

	if dryRun {
		return summary, nil
	}

	if concurrency < 1 {
		concurrency = 1
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(concurrency)

	var mu sync.Mutex
	var enriched []model.Lead

	for _, chunk := range chunkLeads(result.Valid, 100) {
		g.Go(func() error {
			out := env.Enricher.EnrichBatch(chunk, nil)
			if err := env.Store.SaveLeads(gctx, out); err != nil {
				return err
			}
			mu.Lock()
			enriched = append(enriched, out...)
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, eris.Wrap(err, "persist leads")
	}

	env.Engine.AddLeads(enriched...)
	summary.Imported = len(enriched)

	zap.L().Info("import complete",
		zap.String("campaign", campaign),
		zap.Int("imported", len(enriched)),
	)
	return summary, nil
}

// chunkLeads yields fixed-size slices of leads, last one possibly short.
func chunkLeads(leads []model.Lead, size int) [][]model.Lead {
	var chunks [][]model.Lead
	for start := 0; start < len(leads); start += size {
		end := start + size
		if end > len(leads) {
			end = len(leads)
		}
		chunks = append(chunks, leads[start:end])
	}
	return chunks
}

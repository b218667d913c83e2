package usecase

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/itembuilder/backend/internal/domain"
	"github.com/itembuilder/backend/internal/infrastructure/metrics"
	"github.com/oklog/ulid/v2"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// DefaultStorefront is the storefront named in extended descriptions
const DefaultStorefront = "MindGames.ca"

// ProgressFunc is called after each UPC is processed
type ProgressFunc func(done, total int)

// EnrichmentServiceConfig holds configuration for the enrichment service
type EnrichmentServiceConfig struct {
	Storefront string
	Workers    int
}

// EnrichmentService runs the enrichment pipeline: resolve, match, classify, assemble
type EnrichmentService struct {
	resolver   *ProductResolver
	classifier *ClassifierAdapter
	storefront string
	workers    int
	metrics    *metrics.Metrics
	logger     *zap.Logger
}

// NewEnrichmentService creates a new enrichment service with dependencies
func NewEnrichmentService(
	resolver *ProductResolver,
	classifier *ClassifierAdapter,
	config EnrichmentServiceConfig,
	m *metrics.Metrics,
	logger *zap.Logger,
) *EnrichmentService {
	storefront := config.Storefront
	if storefront == "" {
		storefront = DefaultStorefront
	}

	workers := config.Workers
	if workers <= 0 {
		workers = 1 // Sequential
	}

	if logger == nil {
		logger = zap.NewNop()
	}

	return &EnrichmentService{
		resolver:   resolver,
		classifier: classifier,
		storefront: storefront,
		workers:    workers,
		metrics:    m,
		logger:     logger,
	}
}

// rowOutcome records how a single row was produced
type rowOutcome struct {
	source           domain.ItemSource
	uncategorized    bool
	overridden       bool
	classifierFailed bool
}

// Run enriches every UPC in input order.
// Flow per UPC: resolve -> match vendor category -> classifier override -> assemble row.
// Per-UPC failures never abort the run; only missing inputs or a cancelled context do.
func (s *EnrichmentService) Run(
	ctx context.Context,
	input domain.EnrichmentInput,
	progress ProgressFunc,
) (*domain.EnrichmentResult, error) {
	if input.UPCs == nil {
		return nil, fmt.Errorf("%w: UPC list", domain.ErrMissingRequiredInput)
	}
	if input.Mapping == nil {
		return nil, fmt.Errorf("%w: category mapping table", domain.ErrMissingRequiredInput)
	}

	runID := ulid.Make().String()
	logger := s.logger.With(zap.String("run_id", runID))
	started := time.Now()
	total := len(input.UPCs)

	logger.Info("enrichment run started",
		zap.Int("upcs", total),
		zap.Int("mapping_entries", len(input.Mapping)),
		zap.Int("supplier_records", len(input.Supplier)),
		zap.Int("workers", s.workers),
		zap.Bool("classifier", s.classifier.Enabled()),
	)

	matcher := NewCategoryMatcher(input.Mapping)
	rows := make([]domain.OutputRow, total)
	outcomes := make([]rowOutcome, total)

	var (
		mu   sync.Mutex
		done int
	)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.workers)

	for i, upc := range input.UPCs {
		i, upc := i, upc
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}

			rows[i], outcomes[i] = s.enrichOne(gctx, upc, matcher, input.Supplier)
			s.metrics.RowAssembled()

			if progress != nil {
				mu.Lock()
				done++
				progress(done, total)
				mu.Unlock()
			}
			return nil
		})
	}

	err := g.Wait()
	if err == nil {
		err = ctx.Err()
	}
	if err != nil {
		s.metrics.RunFinished("cancelled", time.Since(started))
		logger.Warn("enrichment run cancelled", zap.Error(err))
		return nil, fmt.Errorf("enrichment run cancelled: %w", err)
	}

	stats := summarize(outcomes)
	s.metrics.RunFinished("success", time.Since(started))
	logger.Info("enrichment run complete",
		zap.Int("rows", stats.Rows),
		zap.Int("lookup_hits", stats.LookupHits),
		zap.Int("supplier_fallbacks", stats.SupplierFallbacks),
		zap.Int("unresolved", stats.Unresolved),
		zap.Int("uncategorized", stats.Uncategorized),
		zap.Int("classifier_overrides", stats.ClassifierOverrides),
		zap.Duration("elapsed", time.Since(started)),
	)

	return &domain.EnrichmentResult{
		RunID: runID,
		Rows:  rows,
		Stats: stats,
	}, nil
}

// enrichOne produces the output row for a single UPC
func (s *EnrichmentService) enrichOne(
	ctx context.Context,
	upc string,
	matcher *CategoryMatcher,
	supplier domain.SupplierTable,
) (domain.OutputRow, rowOutcome) {
	item := s.resolver.Resolve(ctx, upc, supplier)
	taxonomy := matcher.Match(item.VendorCategory)

	outcome := rowOutcome{source: item.Source}

	override, err := s.classifier.MaybeOverride(ctx, item.Title)
	switch {
	case err != nil:
		outcome.classifierFailed = true
	case override != "":
		// Only the top-level category is replaced; sub-categories keep the table match
		taxonomy.Category = override
		outcome.overridden = true
	}
	outcome.uncategorized = taxonomy.Category == domain.Uncategorized

	return s.assembleRow(item, taxonomy), outcome
}

// assembleRow composes the output record from a resolved item and its taxonomy
func (s *EnrichmentService) assembleRow(item domain.ResolvedItem, taxonomy domain.Taxonomy) domain.OutputRow {
	return domain.OutputRow{
		UPC:                 item.UPC,
		ItemName:            item.Title,
		Description:         item.Title,
		ExtendedDescription: ExtendedDescription(item.Title, item.Brand, taxonomy, s.storefront),
		Brand:               item.Brand,
		Category:            taxonomy.Category,
		SubCategory1:        taxonomy.SubCat1,
		SubCategory2:        taxonomy.SubCat2,
		SubCategory3:        taxonomy.SubCat3,
		MSRP:                item.MSRP,
		Image1:              item.Images[0],
		Image2:              item.Images[1],
		Image3:              item.Images[2],
	}
}

// ExtendedDescription renders the catalog sentence for an item.
// The collection is Sub-Cat 1 when present, otherwise the top-level category.
func ExtendedDescription(title, brand string, taxonomy domain.Taxonomy, storefront string) string {
	collection := taxonomy.SubCat1
	if collection == "" {
		collection = taxonomy.Category
	}
	return fmt.Sprintf("%s by %s. Part of the %s collection at %s.", title, brand, collection, storefront)
}

func summarize(outcomes []rowOutcome) domain.RunStats {
	stats := domain.RunStats{Rows: len(outcomes)}
	for _, o := range outcomes {
		switch o.source {
		case domain.SourceLookup:
			stats.LookupHits++
		case domain.SourceSupplier:
			stats.SupplierFallbacks++
		default:
			stats.Unresolved++
		}
		if o.uncategorized {
			stats.Uncategorized++
		}
		if o.overridden {
			stats.ClassifierOverrides++
		}
		if o.classifierFailed {
			stats.ClassifierFailures++
		}
	}
	return stats
}

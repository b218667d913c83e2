package usecase

import (
	"bytes"
	"context"
	"hash/fnv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/itembuilder/backend/internal/domain"
	"github.com/itembuilder/backend/internal/infrastructure/table"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

var testMapping = []domain.CategoryMappingEntry{
	{Category: "Toys", SubCat1: "Board", SubCat2: "Strategy", SubCat3: ""},
	{Category: "Puzzles", SubCat1: "Puzzle", SubCat2: "", SubCat3: ""},
	{Category: "Puzzles", SubCat1: "Cubes", SubCat2: "Speed", SubCat3: "3x3"},
}

// newTestClient knows 999 and 888; 111 is only in the supplier table; 404 is unknown everywhere
func newTestClient() *MockBarcodeClient {
	client := NewMockBarcodeClient()
	client.products["999"] = &domain.BarcodeProduct{
		Title:    "Catan",
		Brand:    "Kosmos",
		Category: "Games > Board Games",
		Stores:   []domain.BarcodeStore{{Price: "59.99"}},
		Images:   []string{"catan1.jpg", "catan2.jpg", "catan3.jpg", "catan4.jpg"},
	}
	client.products["888"] = &domain.BarcodeProduct{
		Title:    "Jigsaw Puzzle 1000pc",
		Brand:    "Ravensburger",
		Category: "Toys > Jigsaw Puzzle",
	}
	return client
}

func newTestService(client domain.BarcodeClient, classifier domain.Classifier, workers int) *EnrichmentService {
	logger := zap.NewNop()
	resolver := NewProductResolver(client, nil, ProductResolverConfig{}, nil, logger)
	adapter := NewClassifierAdapter(classifier, nil, logger)
	return NewEnrichmentService(resolver, adapter, EnrichmentServiceConfig{Workers: workers}, nil, logger)
}

func TestEnrichmentService_Run(t *testing.T) {
	service := newTestService(newTestClient(), nil, 1)

	result, err := service.Run(context.Background(), domain.EnrichmentInput{
		UPCs:     []string{"999", "111", "404", "999"},
		Mapping:  testMapping,
		Supplier: testSupplier,
	}, nil)
	require.NoError(t, err)
	require.Len(t, result.Rows, 4)
	assert.NotEmpty(t, result.RunID)

	upcs := make([]string, len(result.Rows))
	for i, row := range result.Rows {
		upcs[i] = row.UPC
	}
	assert.Equal(t, []string{"999", "111", "404", "999"}, upcs)

	assert.Equal(t, domain.OutputRow{
		UPC:                 "999",
		ItemName:            "Catan",
		Description:         "Catan",
		ExtendedDescription: "Catan by Kosmos. Part of the Board collection at MindGames.ca.",
		Brand:               "Kosmos",
		Category:            "Toys",
		SubCategory1:        "Board",
		SubCategory2:        "Strategy",
		MSRP:                "59.99",
		Image1:              "catan1.jpg",
		Image2:              "catan2.jpg",
		Image3:              "catan3.jpg",
	}, result.Rows[0])

	// Supplier fallback; "Puzzles > Cubes" hits the Puzzle row before Cubes
	assert.Equal(t, domain.OutputRow{
		UPC:                 "111",
		ItemName:            "Rubik's Cube 3x3",
		Description:         "Rubik's Cube 3x3",
		ExtendedDescription: "Rubik's Cube 3x3 by Spin Master. Part of the Puzzle collection at MindGames.ca.",
		Brand:               "Spin Master",
		Category:            "Puzzles",
		SubCategory1:        "Puzzle",
		MSRP:                "12.99",
		Image1:              "cube.jpg",
	}, result.Rows[1])

	// Unknown everywhere
	assert.Equal(t, domain.OutputRow{
		UPC:                 "404",
		ExtendedDescription: " by . Part of the Uncategorized collection at MindGames.ca.",
		Category:            domain.Uncategorized,
	}, result.Rows[2])

	assert.Equal(t, result.Rows[0], result.Rows[3])

	assert.Equal(t, domain.RunStats{
		Rows:              4,
		LookupHits:        2,
		SupplierFallbacks: 1,
		Unresolved:        1,
		Uncategorized:     1,
	}, result.Stats)
}

func TestEnrichmentService_FirstMatchWins(t *testing.T) {
	mapping := []domain.CategoryMappingEntry{
		{Category: "Puzzles", SubCat1: "Puzzle"},
		{Category: "Gifts", SubCat1: "puzzle box"},
	}
	client := NewMockBarcodeClient()
	client.products["777"] = &domain.BarcodeProduct{Title: "Secret Box", Category: "Wooden Puzzle Box"}
	service := newTestService(client, nil, 1)

	result, err := service.Run(context.Background(), domain.EnrichmentInput{
		UPCs:    []string{"777"},
		Mapping: mapping,
	}, nil)
	require.NoError(t, err)

	assert.Equal(t, "Puzzles", result.Rows[0].Category)
	assert.Equal(t, "Puzzle", result.Rows[0].SubCategory1)
}

func TestEnrichmentService_MissingRequiredInput(t *testing.T) {
	service := newTestService(newTestClient(), nil, 1)

	tests := []struct {
		name  string
		input domain.EnrichmentInput
	}{
		{name: "no UPC list", input: domain.EnrichmentInput{Mapping: testMapping}},
		{name: "no mapping table", input: domain.EnrichmentInput{UPCs: []string{"999"}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := service.Run(context.Background(), tt.input, nil)
			assert.ErrorIs(t, err, domain.ErrMissingRequiredInput)
			assert.Nil(t, result)
		})
	}
}

func TestEnrichmentService_EmptyInputsAreNotMissing(t *testing.T) {
	service := newTestService(newTestClient(), nil, 1)

	result, err := service.Run(context.Background(), domain.EnrichmentInput{
		UPCs:    []string{},
		Mapping: []domain.CategoryMappingEntry{},
	}, nil)
	require.NoError(t, err)
	assert.Empty(t, result.Rows)

	result, err = service.Run(context.Background(), domain.EnrichmentInput{
		UPCs:    []string{"999"},
		Mapping: []domain.CategoryMappingEntry{},
	}, nil)
	require.NoError(t, err)
	assert.Equal(t, domain.Uncategorized, result.Rows[0].Category)
}

func TestEnrichmentService_ClassifierOverridesTopLevelOnly(t *testing.T) {
	classifier := &MockClassifier{label: "Games"}
	service := newTestService(newTestClient(), classifier, 1)

	result, err := service.Run(context.Background(), domain.EnrichmentInput{
		UPCs:    []string{"999"},
		Mapping: testMapping,
	}, nil)
	require.NoError(t, err)

	row := result.Rows[0]
	assert.Equal(t, "Games", row.Category)
	assert.Equal(t, "Board", row.SubCategory1)
	assert.Equal(t, "Strategy", row.SubCategory2)
	assert.Equal(t, "Catan by Kosmos. Part of the Board collection at MindGames.ca.", row.ExtendedDescription)
	assert.Equal(t, 1, result.Stats.ClassifierOverrides)
}

func TestEnrichmentService_ClassifierOverridesUncategorized(t *testing.T) {
	classifier := &MockClassifier{label: "Games"}
	service := newTestService(newTestClient(), classifier, 1)

	result, err := service.Run(context.Background(), domain.EnrichmentInput{
		UPCs:    []string{"404"},
		Mapping: testMapping,
	}, nil)
	require.NoError(t, err)

	row := result.Rows[0]
	assert.Equal(t, "Games", row.Category)
	assert.Empty(t, row.SubCategory1)
	assert.Equal(t, " by . Part of the Games collection at MindGames.ca.", row.ExtendedDescription)
	assert.Equal(t, 0, result.Stats.Uncategorized)
}

func TestEnrichmentService_ClassifierSeesTruncatedTitle(t *testing.T) {
	client := NewMockBarcodeClient()
	client.products["555"] = &domain.BarcodeProduct{Title: strings.Repeat("x", 90)}
	classifier := &MockClassifier{label: "Games"}
	service := newTestService(client, classifier, 1)

	result, err := service.Run(context.Background(), domain.EnrichmentInput{
		UPCs:    []string{"555"},
		Mapping: testMapping,
	}, nil)
	require.NoError(t, err)

	require.Len(t, classifier.inputs, 1)
	assert.Equal(t, strings.Repeat("x", 60), classifier.inputs[0])
	assert.Equal(t, classifier.inputs[0], result.Rows[0].ItemName)
	assert.Equal(t, classifier.inputs[0], result.Rows[0].Description)
}

func TestEnrichmentService_ClassifierFailureKeepsMatch(t *testing.T) {
	classifier := &MockClassifier{panics: true}
	service := newTestService(newTestClient(), classifier, 1)

	result, err := service.Run(context.Background(), domain.EnrichmentInput{
		UPCs:    []string{"999", "888"},
		Mapping: testMapping,
	}, nil)
	require.NoError(t, err)

	assert.Equal(t, "Toys", result.Rows[0].Category)
	assert.Equal(t, "Puzzles", result.Rows[1].Category)
	assert.Equal(t, 2, result.Stats.ClassifierFailures)
	assert.Equal(t, 0, result.Stats.ClassifierOverrides)
}

func TestEnrichmentService_LookupDisabledUsesSupplierOnly(t *testing.T) {
	service := newTestService(nil, nil, 1)

	result, err := service.Run(context.Background(), domain.EnrichmentInput{
		UPCs:     []string{"111"},
		Mapping:  testMapping,
		Supplier: testSupplier,
	}, nil)
	require.NoError(t, err)

	row := result.Rows[0]
	record := testSupplier["111"]
	assert.Equal(t, record.ItemName, row.ItemName)
	assert.Equal(t, record.Brand, row.Brand)
	assert.Equal(t, record.MSRP, row.MSRP)
	assert.Equal(t, record.Image1, row.Image1)
	assert.Empty(t, row.Image2)
	assert.Empty(t, row.Image3)
}

func TestEnrichmentService_Idempotent(t *testing.T) {
	service := newTestService(newTestClient(), &MockClassifier{label: "Games"}, 1)
	input := domain.EnrichmentInput{
		UPCs:     []string{"999", "888", "111", "404"},
		Mapping:  testMapping,
		Supplier: testSupplier,
	}

	render := func() []byte {
		result, err := service.Run(context.Background(), input, nil)
		require.NoError(t, err)
		var buf bytes.Buffer
		require.NoError(t, table.WriteItems(&buf, result.Rows))
		return buf.Bytes()
	}

	assert.Equal(t, render(), render())
}

func TestEnrichmentService_ParallelPreservesOrder(t *testing.T) {
	var upcs []string
	for i := 0; i < 25; i++ {
		upcs = append(upcs, "999", "888", "111", "404")
	}
	input := domain.EnrichmentInput{UPCs: upcs, Mapping: testMapping, Supplier: testSupplier}

	sequential, err := newTestService(newTestClient(), nil, 1).Run(context.Background(), input, nil)
	require.NoError(t, err)

	client := newTestClient()
	client.delay = func(upc string) time.Duration {
		h := fnv.New32a()
		_, _ = h.Write([]byte(upc))
		return time.Duration(h.Sum32()%5) * time.Millisecond
	}
	parallel, err := newTestService(client, nil, 8).Run(context.Background(), input, nil)
	require.NoError(t, err)

	assert.Equal(t, sequential.Rows, parallel.Rows)
	assert.Equal(t, sequential.Stats, parallel.Stats)
}

func TestEnrichmentService_Progress(t *testing.T) {
	service := newTestService(newTestClient(), nil, 4)

	var (
		mu    sync.Mutex
		calls []int
		total int
	)
	progress := func(done, n int) {
		mu.Lock()
		defer mu.Unlock()
		calls = append(calls, done)
		total = n
	}

	_, err := service.Run(context.Background(), domain.EnrichmentInput{
		UPCs:    []string{"999", "888", "111"},
		Mapping: testMapping,
	}, progress)
	require.NoError(t, err)

	assert.Equal(t, []int{1, 2, 3}, calls)
	assert.Equal(t, 3, total)
}

func TestEnrichmentService_Cancelled(t *testing.T) {
	service := newTestService(newTestClient(), nil, 1)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	result, err := service.Run(ctx, domain.EnrichmentInput{
		UPCs:    []string{"999", "888"},
		Mapping: testMapping,
	}, nil)

	assert.ErrorIs(t, err, context.Canceled)
	assert.Nil(t, result)
}

func TestExtendedDescription(t *testing.T) {
	tests := []struct {
		name     string
		taxonomy domain.Taxonomy
		want     string
	}{
		{
			name:     "sub-category present",
			taxonomy: domain.Taxonomy{Category: "Toys", SubCat1: "Board"},
			want:     "Catan by Kosmos. Part of the Board collection at MindGames.ca.",
		},
		{
			name:     "falls back to category",
			taxonomy: domain.Taxonomy{Category: "Toys"},
			want:     "Catan by Kosmos. Part of the Toys collection at MindGames.ca.",
		},
		{
			name:     "uncategorized",
			taxonomy: domain.UncategorizedTaxonomy(),
			want:     "Catan by Kosmos. Part of the Uncategorized collection at MindGames.ca.",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ExtendedDescription("Catan", "Kosmos", tt.taxonomy, DefaultStorefront))
		})
	}
}

func TestNewEnrichmentService_Defaults(t *testing.T) {
	service := NewEnrichmentService(nil, nil, EnrichmentServiceConfig{}, nil, nil)

	assert.Equal(t, DefaultStorefront, service.storefront)
	assert.Equal(t, 1, service.workers)
}

package usecase

import (
	"context"
	"errors"
	"testing"

	"github.com/marketlens/backend/internal/domain"
	"github.com/marketlens/backend/internal/infrastructure/htmlnode"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestExtractionService() *ExtractionService {
	return NewExtractionService(htmlnode.Parser{}, ExtractionServiceConfig{}, nil)
}

func TestNewExtractionService(t *testing.T) {
	t.Run("defaults to the primary layout", func(t *testing.T) {
		svc := newTestExtractionService()
		assert.Equal(t, domain.LayoutPrimary, svc.defaultLayout)

		assembler, err := svc.Assembler("")
		require.NoError(t, err)
		assert.Equal(t, domain.LayoutPrimary, assembler.Layout().Name)
	})

	t.Run("honours a configured default layout", func(t *testing.T) {
		svc := NewExtractionService(htmlnode.Parser{}, ExtractionServiceConfig{DefaultLayout: "Secondary"}, nil)

		assembler, err := svc.Assembler("")
		require.NoError(t, err)
		assert.Equal(t, domain.LayoutSecondary, assembler.Layout().Name)
	})

	t.Run("passes classifier tunables through", func(t *testing.T) {
		svc := NewExtractionService(htmlnode.Parser{}, ExtractionServiceConfig{ApproximateUplift: 1.5, MaxSalesUnits: 100}, nil)

		signal, _ := svc.ExplainSales("Mais de 40 vendidos")
		require.NotNil(t, signal)
		assert.Equal(t, 60, signal.Units)

		signal, trace := svc.ExplainSales("Mais de 1 mil vendidos")
		assert.Nil(t, signal)
		assert.Equal(t, "out_of_range", trace.Rejected)
	})
}

func TestExtractionService_Assembler(t *testing.T) {
	svc := newTestExtractionService()

	tests := []struct {
		layout  string
		want    domain.Layout
		wantErr bool
	}{
		{layout: "primary", want: domain.LayoutPrimary},
		{layout: " SECONDARY ", want: domain.LayoutSecondary},
		{layout: "", want: domain.LayoutPrimary},
		{layout: "tertiary", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.layout, func(t *testing.T) {
			assembler, err := svc.Assembler(tt.layout)
			if tt.wantErr {
				assert.ErrorIs(t, err, domain.ErrUnknownLayout)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, assembler.Layout().Name)
		})
	}
}

func TestExtractionService_ExtractDetail(t *testing.T) {
	ctx := context.Background()
	svc := newTestExtractionService()

	t.Run("assembles a detail page", func(t *testing.T) {
		record, err := svc.ExtractDetail(ctx, ExtractionRequest{
			Layout: "secondary",
			URL:    secondaryDetailURL,
			Body:   []byte(secondaryDetailHTML),
		})

		require.NoError(t, err)
		require.NotNil(t, record.ID)
		assert.Equal(t, "MLB1234567890", *record.ID)
		assert.Nil(t, record.Position)
	})

	t.Run("rejects an empty body", func(t *testing.T) {
		_, err := svc.ExtractDetail(ctx, ExtractionRequest{Layout: "primary", Body: []byte("  \n ")})
		assert.ErrorIs(t, err, domain.ErrEmptyDocument)
	})

	t.Run("rejects an unknown layout", func(t *testing.T) {
		_, err := svc.ExtractDetail(ctx, ExtractionRequest{Layout: "auction", Body: []byte(primaryDetailHTML)})
		assert.ErrorIs(t, err, domain.ErrUnknownLayout)
	})

	t.Run("rejects an unparseable page url", func(t *testing.T) {
		_, err := svc.ExtractDetail(ctx, ExtractionRequest{URL: "http://[::1", Body: []byte(primaryDetailHTML)})
		assert.ErrorIs(t, err, domain.ErrInvalidRequest)
	})

	t.Run("stops on a cancelled context", func(t *testing.T) {
		cancelled, cancel := context.WithCancel(ctx)
		cancel()

		_, err := svc.ExtractDetail(cancelled, ExtractionRequest{Body: []byte(primaryDetailHTML)})
		assert.True(t, errors.Is(err, context.Canceled))
	})
}

func TestExtractionService_ExtractListing(t *testing.T) {
	ctx := context.Background()
	svc := newTestExtractionService()

	t.Run("numbers rows in document order", func(t *testing.T) {
		records, err := svc.ExtractListing(ctx, ExtractionRequest{
			Layout: "primary",
			URL:    primaryListingURL,
			Body:   []byte(primaryListingHTML),
		})

		require.NoError(t, err)
		require.Len(t, records, 3)
		for i, record := range records {
			require.NotNil(t, record.Position)
			assert.Equal(t, i+1, *record.Position)
			assert.Equal(t, domain.LayoutPrimary, record.Marketplace)
		}
		assert.Equal(t, "B0ORGANIC1", *records[0].ID)
		assert.Equal(t, "B0SPONSOR1", *records[1].ID)
		assert.True(t, records[1].Sponsored)
	})

	t.Run("secondary rows", func(t *testing.T) {
		records, err := svc.ExtractListing(ctx, ExtractionRequest{
			Layout: "secondary",
			URL:    secondaryListingURL,
			Body:   []byte(secondaryListingHTML),
		})

		require.NoError(t, err)
		require.Len(t, records, 2)
		assert.False(t, records[0].Sponsored)
		assert.True(t, records[1].Sponsored)
	})

	t.Run("page without rows", func(t *testing.T) {
		records, err := svc.ExtractListing(ctx, ExtractionRequest{Body: []byte(primaryDetailHTML)})

		require.NoError(t, err)
		assert.Empty(t, records)
	})
}

package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/marketlens/backend/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func run(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	cmd := newRootCmd(&out)
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestSalesCommand(t *testing.T) {
	out, err := run(t, "", "sales", "2.5K+ bought in past month")
	require.NoError(t, err)

	var response struct {
		Signal *domain.SalesSignal `json:"signal"`
		Trace  map[string]any      `json:"trace"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &response))
	require.NotNil(t, response.Signal)
	assert.Equal(t, 2750, response.Signal.Units)
	assert.True(t, response.Signal.Approximate)
	assert.Equal(t, "multiplier_plus", response.Trace["extraction"])
}

func TestSalesCommand_RequiresText(t *testing.T) {
	_, err := run(t, "", "sales")
	assert.Error(t, err)
}

func TestDetailCommand_Stdin(t *testing.T) {
	page := `<html><body>
		<div class="ui-pdp-container">
			<h1 class="ui-pdp-title">Tênis Veloz</h1>
			<span class="ui-pdp-subtitle">Novo | 37 vendidos</span>
		</div>
	</body></html>`

	out, err := run(t, page, "detail", "--layout", "secondary", "--url", "https://produto.mercadolivre.com.br/MLB-1234567-tenis-_JM")
	require.NoError(t, err)

	var record domain.ProductRecord
	require.NoError(t, json.Unmarshal([]byte(out), &record))
	assert.Equal(t, domain.LayoutSecondary, record.Marketplace)
	require.NotNil(t, record.Title)
	assert.Equal(t, "Tênis Veloz", *record.Title)
	require.NotNil(t, record.Sales)
	assert.Equal(t, 37, record.Sales.Units)
	assert.False(t, record.Sales.Approximate)
}

func TestListingCommand_File(t *testing.T) {
	page := `<html><body>
		<div data-component-type="s-search-result" data-asin="B0FILE0001"><h2><span>Um</span></h2></div>
		<div data-component-type="s-search-result" data-asin="B0FILE0002"><h2><span>Dois</span></h2></div>
	</body></html>`
	path := filepath.Join(t.TempDir(), "results.html")
	require.NoError(t, os.WriteFile(path, []byte(page), 0o600))

	out, err := run(t, "", "listing", "--file", path, "--layout", "primary")
	require.NoError(t, err)

	var response struct {
		Items []domain.ProductRecord `json:"items"`
		Count int                    `json:"count"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &response))
	assert.Equal(t, 2, response.Count)
	assert.Equal(t, "B0FILE0002", *response.Items[1].ID)
}

func TestDetailCommand_Errors(t *testing.T) {
	_, err := run(t, "", "detail")
	assert.ErrorIs(t, err, domain.ErrEmptyDocument)

	_, err = run(t, "<p>x</p>", "detail", "--layout", "auction")
	assert.ErrorIs(t, err, domain.ErrUnknownLayout)

	_, err = run(t, "", "detail", "--file", filepath.Join(t.TempDir(), "missing.html"))
	assert.Error(t, err)
}

func TestFetchCommand_RequiresURL(t *testing.T) {
	_, err := run(t, "", "fetch")
	assert.EqualError(t, err, "--url is required")
}

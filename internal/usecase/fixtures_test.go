package usecase

import (
	"strings"
	"testing"

	"github.com/marketlens/backend/internal/domain"
	"github.com/marketlens/backend/internal/infrastructure/htmlnode"
	"github.com/stretchr/testify/require"
)

const primaryDetailURL = "https://www.amazon.com.br/Fone-Bluetooth/dp/B0TEST0001"

const primaryDetailHTML = `<!DOCTYPE html>
<html>
<head>
  <title>Fone de Ouvido Bluetooth Acme X1</title>
  <link rel="canonical" href="https://www.amazon.com.br/Fone-Bluetooth/dp/B0TEST0001">
</head>
<body>
  <div id="wayfinding-breadcrumbs_feature_div">
    <ul>
      <li><a href="/eletronicos">Eletrônicos</a></li>
      <li><a href="/fones">Fones de Ouvido</a></li>
    </ul>
  </div>
  <span id="productTitle">  Fone de Ouvido Bluetooth Acme X1  </span>
  <a id="bylineInfo" href="/stores/Acme/page/1">Visite a loja Acme</a>
  <span id="acrPopover" title="4,5 de 5 estrelas"></span>
  <span id="acrCustomerReviewText">1.234 avaliações de clientes</span>
  <span id="social-proofing-faceout-title-tk_bought">Mais de 4 mil compras no mês passado</span>
  <div id="corePrice_feature_div">
    <span class="a-price"><span class="a-offscreen">R$ 1.299,90</span></span>
  </div>
  <div id="merchant-info">
    Vendido por <a id="sellerProfileTriggerId" href="/gp/help/seller/at-a-glance.html?seller=A1B2C3">Acme Oficial</a>
  </div>
  <table id="productDetails_detailBullets_sections1">
    <tr><th>ASIN</th><td>B0TEST0001</td></tr>
    <tr>
      <th>Ranking dos mais vendidos</th>
      <td>Nº 1.234 em Eletrônicos (Conheça o Top 100 na categoria Eletrônicos)
        <br>Nº 5 em Fones de Ouvido Intra-auriculares
        <br>Nº 9 em Acessórios</td>
    </tr>
  </table>
</body>
</html>`

const primaryListingURL = "https://www.amazon.com.br/s?k=fone"

const primaryListingHTML = `<html><body>
<div class="s-main-slot">
  <div data-component-type="s-search-result" data-asin="B0ORGANIC1" class="s-result-item">
    <h2><a href="/Fone-Organico/dp/B0ORGANIC1/ref=sr_1_1?keywords=fone"><span>Fone Orgânico</span></a></h2>
    <span class="a-price"><span class="a-offscreen">R$ 99,90</span></span>
    <div class="a-row a-size-base"><span class="a-color-secondary">2 mil+ compras no mês passado</span></div>
  </div>
  <div data-component-type="s-search-result" data-asin="B0SPONSOR1" class="s-result-item AdHolder">
    <span class="puis-sponsored-label-text">Patrocinado</span>
    <h2><a href="/Fone-Patrocinado/dp/B0SPONSOR1"><span>Fone Patrocinado</span></a></h2>
    <span class="a-price"><span class="a-price-whole">149<span class="a-price-decimal">,</span></span><span class="a-price-fraction">50</span></span>
  </div>
  <div data-component-type="s-search-result" data-asin="B0CONFLICT" class="s-result-item">
    <span class="puis-sponsored-label-text">Patrocinado</span>
    <h2><a href="/Fone-Conflito/dp/B0CONFLICT"><span>Fone Conflito</span></a></h2>
  </div>
</div>
</body></html>`

const secondaryDetailURL = "https://produto.mercadolivre.com.br/MLB-1234567890-tenis-corrida-_JM"

const secondaryDetailHTML = `<html>
<head>
  <link rel="canonical" href="https://produto.mercadolivre.com.br/MLB-1234567890-tenis-corrida-_JM">
</head>
<body>
<div class="ui-pdp-container">
  <ol class="andes-breadcrumb">
    <li class="andes-breadcrumb__item"><a href="/calcados">Calçados, Roupas e Bolsas</a></li>
    <li class="andes-breadcrumb__item"><a href="/tenis">Tênis</a></li>
  </ol>
  <span class="ui-pdp-subtitle">Novo | +10mil vendidos</span>
  <h1 class="ui-pdp-title">Tênis de Corrida Veloz</h1>
  <div class="ui-pdp-promotions-pill-label">MAIS VENDIDO 3º em Tênis Esportivos</div>
  <span class="ui-pdp-review__rating">4.8</span>
  <span class="ui-pdp-review__amount">(2.345)</span>
  <div class="ui-pdp-price__second-line">
    <span class="andes-money-amount">
      <span class="andes-money-amount__fraction">299</span>
      <span class="andes-money-amount__cents">90</span>
    </span>
  </div>
  <div class="ui-pdp-seller">
    <a class="ui-pdp-seller__link-trigger" href="https://www.mercadolivre.com.br/pagina/velozoficial">Vendido por VELOZ OFICIAL</a>
  </div>
  <table class="andes-table">
    <tr><th>Marca</th><td>Veloz</td></tr>
    <tr><th>Modelo</th><td>Run 3</td></tr>
  </table>
</div>
</body>
</html>`

const secondaryListingURL = "https://lista.mercadolivre.com.br/tenis"

const secondaryListingHTML = `<html><body>
<ol class="ui-search-layout">
  <li class="ui-search-layout__item">
    <div class="poly-card">
      <span class="poly-component__brand">Veloz</span>
      <a class="poly-component__title" href="https://produto.mercadolivre.com.br/MLB-111111111-tenis-a-_JM#position=1">Tênis A</a>
      <span class="poly-component__seller">Por Loja A</span>
      <div class="poly-price__current">
        <span class="andes-money-amount">
          <span class="andes-money-amount__fraction">1.299</span>
          <span class="andes-money-amount__cents">90</span>
        </span>
      </div>
      <span class="poly-reviews__rating">4.7</span>
      <span class="poly-reviews__total">(321)</span>
    </div>
  </li>
  <li class="ui-search-layout__item">
    <div class="poly-card">
      <span class="poly-component__ads-promotions">Patrocinado</span>
      <a class="poly-component__title" href="/MLB-222222222-tenis-b-_JM">Tênis B</a>
      <span class="poly-component__sales">+500 vendidos</span>
    </div>
  </li>
</ol>
</body></html>`

func mustParse(t *testing.T, html, pageURL string) domain.ContentNode {
	t.Helper()
	node, err := htmlnode.NewDocument([]byte(html), pageURL)
	require.NoError(t, err)
	return node
}

// fakeNode is a hand-built ContentNode for cascade tests
type fakeNode struct {
	text     string
	attrs    map[string]string
	children map[string][]domain.ContentNode
	self     map[string]bool
}

func (n *fakeNode) Text() string { return n.text }

func (n *fakeNode) Find(pattern string) []domain.ContentNode { return n.children[pattern] }

func (n *fakeNode) Matches(pattern string) bool { return n.self[pattern] }

func (n *fakeNode) Attr(name string) (string, bool) {
	value, ok := n.attrs[name]
	return value, ok
}

func (n *fakeNode) ResolveLink(href string) string { return href }

// panickingNode wraps a node and panics on any lookup whose pattern contains trigger
type panickingNode struct {
	domain.ContentNode
	trigger string
}

func (n panickingNode) Find(pattern string) []domain.ContentNode {
	if strings.Contains(pattern, n.trigger) {
		panic("malformed node: " + pattern)
	}
	return n.ContentNode.Find(pattern)
}

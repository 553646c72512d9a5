package formatter

import (
	"strings"
	"testing"

	"nft-relay/internal/relay/model"

	"github.com/shopspring/decimal"
)

func sampleSale() *model.SaleRecord {
	return &model.SaleRecord{
		Signature:   "5KtPn1xyzabcdefghijklmnopqrstuvw",
		PriceSOL:    decimal.NewFromFloat(1.25),
		Marketplace: "Magic Eden",
		Name:        "Wegen #42",
		Image:       "https://img.example/42.png",
		Attributes: []model.Attribute{
			{TraitType: "Background", Value: "Silver"},
			{TraitType: "Body", Value: "Gold"},
		},
		Buyer:  "BuyerAddr1111111111111111111111111111111111",
		Seller: "SellerAddr111111111111111111111111111111111",
	}
}

func TestRichSaleEmbed(t *testing.T) {
	n := RichSale(sampleSale())

	if n.Signature != "5KtPn1xyzabcdefghijklmnopqrstuvw" {
		t.Errorf("signature not carried: %q", n.Signature)
	}
	if len(n.Embeds) != 1 {
		t.Fatalf("expected 1 embed, got %d", len(n.Embeds))
	}
	e := n.Embeds[0]

	if e.Title != "Wegen #42 Sold!" {
		t.Errorf("title = %q", e.Title)
	}
	if e.Description != "Price: 1.25 SOL" {
		t.Errorf("description = %q", e.Description)
	}
	if !strings.HasPrefix(e.URL, "https://solscan.io/tx/") {
		t.Errorf("url = %q", e.URL)
	}
	if e.Thumbnail == nil || e.Thumbnail.URL != "https://img.example/42.png" {
		t.Errorf("thumbnail = %+v", e.Thumbnail)
	}
	if e.Footer == nil || e.Footer.Text != "Transaction: 5KtPn1xy..." {
		t.Errorf("footer = %+v", e.Footer)
	}

	// 基础三个字段 + 两个特征字段
	if len(e.Fields) != 5 {
		t.Fatalf("expected 5 fields, got %d: %+v", len(e.Fields), e.Fields)
	}
	if e.Fields[1].Name != "Buyer" || e.Fields[1].Value != "`BuyerAdd...`" {
		t.Errorf("buyer field = %+v", e.Fields[1])
	}
	if e.Fields[2].Name != "Seller" || e.Fields[2].Value != "`SellerAd...`" {
		t.Errorf("seller field = %+v", e.Fields[2])
	}
	if e.Fields[3].Name != "Background" || e.Fields[3].Value != "Silver" {
		t.Errorf("trait field = %+v", e.Fields[3])
	}
}

func TestRichSaleSkipsEmptyTraits(t *testing.T) {
	sale := sampleSale()
	sale.Attributes = append(sale.Attributes, model.Attribute{TraitType: "Empty", Value: ""})

	n := RichSale(sale)
	for _, f := range n.Embeds[0].Fields {
		if f.Name == "Empty" {
			t.Fatal("empty trait value must not become a field")
		}
	}
}

func TestSimpleSaleLine(t *testing.T) {
	n := SimpleSale(sampleSale())

	want := "NFT Sale: Wegen #42 sold for 1.25 SOL on Magic Eden!"
	if n.Content != want {
		t.Errorf("content = %q, want %q", n.Content, want)
	}
	if len(n.Embeds) != 0 {
		t.Errorf("simple sale must not carry embeds")
	}
}

func TestTestConfirmation(t *testing.T) {
	n := TestConfirmation()
	if len(n.Embeds) != 1 || n.Embeds[0].Title != "Test Webhook Received" {
		t.Errorf("unexpected confirmation: %+v", n)
	}
}

package formatter

import (
	"fmt"
	"time"

	"nft-relay/internal/relay/model"
)

// embed 颜色
const (
	colorGreen  = 0x00ff00
	colorPurple = 0x9945ff // Solana 紫
)

const signaturePreviewLen = 8

// RichSale 命中目标特征的销售 → 富文本 embed
func RichSale(sale *model.SaleRecord) model.Notification {
	embed := model.Embed{
		Title:       fmt.Sprintf("%s Sold!", sale.Name),
		Description: fmt.Sprintf("Price: %s SOL", sale.PriceSOL.StringFixed(2)),
		URL:         fmt.Sprintf("https://solscan.io/tx/%s", sale.Signature),
		Color:       colorPurple,
		Fields: []model.EmbedField{
			{Name: "Marketplace", Value: sale.Marketplace, Inline: true},
			{Name: "Buyer", Value: truncateAddress(sale.Buyer), Inline: true},
			{Name: "Seller", Value: truncateAddress(sale.Seller), Inline: true},
		},
		Footer:    &model.EmbedFooter{Text: fmt.Sprintf("Transaction: %s...", truncate(sale.Signature, signaturePreviewLen))},
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	}

	for _, attr := range sale.Attributes {
		if attr.TraitType == "" || attr.Value == "" {
			continue
		}
		embed.Fields = append(embed.Fields, model.EmbedField{
			Name:   attr.TraitType,
			Value:  attr.Value,
			Inline: true,
		})
	}

	if sale.Image != "" {
		embed.Thumbnail = &model.EmbedImage{URL: sale.Image}
	}

	return model.Notification{
		Signature: sale.Signature,
		Embeds:    []model.Embed{embed},
	}
}

// SimpleSale 其他销售 → 单行文本
func SimpleSale(sale *model.SaleRecord) model.Notification {
	return model.Notification{
		Signature: sale.Signature,
		Content: fmt.Sprintf("NFT Sale: %s sold for %s SOL on %s!",
			sale.Name, sale.PriceSOL.StringFixed(2), sale.Marketplace),
	}
}

// TestConfirmation 测试 webhook 的确认消息
func TestConfirmation() model.Notification {
	return model.Notification{
		Signature: "test-webhook",
		Embeds: []model.Embed{{
			Title:       "Test Webhook Received",
			Description: "Your webhook is configured correctly and ready to receive data.",
			Color:       colorGreen,
			Timestamp:   time.Now().UTC().Format(time.RFC3339),
		}},
	}
}

// truncateAddress 地址截断为前 8 位加省略号，便于在 Discord 中展示
func truncateAddress(addr string) string {
	if addr == "" {
		return "Unknown"
	}
	return fmt.Sprintf("`%s...`", truncate(addr, 8))
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}

package classifier

import (
	"nft-relay/internal/relay/model"

	"github.com/shopspring/decimal"
)

// 金额在不同 payload 形态下字段位置不同，按优先级逐个尝试：
// 销售事件金额 → 交易级金额 → 内层事件金额 → 0
var amountExtractors = []func(tx *model.Transaction) (int64, bool){
	func(tx *model.Transaction) (int64, bool) {
		if ev := tx.Events.NFT; ev != nil && ev.Amount > 0 {
			return ev.Amount, true
		}
		return 0, false
	},
	func(tx *model.Transaction) (int64, bool) {
		if tx.Amount > 0 {
			return tx.Amount, true
		}
		return 0, false
	},
	func(tx *model.Transaction) (int64, bool) {
		if ev := tx.Events.NFT; ev != nil && ev.Inner != nil && ev.Inner.Amount > 0 {
			return ev.Inner.Amount, true
		}
		return 0, false
	},
}

func extractLamports(tx *model.Transaction) int64 {
	for _, extract := range amountExtractors {
		if v, ok := extract(tx); ok {
			return v
		}
	}
	return 0
}

var lamportsPerSOL = decimal.New(1, 9)

// PriceSOL lamports 转 SOL 并取 2 位小数。
// 价格比较与展示统一使用该取整值，避免边界成交显示 0.01 却被全精度判为低于阈值。
func PriceSOL(lamports int64) decimal.Decimal {
	return decimal.NewFromInt(lamports).DivRound(lamportsPerSOL, 2)
}

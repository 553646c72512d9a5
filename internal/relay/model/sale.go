package model

import "github.com/shopspring/decimal"

// SaleRecord 分类通过后的销售快照，生成后不再修改
type SaleRecord struct {
	Signature   string          `json:"signature"`
	PriceSOL    decimal.Decimal `json:"price_sol"` // 已按 2 位小数取整
	Marketplace string          `json:"marketplace"`
	Name        string          `json:"name"`
	Image       string          `json:"image,omitempty"`
	Attributes  []Attribute     `json:"attributes,omitempty"`
	Buyer       string          `json:"buyer"`
	Seller      string          `json:"seller"`
}

// OutcomeKind 分类结果类型
type OutcomeKind string

const (
	OutcomeMatched   OutcomeKind = "matched"
	OutcomeOtherSale OutcomeKind = "other_sale"
	OutcomeSkipped   OutcomeKind = "skipped"
	OutcomeErrored   OutcomeKind = "errored"
)

// Outcome 每条输入交易恰好产出一条 Outcome
type Outcome struct {
	Kind      OutcomeKind `json:"kind"`
	Signature string      `json:"signature"`
	Reason    string      `json:"reason,omitempty"` // skip 原因或错误信息
	Sale      *SaleRecord `json:"sale,omitempty"`   // matched / other_sale 时非空
}

// Criteria 销售过滤条件
type Criteria struct {
	CollectionID string            // 目标 merkle tree，为空则不做集合过滤
	TraitFilters []Attribute       // trait_type + value 精确匹配
	MinSOL       decimal.Decimal   // 最低成交价（SOL）
	Marketplaces map[string]string // source → 市场名
}

// MarketplaceName 查市场注册表，查不到返回 Unknown
func (c Criteria) MarketplaceName(source string) string {
	if name, ok := c.Marketplaces[source]; ok {
		return name
	}
	return "Unknown"
}

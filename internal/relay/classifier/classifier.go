package classifier

import (
	"fmt"

	"nft-relay/internal/relay/model"
)

// 跳过原因
const (
	ReasonNoSaleEvent        = "no sale event"
	ReasonNoNFTData          = "no nft data"
	ReasonCollectionMismatch = "collection mismatch"
	ReasonBelowMinPrice      = "below minimum price"
)

// PlaceholderName 元数据缺名时的占位名
const PlaceholderName = "Unknown NFT"

// Classify 对一批交易逐条分类，输出与输入等长且保持顺序。
// 单条交易解析失败只产出 errored，不中断整批。
func Classify(txs []model.Transaction, c model.Criteria) []model.Outcome {
	outcomes := make([]model.Outcome, 0, len(txs))
	for i := range txs {
		outcomes = append(outcomes, classifyOne(&txs[i], c))
	}
	return outcomes
}

func classifyOne(tx *model.Transaction, c model.Criteria) (out model.Outcome) {
	defer func() {
		if r := recover(); r != nil {
			out = model.Outcome{
				Kind:      model.OutcomeErrored,
				Signature: tx.Signature,
				Reason:    fmt.Sprintf("classify panic: %v", r),
			}
		}
	}()

	nftEvent := tx.Events.NFT
	if nftEvent == nil {
		return skipped(tx, ReasonNoSaleEvent)
	}
	if len(nftEvent.NFTs) == 0 {
		return skipped(tx, ReasonNoNFTData)
	}

	// 集合过滤：任一 NFT 引用命中目标 merkle tree 即通过
	ref := &nftEvent.NFTs[0]
	if c.CollectionID != "" {
		matched := false
		for i := range nftEvent.NFTs {
			if nftEvent.NFTs[i].MerkleTree == c.CollectionID {
				ref = &nftEvent.NFTs[i]
				matched = true
				break
			}
		}
		if !matched {
			return skipped(tx, ReasonCollectionMismatch)
		}
	}

	price := PriceSOL(extractLamports(tx))
	if price.LessThan(c.MinSOL) {
		return skipped(tx, ReasonBelowMinPrice)
	}

	sale := buildSaleRecord(tx, nftEvent, ref, c)

	if hasTargetTrait(nftEvent.NFTs, c.TraitFilters) {
		return model.Outcome{Kind: model.OutcomeMatched, Signature: tx.Signature, Sale: sale}
	}
	return model.Outcome{Kind: model.OutcomeOtherSale, Signature: tx.Signature, Sale: sale}
}

// hasTargetTrait 任一 NFT 的特征与任一过滤项在 (trait_type, value) 上精确相等。
// 区分大小写，不做归一化。
func hasTargetTrait(refs []model.NFTRef, filters []model.Attribute) bool {
	if len(filters) == 0 {
		return false
	}
	for i := range refs {
		if refs[i].Metadata == nil {
			continue
		}
		for _, attr := range refs[i].Metadata.Attributes {
			for _, f := range filters {
				if attr.TraitType == f.TraitType && attr.Value == f.Value {
					return true
				}
			}
		}
	}
	return false
}

func buildSaleRecord(tx *model.Transaction, ev *model.NFTEvent, ref *model.NFTRef, c model.Criteria) *model.SaleRecord {
	name := ref.Name
	image := ref.ImageURL
	var attrs []model.Attribute
	if ref.Metadata != nil {
		if ref.Metadata.Name != "" {
			name = ref.Metadata.Name
		}
		if ref.Metadata.Image != "" {
			image = ref.Metadata.Image
		}
		attrs = ref.Metadata.Attributes
	}
	if name == "" {
		name = PlaceholderName
	}

	return &model.SaleRecord{
		Signature:   tx.Signature,
		PriceSOL:    PriceSOL(extractLamports(tx)),
		Marketplace: c.MarketplaceName(ev.Source),
		Name:        name,
		Image:       image,
		Attributes:  attrs,
		Buyer:       ev.Buyer,
		Seller:      ev.Seller,
	}
}

func skipped(tx *model.Transaction, reason string) model.Outcome {
	return model.Outcome{Kind: model.OutcomeSkipped, Signature: tx.Signature, Reason: reason}
}

package model

// Transaction Helius enhanced webhook 的一笔交易
type Transaction struct {
	Type        string `json:"type"`
	Signature   string `json:"signature"`
	Description string `json:"description"`
	Source      string `json:"source"`
	WebhookID   string `json:"webhookId,omitempty"`
	Amount      int64  `json:"amount,omitempty"` // 交易级金额，部分 payload 形态只在这里带价
	Events      Events `json:"events"`
}

type Events struct {
	NFT *NFTEvent `json:"nft,omitempty"`
}

// NFTEvent 嵌套的 NFT 销售事件
type NFTEvent struct {
	Type   string      `json:"type"`
	Amount int64       `json:"amount"` // lamports
	Buyer  string      `json:"buyer"`
	Seller string      `json:"seller"`
	Source string      `json:"source"`
	NFTs   []NFTRef    `json:"nfts"`
	Inner  *InnerEvent `json:"event,omitempty"` // 旧格式把金额再包了一层
}

// InnerEvent 旧版 payload 的内层事件
type InnerEvent struct {
	Amount int64 `json:"amount"`
}

// NFTRef 被交易的 cNFT 引用
type NFTRef struct {
	Name       string    `json:"name,omitempty"`
	MerkleTree string    `json:"merkleTree"`
	ImageURL   string    `json:"imageUrl,omitempty"`
	Metadata   *Metadata `json:"metadata,omitempty"`
}

type Metadata struct {
	Name       string      `json:"name"`
	Image      string      `json:"image"`
	Attributes []Attribute `json:"attributes"`
}

// Attribute 一条 NFT 特征
type Attribute struct {
	TraitType string `json:"trait_type"`
	Value     string `json:"value"`
}

// 交易事件类型
const (
	TxTypeSale = "NFT_SALE"
	TxTypeTest = "TEST"
)

// TestSource Helius 控制台测试 webhook 的 source 标记
const TestSource = "HELIUS_DASHBOARD_TEST"

// TestDescription 测试 webhook 的 description 标记
const TestDescription = "Test Webhook"

// IsTestMarker 判断单条交易是否为 Helius 测试事件
func (t *Transaction) IsTestMarker() bool {
	return t.Type == TxTypeTest || t.Description == TestDescription || t.Source == TestSource
}

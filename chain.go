package cardano

import (
	"context"
	"fmt"
	"sort"
)

// UnspentOutput is an unspent transaction output owned by the source address.
type UnspentOutput struct {
	TxHash      HexString `json:"txHash"`
	OutputIndex uint32    `json:"outputIndex"`
	Value       Balance   `json:"value"`
}

type UtxoRef struct {
	TxHash      HexString
	OutputIndex uint32
}

func (u UnspentOutput) Ref() UtxoRef {
	return UtxoRef{TxHash: u.TxHash.Lower(), OutputIndex: u.OutputIndex}
}

func (u UnspentOutput) String() string {
	return fmt.Sprintf("%s#%d", u.TxHash, u.OutputIndex)
}

// SortUtxos orders outputs by transaction hash then index, the order the
// ledger sorts inputs in.
func SortUtxos(utxos []UnspentOutput) []UnspentOutput {
	sorted := make([]UnspentOutput, len(utxos))
	copy(sorted, utxos)
	sort.Slice(sorted, func(i, j int) bool {
		a, b := sorted[i].Ref(), sorted[j].Ref()
		if a.TxHash != b.TxHash {
			return a.TxHash < b.TxHash
		}
		return a.OutputIndex < b.OutputIndex
	})
	return sorted
}

type PendingOutput struct {
	Address string  `json:"address"`
	Value   Balance `json:"value"`
}

type ChainTip struct {
	Epoch        uint64 `json:"epoch"`
	AbsoluteSlot uint64 `json:"absoluteSlot"`
}

type ProtocolParameters struct {
	MinFeeA          uint64 `json:"minFeeA"`
	MinFeeB          uint64 `json:"minFeeB"`
	CoinsPerUtxoWord uint64 `json:"coinsPerUtxoWord"`
	MaxTxSize        uint64 `json:"maxTxSize"`
}

// ChainQuery is the read and submit side of a chain backend.
type ChainQuery interface {
	GetChainTip(ctx context.Context) (ChainTip, error)
	GetProtocolParameters(ctx context.Context, epoch uint64) (ProtocolParameters, error)
	GetUtxos(ctx context.Context, address string) ([]UnspentOutput, error)
	Submit(ctx context.Context, tx []byte) (HexString, error)
}

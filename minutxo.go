package cardano

const (
	DefaultLovelacePerWord uint64 = 34482

	minUtxoPrefixWords     = 6
	minUtxoFixedEntryWords = 27
	minUtxoCoinSizeWords   = 2
	minUtxoPerTokenCost    = 12
	minUtxoRoundUpAdd      = 7
	minUtxoBytesPerWord    = 8
	minUtxoDataHashWords   = 10
)

// MinUtxoParams tunes the minimum-UTXO formula. The zero value is replaced by
// the mainnet defaults.
type MinUtxoParams struct {
	LovelacePerWord uint64 `json:"lovelacePerWord"`
	PolicyIdSize    uint64 `json:"policyIdSize"`
	HasDataHash     bool   `json:"hasDataHash"`
}

var DefaultMinUtxoParams = MinUtxoParams{
	LovelacePerWord: DefaultLovelacePerWord,
	PolicyIdSize:    PolicyIdSize,
}

func (p *MinUtxoParams) setDefaults() {
	if p.LovelacePerWord == 0 {
		p.LovelacePerWord = DefaultMinUtxoParams.LovelacePerWord
	}
	if p.PolicyIdSize == 0 {
		p.PolicyIdSize = DefaultMinUtxoParams.PolicyIdSize
	}
}

// MinUtxoLovelace returns the minimum lovelace an output carrying the given
// native assets must hold. An output without assets needs
// LovelacePerWord * 29 (999,978 at the defaults).
func MinUtxoLovelace(assets []NativeAsset, params MinUtxoParams) uint64 {
	params.setDefaults()

	if len(assets) == 0 {
		return params.LovelacePerWord * (minUtxoFixedEntryWords + minUtxoCoinSizeWords)
	}

	policies := make(map[HexString]struct{})
	names := make(map[HexString]struct{})
	for _, asset := range assets {
		policies[asset.PolicyId.Lower()] = struct{}{}
		names[asset.AssetName.Lower()] = struct{}{}
	}

	var nameBytes uint64
	for name := range names {
		nameBytes += uint64(len(name) / 2)
	}

	policyCount := uint64(len(policies))
	tokenCount := uint64(len(assets))

	valueWords := minUtxoPrefixWords +
		(policyCount*params.PolicyIdSize+tokenCount*minUtxoPerTokenCost+nameBytes+minUtxoRoundUpAdd)/minUtxoBytesPerWord

	var dataHashWords uint64
	if params.HasDataHash {
		dataHashWords = minUtxoDataHashWords
	}

	return params.LovelacePerWord * (minUtxoFixedEntryWords + valueWords + dataHashWords)
}

package rpcclient

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	. "github.com/alexdcox/cardano-wallet"
	"github.com/pkg/errors"
	"github.com/tidwall/gjson"
)

const (
	BlockfrostProjectIdHeader = "project_id"
	blockfrostPageSize        = 100
	blockfrostMaxPages        = 1000
	lovelaceUnit              = "lovelace"
)

var BlockfrostUrls = map[Network]string{
	NetworkMainNet: "https://cardano-mainnet.blockfrost.io/api/v0",
	NetworkPreProd: "https://cardano-preprod.blockfrost.io/api/v0",
	NetworkPreview: "https://cardano-preview.blockfrost.io/api/v0",
}

// BlockfrostClient is a ChainQuery backed by the blockfrost http api.
type BlockfrostClient struct {
	client
	Network Network
}

var _ ChainQuery = (*BlockfrostClient)(nil)

func NewBlockfrostClient(baseUrl string, projectId string, network Network) (bf *BlockfrostClient, err error) {
	if err = network.Validate(); err != nil {
		return
	}

	if baseUrl == "" {
		var ok bool
		if baseUrl, ok = BlockfrostUrls[network]; !ok {
			err = errors.Wrapf(ErrInvalidOptions, "no default backend url for network '%s'", network)
			return
		}
	}

	headers := map[string]string{}
	if projectId != "" {
		headers[BlockfrostProjectIdHeader] = projectId
	}

	bf = &BlockfrostClient{
		client:  newClient(baseUrl, headers),
		Network: network,
	}
	return
}

func (b *BlockfrostClient) getJson(ctx context.Context, path string) (result gjson.Result, err error) {
	_, body, err := b.req(ctx, http.MethodGet, path, "", nil)
	if err != nil {
		return
	}
	if !gjson.ValidBytes(body) {
		err = errors.Wrapf(ErrRpcFailed, "invalid json from %s: %s", path, string(body))
		return
	}
	result = gjson.ParseBytes(body)
	return
}

func (b *BlockfrostClient) GetChainTip(ctx context.Context) (tip ChainTip, err error) {
	block, err := b.getJson(ctx, "/blocks/latest")
	if err != nil {
		return
	}

	epoch, slot := block.Get("epoch"), block.Get("slot")
	if !epoch.Exists() || !slot.Exists() {
		err = errors.Wrapf(ErrRpcFailed, "latest block is missing epoch or slot: %s", block.Raw)
		return
	}

	tip = ChainTip{
		Epoch:        epoch.Uint(),
		AbsoluteSlot: slot.Uint(),
	}

	log.Debug().Msgf("chain tip epoch %d slot %d", tip.Epoch, tip.AbsoluteSlot)
	return
}

func (b *BlockfrostClient) GetProtocolParameters(ctx context.Context, epoch uint64) (params ProtocolParameters, err error) {
	rsp, err := b.getJson(ctx, fmt.Sprintf("/epochs/%d/parameters", epoch))
	if err != nil {
		return
	}

	for _, field := range []string{"min_fee_a", "min_fee_b"} {
		if !rsp.Get(field).Exists() {
			err = errors.Wrapf(ErrRpcFailed, "protocol parameters are missing '%s'", field)
			return
		}
	}

	params = ProtocolParameters{
		MinFeeA:   rsp.Get("min_fee_a").Uint(),
		MinFeeB:   rsp.Get("min_fee_b").Uint(),
		MaxTxSize: rsp.Get("max_tx_size").Uint(),
	}

	// Quantities are strings, gjson reads both forms.
	if perWord := rsp.Get("coins_per_utxo_word"); perWord.Exists() && perWord.Type != gjson.Null {
		params.CoinsPerUtxoWord = perWord.Uint()
	} else if perSize := rsp.Get("coins_per_utxo_size"); perSize.Exists() && perSize.Type != gjson.Null {
		params.CoinsPerUtxoWord = perSize.Uint() * 8
	}

	return
}

func (b *BlockfrostClient) GetUtxos(ctx context.Context, address string) (utxos []UnspentOutput, err error) {
	escaped := url.PathEscape(address)

	for page := 1; page <= blockfrostMaxPages; page++ {
		path := fmt.Sprintf("/addresses/%s/utxos?page=%d&count=%d", escaped, page, blockfrostPageSize)

		var rsp gjson.Result
		rsp, err = b.getJson(ctx, path)
		if err != nil {
			var rpcErr *RpcError
			if errors.As(err, &rpcErr) && rpcErr.StatusCode == http.StatusNotFound {
				// Addresses the indexer has never seen report 404.
				err = nil
			}
			return
		}

		items := rsp.Array()
		for _, item := range items {
			var utxo UnspentOutput
			if utxo, err = parseBlockfrostUtxo(item); err != nil {
				return
			}
			utxos = append(utxos, utxo)
		}

		if len(items) < blockfrostPageSize {
			break
		}
	}

	log.Debug().Msgf("found %d utxos at '%s'", len(utxos), address)
	return
}

func parseBlockfrostUtxo(item gjson.Result) (utxo UnspentOutput, err error) {
	utxo = UnspentOutput{
		TxHash:      HexString(item.Get("tx_hash").String()),
		OutputIndex: uint32(item.Get("output_index").Uint()),
	}
	if !utxo.TxHash.Valid() {
		err = errors.Wrapf(ErrRpcFailed, "utxo has an invalid tx hash: %s", item.Raw)
		return
	}

	var assets []NativeAsset
	for _, amount := range item.Get("amount").Array() {
		unit := amount.Get("unit").String()

		quantity, err2 := strconv.ParseUint(amount.Get("quantity").String(), 10, 64)
		if err2 != nil {
			err = errors.Wrapf(ErrRpcFailed, "utxo %s has an invalid quantity for '%s'", utxo, unit)
			return
		}

		if unit == lovelaceUnit {
			utxo.Value.Lovelace += quantity
			continue
		}

		id, err2 := ParseAssetId(unit)
		if err2 != nil {
			err = errors.Wrapf(err2, "utxo %s", utxo)
			return
		}
		assets = append(assets, NativeAsset{PolicyId: id.PolicyId, AssetName: id.AssetName, Quantity: quantity})
	}

	utxo.Value, err = NewBalance(utxo.Value.Lovelace, assets...)
	return
}

func (b *BlockfrostClient) Submit(ctx context.Context, tx []byte) (id HexString, err error) {
	_, body, err := b.req(ctx, http.MethodPost, "/tx/submit", "application/cbor", bytes.NewReader(tx))
	if err != nil {
		return
	}

	rsp := gjson.ParseBytes(body)
	if rsp.Type != gjson.String {
		err = errors.Wrapf(ErrRpcFailed, "unexpected submit response: %s", string(body))
		return
	}

	id = HexString(rsp.String())
	return
}

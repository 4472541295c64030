package rpcclient

import (
	"context"
	"encoding/hex"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	. "github.com/alexdcox/cardano-wallet"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	testTxHash = strings.Repeat("ab", 32)
	testPolicy = strings.Repeat("cd", 28)
)

const testAddress = "addr_test1vztc80na8320zymhjekl40yjsnxkcvhu58x59mc2fuwvgkc332vxv"

func newBlockfrostServer(t *testing.T, handler http.HandlerFunc) *BlockfrostClient {
	t.Helper()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "project-123", r.Header.Get(BlockfrostProjectIdHeader))
		assert.NotEmpty(t, r.Header.Get(RequestIdHeader))
		handler(w, r)
	}))
	t.Cleanup(server.Close)

	bf, err := NewBlockfrostClient(server.URL, "project-123", NetworkPreProd)
	require.NoError(t, err)
	return bf
}

func TestNewBlockfrostClient(t *testing.T) {
	bf, err := NewBlockfrostClient("", "", NetworkPreview)
	require.NoError(t, err)
	assert.Equal(t, BlockfrostUrls[NetworkPreview], bf.baseUrl)
	assert.Empty(t, bf.headers)

	_, err = NewBlockfrostClient("", "", NetworkTestNet)
	assert.ErrorIs(t, err, ErrInvalidOptions)

	_, err = NewBlockfrostClient("http://localhost", "", Network("devnet"))
	assert.ErrorIs(t, err, ErrNetworkInvalid)
}

func TestBlockfrostClient_GetChainTip(t *testing.T) {
	bf := newBlockfrostServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/blocks/latest", r.URL.Path)
		fmt.Fprint(w, `{"hash":"00","epoch":425,"slot":108864000,"height":10000}`)
	})

	tip, err := bf.GetChainTip(context.Background())
	require.NoError(t, err)
	assert.Equal(t, ChainTip{Epoch: 425, AbsoluteSlot: 108864000}, tip)
}

func TestBlockfrostClient_GetProtocolParameters(t *testing.T) {
	bf := newBlockfrostServer(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/epochs/425/parameters":
			fmt.Fprint(w, `{"epoch":425,"min_fee_a":44,"min_fee_b":155381,"max_tx_size":16384,"coins_per_utxo_word":"4310"}`)
		case "/epochs/426/parameters":
			fmt.Fprint(w, `{"epoch":426,"min_fee_a":44,"min_fee_b":155381,"max_tx_size":16384,"coins_per_utxo_word":null,"coins_per_utxo_size":"4310"}`)
		default:
			fmt.Fprint(w, `{"epoch":1}`)
		}
	})

	params, err := bf.GetProtocolParameters(context.Background(), 425)
	require.NoError(t, err)
	assert.Equal(t, ProtocolParameters{MinFeeA: 44, MinFeeB: 155381, CoinsPerUtxoWord: 4310, MaxTxSize: 16384}, params)

	params, err = bf.GetProtocolParameters(context.Background(), 426)
	require.NoError(t, err)
	assert.Equal(t, uint64(4310*8), params.CoinsPerUtxoWord)

	_, err = bf.GetProtocolParameters(context.Background(), 1)
	assert.ErrorIs(t, err, ErrRpcFailed)
}

func TestBlockfrostClient_GetUtxos(t *testing.T) {
	var pages []string
	bf := newBlockfrostServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/addresses/"+testAddress+"/utxos", r.URL.Path)
		assert.Equal(t, "100", r.URL.Query().Get("count"))

		page := r.URL.Query().Get("page")
		pages = append(pages, page)

		if page == "1" {
			items := make([]string, blockfrostPageSize)
			for i := range items {
				items[i] = fmt.Sprintf(`{"tx_hash":"%s","output_index":%d,"amount":[{"unit":"lovelace","quantity":"1000000"}]}`, testTxHash, i)
			}
			fmt.Fprintf(w, "[%s]", strings.Join(items, ","))
			return
		}

		fmt.Fprintf(w, `[{"tx_hash":"%s","output_index":100,"amount":[{"unit":"lovelace","quantity":"2000000"},{"unit":"%s74657374","quantity":"7"}]}]`, testTxHash, testPolicy)
	})

	utxos, err := bf.GetUtxos(context.Background(), testAddress)
	require.NoError(t, err)
	assert.Equal(t, []string{"1", "2"}, pages)
	require.Len(t, utxos, blockfrostPageSize+1)

	last := utxos[len(utxos)-1]
	assert.Equal(t, fmt.Sprintf("%s#100", testTxHash), last.String())
	assert.Equal(t, uint64(2000000), last.Value.Lovelace)
	assert.Equal(t, uint64(7), last.Value.Quantity(AssetId{PolicyId: HexString(testPolicy), AssetName: "74657374"}))

	total, err := Sum(utxos[0].Value, last.Value)
	require.NoError(t, err)
	assert.Equal(t, uint64(3000000), total.Lovelace)
}

func TestBlockfrostClient_GetUtxos_UnknownAddress(t *testing.T) {
	bf := newBlockfrostServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		fmt.Fprint(w, `{"status_code":404,"error":"Not Found","message":"The requested component has not been found."}`)
	})

	utxos, err := bf.GetUtxos(context.Background(), testAddress)
	require.NoError(t, err)
	assert.Empty(t, utxos)
}

func TestBlockfrostClient_GetUtxos_InvalidQuantity(t *testing.T) {
	bf := newBlockfrostServer(t, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprintf(w, `[{"tx_hash":"%s","output_index":0,"amount":[{"unit":"lovelace","quantity":"-1"}]}]`, testTxHash)
	})

	_, err := bf.GetUtxos(context.Background(), testAddress)
	assert.ErrorIs(t, err, ErrRpcFailed)
}

func TestBlockfrostClient_ServerError(t *testing.T) {
	bf := newBlockfrostServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		fmt.Fprint(w, `{"status_code":500,"error":"Internal Server Error","message":"boom"}`)
	})

	_, err := bf.GetChainTip(context.Background())
	var rpcErr *RpcError
	require.ErrorAs(t, err, &rpcErr)
	assert.Equal(t, http.StatusInternalServerError, rpcErr.StatusCode)
	assert.Equal(t, "Internal Server Error: boom", rpcErr.Error())
}

func TestBlockfrostClient_Unreachable(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	server.Close()

	bf, err := NewBlockfrostClient(server.URL, "", NetworkPreProd)
	require.NoError(t, err)

	_, err = bf.GetChainTip(context.Background())
	assert.ErrorIs(t, err, ErrBackendUnavailable)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = bf.GetChainTip(ctx)
	assert.ErrorIs(t, err, ErrCancelled)
}

func TestBlockfrostClient_Submit(t *testing.T) {
	payload := []byte{0x84, 0xa0, 0xa0, 0xf5, 0xf6}

	bf := newBlockfrostServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/tx/submit", r.URL.Path)
		assert.Equal(t, "application/cbor", r.Header.Get("Content-Type"))

		body, err := io.ReadAll(r.Body)
		assert.NoError(t, err)
		assert.Equal(t, payload, body)

		fmt.Fprintf(w, `"%s"`, testTxHash)
	})

	id, err := bf.Submit(context.Background(), payload)
	require.NoError(t, err)
	assert.Equal(t, HexString(testTxHash), id)
	assert.Equal(t, strings.Repeat("ab", 32), hex.EncodeToString(id.Bytes()))
}

func TestRpcError_StdErr(t *testing.T) {
	err := (&RpcError{Err: ErrInsufficientBalance.Error(), Details: "needs more"}).StdErr()
	assert.ErrorIs(t, err, ErrInsufficientBalance)
	assert.Equal(t, CategoryInsufficientBalance, Classify(err))

	assert.Nil(t, (&RpcError{Err: "Not Found"}).StdErr())
}

package rpcclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	. "github.com/alexdcox/cardano-wallet"
	"github.com/google/uuid"
	"github.com/pkg/errors"
)

const RequestIdHeader = "X-Request-Id"

var log = Log()

type client struct {
	baseUrl string
	headers map[string]string
	http    *http.Client
}

func newClient(baseUrl string, headers map[string]string) client {
	return client{
		baseUrl: strings.TrimRight(baseUrl, "/"),
		headers: headers,
		http:    &http.Client{Timeout: 30 * time.Second},
	}
}

func (c *client) req(ctx context.Context, method string, path string, contentType string, body io.Reader) (rsp *http.Response, out []byte, err error) {
	req, err2 := http.NewRequestWithContext(ctx, method, c.baseUrl+path, body)
	if err2 != nil {
		err = errors.WithStack(err2)
		return
	}

	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	for k, v := range c.headers {
		req.Header.Set(k, v)
	}
	requestId := uuid.NewString()
	req.Header.Set(RequestIdHeader, requestId)

	log.Trace().Msgf("rpc request %s: %s %s", requestId, method, path)

	rsp, err = c.http.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			err = errors.Wrap(ErrCancelled, err.Error())
			return
		}
		err = errors.Wrapf(ErrBackendUnavailable, "%s %s: %v", method, path, err)
		return
	}
	defer rsp.Body.Close()

	out, err = io.ReadAll(rsp.Body)
	if err != nil {
		err = errors.WithStack(err)
		return
	}

	if rsp.StatusCode < 200 || rsp.StatusCode > 299 {
		errRsp := &RpcError{}
		if decodeErr := json.Unmarshal(out, errRsp); decodeErr == nil && errRsp.Err != "" {
			errRsp.StatusCode = rsp.StatusCode
			err = errRsp

			if stdErr := errRsp.StdErr(); stdErr != nil {
				err = stdErr
			}

			return
		}

		err = errors.Wrapf(ErrRpcFailed, "rpc response code %d with body %s", rsp.StatusCode, string(out))
		return
	}

	return
}

func (c *client) reqUnmarshal(ctx context.Context, method string, path string, body io.Reader, target any) (err error) {
	contentType := ""
	if body != nil {
		contentType = "application/json"
	}

	_, rspBody, err := c.req(ctx, method, path, contentType, body)
	if err != nil {
		return
	}

	err = json.Unmarshal(rspBody, target)
	if err != nil {
		err = errors.Wrapf(err, "unable to unmarshal body: %s", string(rspBody))
		return
	}

	return
}

func (c *client) get(ctx context.Context, path string, target any) (err error) {
	return c.reqUnmarshal(ctx, http.MethodGet, path, nil, target)
}

func (c *client) post(ctx context.Context, path string, in any, target any) (err error) {
	jsn, err := json.Marshal(in)
	if err != nil {
		err = errors.WithStack(err)
		return
	}

	return c.reqUnmarshal(ctx, http.MethodPost, path, bytes.NewReader(jsn), target)
}

// RpcClient talks to a cardano-rpc server.
type RpcClient struct {
	client
}

func NewRpcClient(baseUrl string) (rpc *RpcClient, err error) {
	if baseUrl == "" {
		err = errors.Wrap(ErrInvalidOptions, "rpc base url is required")
		return
	}
	rpc = &RpcClient{client: newClient(baseUrl, nil)}
	return
}

func (c *RpcClient) BuildSimplePayment(ctx context.Context, in *PaymentRequest) (out *PaymentResult, err error) {
	out = &PaymentResult{}
	err = c.post(ctx, "/transaction/simple-payment/build", in, out)
	return
}

type MinUtxoIn struct {
	Assets          []NativeAsset `json:"assets"`
	LovelacePerWord uint64        `json:"lovelacePerWord,omitempty"`
	HasDataHash     bool          `json:"hasDataHash,omitempty"`
}

type MinUtxoOut struct {
	Lovelace uint64 `json:"lovelace"`
	Ada      string `json:"ada"`
}

func (c *RpcClient) MinUtxo(ctx context.Context, in *MinUtxoIn) (out *MinUtxoOut, err error) {
	out = &MinUtxoOut{}
	err = c.post(ctx, "/tools/min-utxo", in, out)
	return
}

type ChunkMessageIn struct {
	Message   string `json:"message"`
	MaxLength int    `json:"maxLength,omitempty"`
}

type ChunkMessageOut struct {
	Chunks   []string `json:"chunks"`
	Metadata Metadata `json:"metadata,omitempty"`
}

func (c *RpcClient) ChunkMessage(ctx context.Context, in *ChunkMessageIn) (out *ChunkMessageOut, err error) {
	out = &ChunkMessageOut{}
	err = c.post(ctx, "/tools/chunk-message", in, out)
	return
}

type GetStatusOut struct {
	Network  Network            `json:"network"`
	Tip      ChainTip           `json:"tip"`
	Protocol ProtocolParameters `json:"protocol"`
}

func (c *RpcClient) GetStatus(ctx context.Context) (out *GetStatusOut, err error) {
	out = &GetStatusOut{}
	err = c.get(ctx, "/status", out)
	return
}

// RpcError is the error body of both cardano-rpc ({error, details}) and
// blockfrost ({status_code, error, message}).
type RpcError struct {
	StatusCode int    `json:"status_code,omitempty"`
	Err        string `json:"error"`
	Details    string `json:"details,omitempty"`
	Message    string `json:"message,omitempty"`
}

func (r *RpcError) Error() string {
	if r.Message != "" {
		return fmt.Sprintf("%s: %s", r.Err, r.Message)
	}
	return r.Err
}

func (r *RpcError) StdErr() error {
	for _, a := range AllErrors {
		if r.Err == a.Error() {
			return errors.Wrap(a, r.Details)
		}
	}
	return nil
}

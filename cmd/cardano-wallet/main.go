package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"

	. "github.com/alexdcox/cardano-wallet"
	"github.com/alexdcox/cardano-wallet/rpcclient"
	"github.com/pkg/errors"
)

const (
	envBackendUrl = "CARDANO_WALLET_BACKEND_URL"
	envProjectId  = "CARDANO_WALLET_PROJECT_ID"
	envLogLevel   = "CARDANO_WALLET_LOG_LEVEL"
)

const usage = `usage:
  cardano-wallet transaction simple-payment build --network NETWORK --from ADDRESS --to ADDRESS (--ada ADA | --lovelaces N | --send-all true) [options]
  cardano-wallet tools min-utxo [--asset POLICY.NAME:QTY]... [--lovelace-per-word N] [--data-hash true]
  cardano-wallet tools chunk-message --message TEXT [--max-length N]
  cardano-wallet address inspect --address ADDRESS
  cardano-wallet key inspect --signing-key KEY [--network NETWORK]`

var log = Log()

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	code := run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

func run(ctx context.Context, args []string, stdout io.Writer, stderr io.Writer) int {
	command := func(names ...string) bool {
		if len(args) < len(names) {
			return false
		}
		for i, name := range names {
			if args[i] != name {
				return false
			}
		}
		args = args[len(names):]
		return true
	}

	var (
		out any
		err error
	)

	switch {
	case command("transaction", "simple-payment", "build"):
		out, err = buildSimplePayment(ctx, args, stderr)
	case command("tools", "min-utxo"):
		out, err = minUtxo(args, stderr)
	case command("tools", "chunk-message"):
		out, err = chunkMessage(args, stderr)
	case command("address", "inspect"):
		out, err = inspectAddress(args, stderr)
	case command("key", "inspect"):
		out, err = inspectKey(args, stderr)
	default:
		fmt.Fprintln(stderr, usage)
		return 1
	}

	if err != nil {
		log.Debug().Str("stack", StackTracerMessage(err)).Msg(err.Error())
		fmt.Fprintf(stderr, "error (%s): %s\n", Classify(err), UserMessage(err))
		return 1
	}

	jsn, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		log.Error().Msgf("%+v", errors.WithStack(err))
		return 1
	}
	fmt.Fprintln(stdout, string(jsn))
	return 0
}

func newFlagSet(name string, stderr io.Writer) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(stderr)
	return fs
}

func parseFlags(fs *flag.FlagSet, args []string) (err error) {
	if err = fs.Parse(args); err != nil {
		return errors.Wrap(ErrInvalidOptions, err.Error())
	}
	if fs.NArg() > 0 {
		return errors.Wrapf(ErrInvalidOptions, "unexpected arguments: %s", strings.Join(fs.Args(), " "))
	}
	return
}

func buildSimplePayment(ctx context.Context, args []string, stderr io.Writer) (result *PaymentResult, err error) {
	var (
		req              PaymentRequest
		lovelaces        uint64
		ttl              uint64
		mockWitnessCount int
		backendUrl       string
		projectId        string
		logLevel         string
	)

	fs := newFlagSet("transaction simple-payment build", stderr)
	fs.StringVar(&req.Network, "network", "", "Network to build for (mainnet|testnet|preprod|preview)")
	fs.StringVar(&req.From, "from", "", "Source address, every utxo it holds is spent")
	fs.StringVar(&req.To, "to", "", "Destination address")
	fs.StringVar(&req.Ada, "ada", "", "Amount to send in ada, up to 6 decimals")
	fs.Uint64Var(&lovelaces, "lovelaces", 0, "Amount to send in lovelace")
	fs.Var((*explicitBool)(&req.SendAll), "send-all", "Send the whole balance including native assets (true|false)")
	fs.Uint64Var(&ttl, "ttl", 0, "Absolute slot the transaction expires at (default: tip + 7200)")
	fs.IntVar(&mockWitnessCount, "mock-witness-count", 0, "Witnesses to budget the fee for")
	fs.StringVar(&req.SigningKey, "signing-key", "", "Bech32 ed25519_sk or ed25519e_sk key to witness with")
	fs.Var((*explicitBool)(&req.Submit), "submit", "Submit the transaction to the backend (true|false)")
	fs.StringVar(&req.Message, "message", "", "Message to attach as label 674 metadata")
	fs.StringVar(&req.OutFile, "out-file", "", "Write the transaction text envelope to this path")
	fs.StringVar(&backendUrl, "backend-url", "", "Backend api url, can also be set via "+envBackendUrl)
	fs.StringVar(&projectId, "project-id", "", "Backend project id, can also be set via "+envProjectId)
	fs.StringVar(&logLevel, "log-level", "", "Log level (trace|debug|info|warn|error), can also be set via "+envLogLevel)

	if err = parseFlags(fs, args); err != nil {
		return
	}

	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "lovelaces":
			req.Lovelaces = &lovelaces
		case "ttl":
			req.Ttl = &ttl
		case "mock-witness-count":
			req.MockWitnessCount = &mockWitnessCount
		}
	})

	if _, err = SetLogLevel(logLevel, envLogLevel); err != nil {
		err = errors.Wrap(ErrInvalidOptions, err.Error())
		return
	}

	cfg := DefaultPaymentConfig()

	payment, validation := req.Validate(cfg)
	if err = validation.Err(); err != nil {
		return
	}

	if backendUrl == "" {
		backendUrl = os.Getenv(envBackendUrl)
	}
	if projectId == "" {
		projectId = os.Getenv(envProjectId)
	}

	chain, err := rpcclient.NewBlockfrostClient(backendUrl, projectId, payment.Network)
	if err != nil {
		return
	}

	assembler := NewPaymentAssembler(cfg, chain, NewCborLedger(), log)

	result, err = assembler.Assemble(ctx, payment)
	if err != nil {
		return
	}

	log.Info().Msgf(
		"built transaction %s sending %s with a fee of %s ada",
		result.TxId,
		FormatLovelace(result.Target.Lovelace),
		FormatAda(result.Fee))

	return
}

type minUtxoOut struct {
	Lovelace uint64        `json:"lovelace"`
	Ada      string        `json:"ada"`
	Assets   []NativeAsset `json:"assets,omitempty"`
}

func minUtxo(args []string, stderr io.Writer) (out *minUtxoOut, err error) {
	var (
		assets assetList
		params MinUtxoParams
	)

	fs := newFlagSet("tools min-utxo", stderr)
	fs.Var(&assets, "asset", "Native asset as POLICY.NAME:QUANTITY, repeatable")
	fs.Uint64Var(&params.LovelacePerWord, "lovelace-per-word", DefaultLovelacePerWord, "Lovelace per utxo word")
	fs.Var((*explicitBool)(&params.HasDataHash), "data-hash", "The output carries a datum hash (true|false)")

	if err = parseFlags(fs, args); err != nil {
		return
	}

	value, err := NewBalance(0, assets...)
	if err != nil {
		err = errors.Wrap(ErrInvalidOptions, err.Error())
		return
	}

	lovelace := value.MinUtxoLovelace(params)
	out = &minUtxoOut{
		Lovelace: lovelace,
		Ada:      FormatAda(lovelace),
		Assets:   value.Assets,
	}
	return
}

type chunkMessageOut struct {
	Chunks   []string `json:"chunks"`
	Metadata Metadata `json:"metadata"`
}

func chunkMessage(args []string, stderr io.Writer) (out *chunkMessageOut, err error) {
	var (
		message   string
		maxLength int
	)

	fs := newFlagSet("tools chunk-message", stderr)
	fs.StringVar(&message, "message", "", "Message to split into metadata strings")
	fs.IntVar(&maxLength, "max-length", MaxMetadataStringLength, "Maximum characters per chunk")

	if err = parseFlags(fs, args); err != nil {
		return
	}

	if message == "" {
		err = errors.Wrap(ErrInvalidOptions, "--message is required")
		return
	}
	if maxLength <= 0 {
		err = errors.Wrapf(ErrInvalidOptions, "--max-length must be positive, got %d", maxLength)
		return
	}

	out = &chunkMessageOut{
		Chunks:   ChunkString(message, maxLength),
		Metadata: MessageAuxData(MessageMetadataLabel, message, maxLength),
	}
	return
}

type addressOut struct {
	Address        string   `json:"address"`
	Hex            HexBytes `json:"hex"`
	Byron          bool     `json:"byron"`
	Type           string   `json:"type"`
	Header         string   `json:"header,omitempty"`
	Network        string   `json:"network"`
	PaymentKeyHash HexBytes `json:"paymentKeyHash,omitempty"`
}

func inspectAddress(args []string, stderr io.Writer) (out *addressOut, err error) {
	var address string

	fs := newFlagSet("address inspect", stderr)
	fs.StringVar(&address, "address", "", "Bech32 or base58 byron address to decode")

	if err = parseFlags(fs, args); err != nil {
		return
	}

	address = strings.Trim(address, " \"")
	if address == "" {
		err = errors.Wrap(ErrInvalidOptions, "--address is required")
		return
	}

	decoded, err := DecodeAnyAddress(address)
	if err != nil {
		err = errors.Wrap(ErrInvalidOptions, err.Error())
		return
	}

	out = &addressOut{
		Address: address,
		Hex:     HexBytes(decoded),
		Byron:   decoded.IsByron(),
		Type:    AddressTypeByron.String(),
		Network: "unknown",
	}
	if out.Byron {
		return
	}

	header, err := decoded.Header()
	if err != nil {
		return
	}
	typ, err := header.Type()
	if err != nil {
		return
	}
	network, err := header.Network()
	if err != nil {
		return
	}

	out.Header = header.String()
	out.Type = typ.String()
	out.Network = network.String()
	out.PaymentKeyHash, _ = decoded.PaymentKeyHash()
	return
}

type keyOut struct {
	Prefix             string   `json:"prefix"`
	VerificationKey    string   `json:"verificationKey"`
	VerificationKeyHex HexBytes `json:"verificationKeyHex"`
	KeyHash            HexBytes `json:"keyHash"`
	Network            Network  `json:"network"`
	EnterpriseAddress  string   `json:"enterpriseAddress"`
}

func inspectKey(args []string, stderr io.Writer) (out *keyOut, err error) {
	var (
		encoded string
		network string
	)

	fs := newFlagSet("key inspect", stderr)
	fs.StringVar(&encoded, "signing-key", "", "Bech32 ed25519_sk or ed25519e_sk key")
	fs.StringVar(&network, "network", string(NetworkMainNet), "Network to derive the enterprise address for")

	if err = parseFlags(fs, args); err != nil {
		return
	}

	cfg := DefaultPaymentConfig()

	key, err := ParseSigningKey(strings.TrimSpace(encoded), cfg.SigningKeyPrefixes)
	if err != nil {
		err = errors.Wrap(ErrInvalidOptions, err.Error())
		return
	}

	net := Network(strings.ToLower(network))
	if err = net.Validate(); err != nil {
		err = errors.Wrap(ErrInvalidOptions, err.Error())
		return
	}

	out = &keyOut{
		Prefix:             key.Prefix(),
		VerificationKeyHex: key.VerificationKey(),
		Network:            net,
	}

	if out.VerificationKey, err = key.VerificationKeyBech32(); err != nil {
		return
	}
	if out.KeyHash, err = key.KeyHash(); err != nil {
		return
	}

	addr, err := EncodeAddress(key.VerificationKey(), net, AddressTypePayment)
	if err != nil {
		return
	}
	out.EnterpriseAddress, err = addr.Bech32String(net)
	return
}

// explicitBool is a boolean flag that always takes a value, so
// "--submit true" parses the same as "--submit=true".
type explicitBool bool

func (b *explicitBool) String() string {
	if b == nil {
		return "false"
	}
	return strconv.FormatBool(bool(*b))
}

func (b *explicitBool) Set(value string) error {
	parsed, err := strconv.ParseBool(value)
	if err != nil {
		return errors.Errorf("expected true or false, got '%s'", value)
	}
	*b = explicitBool(parsed)
	return nil
}

type assetList []NativeAsset

func (a *assetList) String() string {
	if a == nil {
		return ""
	}
	parts := make([]string, 0, len(*a))
	for _, asset := range *a {
		parts = append(parts, fmt.Sprintf("%s:%d", asset.Id(), asset.Quantity))
	}
	return strings.Join(parts, ",")
}

func (a *assetList) Set(value string) error {
	separator := strings.LastIndex(value, ":")
	if separator < 0 {
		return errors.Errorf("expected POLICY.NAME:QUANTITY, got '%s'", value)
	}

	id, err := ParseAssetId(value[:separator])
	if err != nil {
		return err
	}

	quantity, err := strconv.ParseUint(value[separator+1:], 10, 64)
	if err != nil || quantity == 0 {
		return errors.Errorf("invalid quantity in '%s'", value)
	}

	*a = append(*a, NativeAsset{PolicyId: id.PolicyId, AssetName: id.AssetName, Quantity: quantity})
	return nil
}

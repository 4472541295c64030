package cardano

import (
	"context"
	"fmt"
	"strings"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"
)

const maxFeeIterations = 4

type PaymentStage int

const (
	StageValidated PaymentStage = iota
	StageConsolidated
	StageAssembled
	StageWitnessed
	StageFeed
	StageSerialized
	StageSubmitted
)

func (s PaymentStage) String() string {
	switch s {
	case StageValidated:
		return "validated"
	case StageConsolidated:
		return "consolidated"
	case StageAssembled:
		return "assembled"
	case StageWitnessed:
		return "witnessed"
	case StageFeed:
		return "feed"
	case StageSerialized:
		return "serialized"
	case StageSubmitted:
		return "submitted"
	default:
		return "unknown"
	}
}

func (s PaymentStage) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

func (s *PaymentStage) UnmarshalText(text []byte) error {
	for stage := StageValidated; stage <= StageSubmitted; stage++ {
		if stage.String() == string(text) {
			*s = stage
			return nil
		}
	}
	return errors.Errorf("unknown payment stage '%s'", string(text))
}

// PaymentResult describes an assembled payment and how far it progressed.
type PaymentResult struct {
	Stage             PaymentStage      `json:"stage"`
	ConsolidatedInput Balance           `json:"consolidatedInput"`
	Target            Balance           `json:"target"`
	Change            Balance           `json:"change"`
	Draft             *TransactionDraft `json:"draft"`
	Transaction       *Transaction      `json:"-"`
	Fee               uint64            `json:"fee"`
	Ttl               uint64            `json:"ttl"`
	TxId              HexBytes          `json:"txId"`
	Cbor              HexBytes          `json:"cborHex"`
	Signed            bool              `json:"signed"`
	EnvelopePath      string            `json:"envelopePath,omitempty"`
	Submitted         bool              `json:"submitted"`
	SubmittedTxId     HexString         `json:"submittedTxId,omitempty"`
	TxIdMismatch      bool              `json:"txIdMismatch,omitempty"`
	Warnings          []string          `json:"warnings,omitempty"`
}

// PaymentAssembler turns a validated payment into a serialised transaction,
// spending every utxo at the source address.
type PaymentAssembler struct {
	cfg    PaymentConfig
	chain  ChainQuery
	ledger LedgerToolkit
	log    *zerolog.Logger
}

func NewPaymentAssembler(cfg PaymentConfig, chain ChainQuery, ledger LedgerToolkit, log *zerolog.Logger) *PaymentAssembler {
	cfg.setDefaults()
	if log == nil {
		log = Log()
	}
	return &PaymentAssembler{
		cfg:    cfg,
		chain:  chain,
		ledger: ledger,
		log:    log,
	}
}

func (a *PaymentAssembler) Assemble(ctx context.Context, payment *ValidatedPayment) (result *PaymentResult, err error) {
	if payment == nil {
		err = errors.Wrap(ErrInvalidOptions, "no payment to assemble")
		return
	}
	if err = ctx.Err(); err != nil {
		err = errors.Wrap(ErrCancelled, err.Error())
		return
	}

	log := a.log.With().Str("network", string(payment.Network)).Logger()

	res := &PaymentResult{Stage: StageValidated}
	res.Warnings = append(res.Warnings, payment.Warnings...)
	for _, warning := range payment.Warnings {
		log.Warn().Msg(warning)
	}

	tip, err := a.chain.GetChainTip(ctx)
	if err != nil {
		err = backendError(ctx, err, "failed to get chain tip")
		return
	}

	params, err := a.chain.GetProtocolParameters(ctx, tip.Epoch)
	if err != nil {
		err = backendError(ctx, err, "failed to get protocol parameters for epoch %d", tip.Epoch)
		return
	}

	utxos, err := a.chain.GetUtxos(ctx, payment.From)
	if err != nil {
		err = backendError(ctx, err, "failed to get utxos for '%s'", payment.From)
		return
	}
	if len(utxos) == 0 {
		err = errors.Wrapf(ErrBackendUnavailable, "no utxos found at '%s'", payment.From)
		return
	}

	values := make([]Balance, 0, len(utxos))
	for _, utxo := range utxos {
		values = append(values, utxo.Value)
	}
	if res.ConsolidatedInput, err = Sum(values...); err != nil {
		return
	}
	res.Stage = StageConsolidated

	log.Debug().Msgf(
		"consolidated %d utxos into %s with %d native assets",
		len(utxos),
		FormatLovelace(res.ConsolidatedInput.Lovelace),
		len(res.ConsolidatedInput.Assets))

	if payment.SendAll {
		res.Target = res.ConsolidatedInput
	} else {
		res.Target = Lovelace(payment.Lovelaces)
	}

	if res.ConsolidatedInput.Lovelace < res.Target.Lovelace {
		err = errors.Wrapf(
			ErrInsufficientBalance,
			"requested %s but '%s' holds %s",
			FormatLovelace(res.Target.Lovelace),
			payment.From,
			FormatLovelace(res.ConsolidatedInput.Lovelace))
		return
	}

	if res.Change, err = Subtract(res.ConsolidatedInput, res.Target); err != nil {
		return
	}

	res.Ttl = payment.Ttl
	if res.Ttl == 0 {
		res.Ttl = tip.AbsoluteSlot + a.cfg.TtlOffset
	}

	draft := &TransactionDraft{
		Inputs: SortUtxos(utxos),
		Outputs: []PendingOutput{{
			Address: payment.To,
			Value:   res.Target,
		}},
		Ttl: res.Ttl,
	}
	if !res.Change.IsZero() {
		draft.Outputs = append(draft.Outputs, PendingOutput{
			Address: payment.From,
			Value:   res.Change,
		})
		draft.FeePayerIndex = len(draft.Outputs) - 1
	}
	if payment.Message != "" {
		draft.Metadata = MessageAuxData(a.cfg.MetadataLabel, payment.Message, a.cfg.MaxMetadataStringLength)
	}
	res.Draft = draft
	res.Stage = StageAssembled

	tx, err := a.build(draft, payment.Signer)
	if err != nil {
		return
	}
	if tx.Signed() {
		res.Stage = StageWitnessed
	}

	if tx, err = a.applyFee(draft, tx, params, payment); err != nil {
		return
	}
	res.Transaction = tx
	res.Fee = draft.Fee
	res.Stage = StageFeed

	log.Debug().Msgf("fee %s paid by output %d", FormatLovelace(res.Fee), draft.FeePayerIndex)

	res.Warnings = append(res.Warnings, a.minUtxoWarnings(draft, params)...)

	if res.Cbor, err = a.ledger.Serialize(tx); err != nil {
		return
	}
	if res.TxId, err = TransactionId(a.ledger, tx); err != nil {
		return
	}
	res.Signed = tx.Signed()
	res.Stage = StageSerialized

	if payment.OutFile != "" {
		envelope := NewTransactionEnvelope(res.Cbor, res.Signed)
		if err = envelope.WriteFile(ctx, payment.OutFile); err != nil {
			return
		}
		res.EnvelopePath = payment.OutFile
		log.Info().Msgf("wrote %s to '%s'", envelope.Type, payment.OutFile)
	}

	if payment.Submit {
		if err = a.submit(ctx, res, &log); err != nil {
			return
		}
	}

	return res, nil
}

// build constructs the transaction and, when a signer is present, witnesses
// the current body. It is called again whenever the body changes.
func (a *PaymentAssembler) build(draft *TransactionDraft, signer Signer) (tx *Transaction, err error) {
	draft.Witnesses = nil

	if tx, err = a.ledger.Build(draft); err != nil {
		return
	}

	if signer == nil {
		return
	}

	id, err := TransactionId(a.ledger, tx)
	if err != nil {
		return
	}

	witness, err := signer.Sign(id)
	if err != nil {
		err = errors.Wrap(err, "failed to sign transaction body")
		return
	}

	draft.Witnesses = []VKeyWitness{witness}
	tx.Witness.VKeyWitnesses = draft.Witnesses
	return
}

// applyFee takes the fee from the fee payer output until the fee covers the
// size of the transaction paying it.
func (a *PaymentAssembler) applyFee(draft *TransactionDraft, tx *Transaction, params ProtocolParameters, payment *ValidatedPayment) (_ *Transaction, err error) {
	payer, err := draft.FeePayer()
	if err != nil {
		return
	}
	payerValue := payer.Value

	witnessCount := a.witnessCount(payment)

	for i := 0; ; i++ {
		required, err2 := a.ledger.ComputeFee(tx, params.MinFeeA, params.MinFeeB, witnessCount)
		if err2 != nil {
			return nil, err2
		}
		if required <= draft.Fee {
			return tx, nil
		}
		if i == maxFeeIterations {
			return nil, errors.Errorf("fee did not settle after %d iterations", maxFeeIterations)
		}

		if payerValue.Lovelace < required {
			return nil, errors.Wrapf(
				ErrInsufficientBalance,
				"fee of %s exceeds the %s available to pay it",
				FormatLovelace(required),
				FormatLovelace(payerValue.Lovelace))
		}

		draft.Fee = required
		draft.Outputs[draft.FeePayerIndex].Value = payerValue.WithLovelace(payerValue.Lovelace - required)

		if tx, err = a.build(draft, payment.Signer); err != nil {
			return
		}
	}
}

func (a *PaymentAssembler) witnessCount(payment *ValidatedPayment) int {
	if payment.MockWitnessCount > 0 {
		return payment.MockWitnessCount
	}
	return 1
}

func (a *PaymentAssembler) minUtxoWarnings(draft *TransactionDraft, params ProtocolParameters) (warnings []string) {
	minUtxoParams := a.cfg.MinUtxo
	if params.CoinsPerUtxoWord > 0 {
		minUtxoParams.LovelacePerWord = params.CoinsPerUtxoWord
	}

	for i, output := range draft.Outputs {
		required := output.Value.MinUtxoLovelace(minUtxoParams)
		if output.Value.Lovelace >= required {
			continue
		}
		warning := fmt.Sprintf(
			"output %d to '%s' holds %s, below the minimum utxo of %s",
			i,
			output.Address,
			FormatLovelace(output.Value.Lovelace),
			FormatLovelace(required))
		a.log.Warn().Msg(warning)
		warnings = append(warnings, warning)
	}
	return
}

func (a *PaymentAssembler) submit(ctx context.Context, res *PaymentResult, log *zerolog.Logger) (err error) {
	id, err := a.chain.Submit(ctx, res.Cbor)
	if err != nil {
		return backendError(ctx, err, "failed to submit transaction %s", res.TxId)
	}

	res.Submitted = true
	res.SubmittedTxId = id
	res.Stage = StageSubmitted

	if !strings.EqualFold(id.String(), res.TxId.String()) {
		res.TxIdMismatch = true
		log.Warn().Msgf("backend reported transaction id %s, expected %s", id, res.TxId)
	} else {
		log.Info().Msgf("submitted transaction %s", id)
	}
	return
}

func backendError(ctx context.Context, err error, format string, args ...any) error {
	if ctx.Err() != nil || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return errors.Wrapf(ErrCancelled, format, args...)
	}
	if errors.Is(err, ErrBackendUnavailable) {
		return errors.Wrapf(err, format, args...)
	}
	return errors.Wrapf(ErrBackendUnavailable, "%s: %v", fmt.Sprintf(format, args...), err)
}

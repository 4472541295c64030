package cardano

import (
	"encoding/hex"

	"github.com/fxamacker/cbor/v2"
	"github.com/pkg/errors"
)

type TransactionInput struct {
	_      struct{} `cbor:",toarray"`
	TxHash HexBytes `json:"txHash"`
	Index  uint32   `json:"index"`
}

// OutputAmount is a Balance in its ledger form: a bare coin when there are
// no native assets, otherwise [coin, {policy: {name: quantity}}].
type OutputAmount Balance

type outputAmountData struct {
	_        struct{} `cbor:",toarray"`
	Coin     uint64
	Mappings map[cbor.ByteString]map[cbor.ByteString]uint64
}

func (a OutputAmount) MarshalCBOR() ([]byte, error) {
	if len(a.Assets) == 0 {
		return LedgerCborEncoder.Marshal(a.Lovelace)
	}

	data := outputAmountData{
		Coin:     a.Lovelace,
		Mappings: make(map[cbor.ByteString]map[cbor.ByteString]uint64),
	}
	for _, asset := range a.Assets {
		policy := cbor.ByteString(asset.PolicyId.Bytes())
		if data.Mappings[policy] == nil {
			data.Mappings[policy] = make(map[cbor.ByteString]uint64)
		}
		data.Mappings[policy][cbor.ByteString(asset.AssetName.Bytes())] += asset.Quantity
	}

	return LedgerCborEncoder.Marshal(data)
}

func (a *OutputAmount) UnmarshalCBOR(data []byte) (err error) {
	var coin uint64
	if err = StandardCborDecoder.Unmarshal(data, &coin); err == nil {
		*a = OutputAmount{Lovelace: coin}
		return
	}

	amount := outputAmountData{}
	if err = StandardCborDecoder.Unmarshal(data, &amount); err != nil {
		return errors.Wrap(err, "output amount is neither a coin nor a multi-asset value")
	}

	var assets []NativeAsset
	for policy, names := range amount.Mappings {
		for name, quantity := range names {
			assets = append(assets, NativeAsset{
				PolicyId:  HexString(hex.EncodeToString([]byte(policy))),
				AssetName: HexString(hex.EncodeToString([]byte(name))),
				Quantity:  quantity,
			})
		}
	}

	balance, err := NewBalance(amount.Coin, assets...)
	if err != nil {
		return
	}
	*a = OutputAmount(balance)
	return
}

type TransactionOutput struct {
	_       struct{}     `cbor:",toarray"`
	Address HexBytes     `json:"address"`
	Amount  OutputAmount `json:"amount"`
}

type TransactionBody struct {
	Inputs            []TransactionInput  `cbor:"0,keyasint" json:"inputs"`
	Outputs           []TransactionOutput `cbor:"1,keyasint" json:"outputs"`
	Fee               uint64              `cbor:"2,keyasint" json:"fee"`
	Ttl               uint64              `cbor:"3,keyasint,omitempty" json:"ttl,omitempty"`
	AuxiliaryDataHash HexBytes            `cbor:"7,keyasint,omitempty" json:"auxiliaryDataHash,omitempty"`
}

type WitnessSet struct {
	VKeyWitnesses []VKeyWitness `cbor:"0,keyasint,omitempty" json:"vkeyWitnesses,omitempty"`
}

type Transaction struct {
	_             struct{}        `cbor:",toarray"`
	Body          TransactionBody `json:"body"`
	Witness       WitnessSet      `json:"witness"`
	Valid         bool            `json:"valid"`
	AuxiliaryData Metadata        `json:"auxiliaryData,omitempty"`
}

func (t *Transaction) Signed() bool {
	return len(t.Witness.VKeyWitnesses) > 0
}

// TransactionDraft is everything needed to build a transaction body. The
// output paying the fee is named explicitly by FeePayerIndex.
type TransactionDraft struct {
	Inputs        []UnspentOutput `json:"inputs"`
	Outputs       []PendingOutput `json:"outputs"`
	FeePayerIndex int             `json:"feePayerIndex"`
	Fee           uint64          `json:"fee"`
	Ttl           uint64          `json:"ttl"`
	Metadata      Metadata        `json:"metadata,omitempty"`
	Witnesses     []VKeyWitness   `json:"witnesses,omitempty"`
}

func (d *TransactionDraft) FeePayer() (output *PendingOutput, err error) {
	if d.FeePayerIndex < 0 || d.FeePayerIndex >= len(d.Outputs) {
		err = errors.Errorf("fee payer index %d outside %d outputs", d.FeePayerIndex, len(d.Outputs))
		return
	}
	return &d.Outputs[d.FeePayerIndex], nil
}

type LedgerToolkit interface {
	Build(draft *TransactionDraft) (*Transaction, error)
	ComputeFee(tx *Transaction, minFeeA, minFeeB uint64, witnessCount int) (uint64, error)
	SerializeBody(tx *Transaction) ([]byte, error)
	Serialize(tx *Transaction) ([]byte, error)
	Hash(data []byte) HexBytes
}

// CborLedger builds and serialises transactions in the ledger's CBOR
// format, using the linear fee rule minFeeA * size + minFeeB.
type CborLedger struct {
	encoder cbor.EncMode
	decoder cbor.DecMode
}

var _ LedgerToolkit = (*CborLedger)(nil)

func NewCborLedger() *CborLedger {
	return &CborLedger{
		encoder: LedgerCborEncoder,
		decoder: StandardCborDecoder,
	}
}

func (l *CborLedger) Build(draft *TransactionDraft) (tx *Transaction, err error) {
	if len(draft.Inputs) == 0 {
		err = errors.New("transaction needs at least one input")
		return
	}
	if len(draft.Outputs) == 0 {
		err = errors.New("transaction needs at least one output")
		return
	}

	tx = &Transaction{Valid: true}

	for _, utxo := range SortUtxos(draft.Inputs) {
		hash := utxo.TxHash.Bytes()
		if len(hash) != blake2b256Size {
			err = errors.Errorf("input %s has a malformed transaction hash", utxo)
			return
		}
		tx.Body.Inputs = append(tx.Body.Inputs, TransactionInput{
			TxHash: hash,
			Index:  utxo.OutputIndex,
		})
	}

	for _, output := range draft.Outputs {
		addr, err2 := DecodeAnyAddress(output.Address)
		if err2 != nil {
			err = errors.Wrapf(err2, "output address '%s'", output.Address)
			return
		}
		tx.Body.Outputs = append(tx.Body.Outputs, TransactionOutput{
			Address: HexBytes(addr),
			Amount:  OutputAmount(output.Value),
		})
	}

	tx.Body.Fee = draft.Fee
	tx.Body.Ttl = draft.Ttl

	if len(draft.Metadata) > 0 {
		tx.AuxiliaryData = draft.Metadata
		encoded, err2 := l.encoder.Marshal(draft.Metadata)
		if err2 != nil {
			err = errors.Wrap(err2, "failed to encode auxiliary data")
			return
		}
		tx.Body.AuxiliaryDataHash = l.Hash(encoded)
	}

	tx.Witness.VKeyWitnesses = append(tx.Witness.VKeyWitnesses, draft.Witnesses...)

	return
}

// ComputeFee pads the witness set with zeroed witnesses up to witnessCount so
// the fee covers the signed size of the transaction.
func (l *CborLedger) ComputeFee(tx *Transaction, minFeeA, minFeeB uint64, witnessCount int) (fee uint64, err error) {
	sized := *tx
	sized.Witness.VKeyWitnesses = append([]VKeyWitness{}, tx.Witness.VKeyWitnesses...)
	for len(sized.Witness.VKeyWitnesses) < witnessCount {
		sized.Witness.VKeyWitnesses = append(sized.Witness.VKeyWitnesses, VKeyWitness{
			VKey:      make([]byte, 32),
			Signature: make([]byte, 64),
		})
	}

	encoded, err := l.Serialize(&sized)
	if err != nil {
		return
	}

	fee = minFeeA*uint64(len(encoded)) + minFeeB
	return
}

func (l *CborLedger) SerializeBody(tx *Transaction) (data []byte, err error) {
	data, err = l.encoder.Marshal(tx.Body)
	err = errors.Wrap(err, "failed to encode transaction body")
	return
}

func (l *CborLedger) Serialize(tx *Transaction) (data []byte, err error) {
	data, err = l.encoder.Marshal(tx)
	err = errors.Wrap(err, "failed to encode transaction")
	return
}

func (l *CborLedger) Deserialize(data []byte) (tx *Transaction, err error) {
	tx = &Transaction{}
	if err = l.decoder.Unmarshal(data, tx); err != nil {
		err = errors.Wrap(err, "failed to decode transaction")
	}
	return
}

func (l *CborLedger) Hash(data []byte) HexBytes {
	return Blake2bSum256(data)
}

// TransactionId is the blake2b-256 hash of the serialised body.
func TransactionId(ledger LedgerToolkit, tx *Transaction) (id HexBytes, err error) {
	body, err := ledger.SerializeBody(tx)
	if err != nil {
		return
	}
	return ledger.Hash(body), nil
}

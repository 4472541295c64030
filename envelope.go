package cardano

import (
	"context"
	"encoding/json"
	"os"

	"github.com/pkg/errors"
	"github.com/tidwall/gjson"
)

const (
	EnvelopeTypeUnwitnessedTx = "Unwitnessed Tx ConwayEra"
	EnvelopeTypeWitnessedTx   = "Witnessed Tx ConwayEra"
	EnvelopeDescription       = "Ledger Cddl Format"
)

// TextEnvelope is the JSON file format node tooling reads transactions from.
type TextEnvelope struct {
	Type        string    `json:"type"`
	Description string    `json:"description"`
	CborHex     HexString `json:"cborHex"`
}

func NewTransactionEnvelope(cbor []byte, signed bool) *TextEnvelope {
	typ := EnvelopeTypeUnwitnessedTx
	if signed {
		typ = EnvelopeTypeWitnessedTx
	}
	return &TextEnvelope{
		Type:        typ,
		Description: EnvelopeDescription,
		CborHex:     HexBytes(cbor).HexString(),
	}
}

func (e *TextEnvelope) WriteFile(ctx context.Context, path string) (err error) {
	if err = ctx.Err(); err != nil {
		return errors.Wrap(ErrCancelled, err.Error())
	}

	data, err := json.MarshalIndent(e, "", "    ")
	if err != nil {
		return errors.WithStack(err)
	}

	if err = os.WriteFile(path, append(data, '\n'), 0o644); err != nil {
		return errors.Wrapf(err, "failed to write envelope to '%s'", path)
	}

	return
}

func ParseEnvelope(data []byte) (envelope *TextEnvelope, err error) {
	if !gjson.ValidBytes(data) {
		err = errors.New("envelope is not valid json")
		return
	}

	parsed := gjson.ParseBytes(data)
	envelope = &TextEnvelope{
		Type:        parsed.Get("type").String(),
		Description: parsed.Get("description").String(),
		CborHex:     HexString(parsed.Get("cborHex").String()),
	}

	if envelope.Type == "" || envelope.CborHex == "" {
		err = errors.Errorf("envelope is missing its type or cborHex: %s", string(data))
		return
	}
	if !envelope.CborHex.Valid() {
		err = errors.Errorf("envelope cborHex is not hex")
	}
	return
}

func ReadEnvelopeFile(path string) (envelope *TextEnvelope, err error) {
	data, err := os.ReadFile(path)
	if err != nil {
		err = errors.Wrapf(err, "failed to read envelope '%s'", path)
		return
	}
	return ParseEnvelope(data)
}

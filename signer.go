package cardano

import (
	"crypto/ed25519"
	"crypto/sha512"
	"fmt"

	"filippo.io/edwards25519"
	btcbech32 "github.com/btcsuite/btcutil/bech32"
	"github.com/cosmos/cosmos-sdk/types/bech32"
	"github.com/pkg/errors"
)

const (
	extendedSigningKeySize = 64
)

// VKeyWitness is a verification key and its signature over a transaction
// body hash.
type VKeyWitness struct {
	_         struct{} `cbor:",toarray"`
	VKey      HexBytes `json:"vkey"`
	Signature HexBytes `json:"signature"`
}

type Signer interface {
	VerificationKey() []byte
	Sign(payload []byte) (VKeyWitness, error)
}

// SigningKey is either a 32 byte ed25519 seed (ed25519_sk) or a 64 byte
// extended key kL||kR (ed25519e_sk) as produced by hierarchical wallets.
type SigningKey struct {
	prefix   string
	seed     []byte
	extended []byte
	public   ed25519.PublicKey
}

var _ Signer = (*SigningKey)(nil)

func NewSigningKeyFromSeed(seed []byte) (key *SigningKey, err error) {
	if len(seed) != ed25519.SeedSize {
		err = errors.Wrapf(ErrInvalidSigningKey, "expected a %d byte seed, got %d bytes", ed25519.SeedSize, len(seed))
		return
	}

	private := ed25519.NewKeyFromSeed(seed)
	key = &SigningKey{
		prefix: SigningKeyPrefix,
		seed:   append([]byte{}, seed...),
		public: private.Public().(ed25519.PublicKey),
	}
	return
}

func NewExtendedSigningKey(extended []byte) (key *SigningKey, err error) {
	if len(extended) != extendedSigningKeySize {
		err = errors.Wrapf(
			ErrInvalidSigningKey,
			"expected a %d byte extended key, got %d bytes",
			extendedSigningKeySize,
			len(extended))
		return
	}

	scalar, err := extendedScalar(extended[:32])
	if err != nil {
		return
	}

	key = &SigningKey{
		prefix:   ExtendedSigningKeyPrefix,
		extended: append([]byte{}, extended...),
		public:   new(edwards25519.Point).ScalarBaseMult(scalar).Bytes(),
	}
	return
}

// ParseSigningKey decodes a bech32 signing key whose prefix is one of
// allowedPrefixes.
func ParseSigningKey(encoded string, allowedPrefixes []string) (key *SigningKey, err error) {
	prefix, data, err := bech32.DecodeAndConvert(encoded)
	if err != nil {
		err = errors.Wrapf(ErrInvalidSigningKey, "failed to decode bech32 key: %v", err)
		return
	}

	allowed := false
	for _, p := range allowedPrefixes {
		if p == prefix {
			allowed = true
			break
		}
	}
	if !allowed {
		err = errors.Wrapf(ErrInvalidSigningKey, "unsupported key prefix '%s' (expected %v)", prefix, allowedPrefixes)
		return
	}

	switch prefix {
	case SigningKeyPrefix:
		return NewSigningKeyFromSeed(data)
	case ExtendedSigningKeyPrefix:
		return NewExtendedSigningKey(data)
	}

	err = errors.Wrapf(ErrInvalidSigningKey, "no signing scheme for prefix '%s'", prefix)
	return
}

func (k *SigningKey) Prefix() string {
	return k.prefix
}

func (k *SigningKey) VerificationKey() []byte {
	return append([]byte{}, k.public...)
}

// KeyHash is the blake2b-224 hash of the verification key, the payment
// credential of addresses the key controls.
func (k *SigningKey) KeyHash() (hash HexBytes, err error) {
	return Blake2bSum224(k.public)
}

func (k *SigningKey) VerificationKeyBech32() (encoded string, err error) {
	converted, err := btcbech32.ConvertBits(k.public, 8, 5, true)
	if err != nil {
		err = errors.WithStack(err)
		return
	}
	encoded, err = btcbech32.Encode(VerificationKeyPrefix, converted)
	err = errors.WithStack(err)
	return
}

func (k *SigningKey) Bech32String() (encoded string, err error) {
	data := k.seed
	if k.extended != nil {
		data = k.extended
	}
	encoded, err = bech32.ConvertAndEncode(k.prefix, data)
	err = errors.WithStack(err)
	return
}

func (k *SigningKey) Sign(payload []byte) (witness VKeyWitness, err error) {
	var signature []byte
	if k.extended != nil {
		signature, err = signExtended(k.extended, k.public, payload)
		if err != nil {
			return
		}
	} else {
		signature = ed25519.Sign(ed25519.NewKeyFromSeed(k.seed), payload)
	}

	witness = VKeyWitness{
		VKey:      k.VerificationKey(),
		Signature: signature,
	}
	return
}

func (k *SigningKey) String() string {
	return fmt.Sprintf("%s(%x)", k.prefix, k.public)
}

func extendedScalar(kL []byte) (scalar *edwards25519.Scalar, err error) {
	wide := make([]byte, 64)
	copy(wide, kL)
	scalar, err = edwards25519.NewScalar().SetUniformBytes(wide)
	if err != nil {
		err = errors.Wrap(ErrInvalidSigningKey, err.Error())
	}
	return
}

func uniformScalar(parts ...[]byte) (scalar *edwards25519.Scalar, err error) {
	h := sha512.New()
	for _, part := range parts {
		h.Write(part)
	}
	scalar, err = edwards25519.NewScalar().SetUniformBytes(h.Sum(nil))
	err = errors.WithStack(err)
	return
}

// signExtended is RFC 8032 signing with the expanded secret supplied
// directly instead of derived from a seed.
func signExtended(extended, public, message []byte) (signature []byte, err error) {
	a, err := extendedScalar(extended[:32])
	if err != nil {
		return
	}

	r, err := uniformScalar(extended[32:], message)
	if err != nil {
		return
	}
	R := new(edwards25519.Point).ScalarBaseMult(r).Bytes()

	k, err := uniformScalar(R, public, message)
	if err != nil {
		return
	}
	S := edwards25519.NewScalar().MultiplyAdd(k, a, r)

	signature = make([]byte, 0, ed25519.SignatureSize)
	signature = append(signature, R...)
	signature = append(signature, S.Bytes()...)
	return
}

package cardano

import (
	"bytes"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
)

// PaymentRequest is a simple payment as the user asked for it, before any
// validation.
type PaymentRequest struct {
	Network          string  `json:"network"`
	From             string  `json:"from"`
	To               string  `json:"to"`
	Ada              string  `json:"ada,omitempty"`
	Lovelaces        *uint64 `json:"lovelaces,omitempty"`
	SendAll          bool    `json:"sendAll,omitempty"`
	Ttl              *uint64 `json:"ttl,omitempty"`
	MockWitnessCount *int    `json:"mockWitnessCount,omitempty"`
	SigningKey       string  `json:"signingKey,omitempty"`
	Message          string  `json:"message,omitempty"`
	Submit           bool    `json:"submit,omitempty"`
	OutFile          string  `json:"outFile,omitempty"`
}

// ValidationResult collects every violation found in a request, in order.
type ValidationResult struct {
	Violations []string `json:"violations,omitempty"`
}

func (r *ValidationResult) Add(format string, args ...any) {
	r.Violations = append(r.Violations, fmt.Sprintf(format, args...))
}

func (r *ValidationResult) Merge(other ValidationResult) {
	r.Violations = append(r.Violations, other.Violations...)
}

func (r ValidationResult) Valid() bool {
	return len(r.Violations) == 0
}

// Err returns an *OptionsError holding every violation, or nil.
func (r ValidationResult) Err() error {
	if r.Valid() {
		return nil
	}
	return &OptionsError{Violations: append([]string{}, r.Violations...)}
}

// ValidatedPayment is a request that passed validation, with amounts resolved
// to lovelace and the signing key decoded.
type ValidatedPayment struct {
	Network          Network  `json:"network"`
	From             string   `json:"from"`
	To               string   `json:"to"`
	Lovelaces        uint64   `json:"lovelaces,omitempty"`
	SendAll          bool     `json:"sendAll,omitempty"`
	Ttl              uint64   `json:"ttl,omitempty"`
	MockWitnessCount int      `json:"mockWitnessCount,omitempty"`
	Signer           Signer   `json:"-"`
	Message          string   `json:"message,omitempty"`
	Submit           bool     `json:"submit,omitempty"`
	OutFile          string   `json:"outFile,omitempty"`
	Warnings         []string `json:"warnings,omitempty"`
	FromAddress      Address  `json:"-"`
	ToAddress        Address  `json:"-"`
}

// Validate checks the request against cfg without talking to the chain. The
// returned payment is nil whenever the result holds violations.
func (r *PaymentRequest) Validate(cfg PaymentConfig) (payment *ValidatedPayment, result ValidationResult) {
	cfg.setDefaults()

	p := &ValidatedPayment{
		Network: Network(strings.ToLower(strings.TrimSpace(r.Network))),
		From:    strings.TrimSpace(r.From),
		To:      strings.TrimSpace(r.To),
		SendAll: r.SendAll,
		Message: r.Message,
		Submit:  r.Submit,
		OutFile: r.OutFile,
	}

	networkValid := p.Network.Valid()
	if !networkValid {
		result.Add("network '%s' is not one of %s", r.Network, joinNetworks())
	}

	if p.From == "" {
		result.Add("--from address is required")
	} else if networkValid {
		from, err := DecodeAddress(p.From, p.Network)
		if err != nil {
			result.Add("--from address '%s' is not a valid %s shelley address", p.From, p.Network)
		} else if typ, _ := from.Type(); typ == AddressTypeStakeReward || typ == AddressTypeScriptReward {
			result.Add("--from address '%s' is a stake address and cannot hold utxos", p.From)
		} else {
			p.FromAddress = from
		}
	}

	if p.To == "" {
		result.Add("--to address is required")
	} else if networkValid {
		to, err := decodeDestination(p.To, p.Network)
		if err != nil {
			result.Add("--to address '%s' is not a valid %s address", p.To, p.Network)
		} else {
			p.ToAddress = to
		}
	}

	amountSpecs := 0
	if r.Ada != "" {
		amountSpecs++
	}
	if r.Lovelaces != nil {
		amountSpecs++
	}
	if r.SendAll {
		amountSpecs++
	}

	switch {
	case amountSpecs == 0:
		result.Add("one of --ada, --lovelaces or --send-all must be given")
	case amountSpecs > 1:
		result.Add("only one of --ada, --lovelaces or --send-all may be given")
	case r.Ada != "":
		lovelace, err := ParseAda(r.Ada)
		if err != nil {
			result.Add("--ada %v", err)
		}
		p.Lovelaces = lovelace
	case r.Lovelaces != nil:
		if *r.Lovelaces == 0 {
			result.Add("--lovelaces must be greater than zero")
		}
		p.Lovelaces = *r.Lovelaces
	}

	if r.Ttl != nil {
		if *r.Ttl < cfg.ShelleyHardForkSlot {
			result.Add("--ttl %d is before the shelley hard fork slot %d", *r.Ttl, cfg.ShelleyHardForkSlot)
		}
		p.Ttl = *r.Ttl
	}

	if r.MockWitnessCount != nil {
		if *r.MockWitnessCount < 0 {
			result.Add("--mock-witness-count must not be negative, got %d", *r.MockWitnessCount)
		}
		p.MockWitnessCount = *r.MockWitnessCount
	}

	if r.SigningKey != "" {
		key, err := ParseSigningKey(strings.TrimSpace(r.SigningKey), cfg.SigningKeyPrefixes)
		if err != nil {
			result.Add("--signing-key must be a bech32 key with prefix %s", strings.Join(cfg.SigningKeyPrefixes, " or "))
		} else {
			p.Signer = key
			if warning := keyOwnershipWarning(key, p.FromAddress); warning != "" {
				p.Warnings = append(p.Warnings, warning)
			}
		}
	}

	if r.OutFile != "" {
		dir := filepath.Dir(r.OutFile)
		if !DirectoryExists(dir) {
			result.Add("--out-file directory '%s' does not exist", dir)
		}
	}

	if !result.Valid() {
		return nil, result
	}

	return p, result
}

func decodeDestination(address string, network Network) (decoded Address, err error) {
	if isBech32Address(address) {
		decoded, err = DecodeAddress(address, network)
		if err != nil {
			return
		}
		if typ, _ := decoded.Type(); typ == AddressTypeStakeReward || typ == AddressTypeScriptReward {
			err = errors.Wrap(ErrInvalidAddress, "stake addresses cannot receive payments")
		}
		return
	}

	var byron Address
	err = byron.ParseByronString(address)
	return byron, err
}

func keyOwnershipWarning(key *SigningKey, from Address) string {
	if len(from) == 0 {
		return ""
	}
	paymentHash, ok := from.PaymentKeyHash()
	if !ok {
		return ""
	}
	keyHash, err := key.KeyHash()
	if err != nil || bytes.Equal(keyHash, paymentHash) {
		return ""
	}
	return fmt.Sprintf("signing key %x does not control the --from address payment credential %s", key.VerificationKey(), paymentHash)
}

func joinNetworks() string {
	names := make([]string, 0, len(Networks))
	for _, n := range Networks {
		names = append(names, string(n))
	}
	return strings.Join(names, "|")
}

package cardano

const (
	// DefaultTtlOffset is the number of slots past the chain tip a
	// transaction stays valid for when no explicit ttl is requested.
	DefaultTtlOffset uint64 = 7200

	// ShelleyHardForkSlot is the first Shelley slot on mainnet. Explicit
	// ttl values below it are rejected.
	ShelleyHardForkSlot uint64 = 4_492_800

	MessageMetadataLabel    uint64 = 674
	MaxMetadataStringLength        = 64

	SigningKeyPrefix         = "ed25519_sk"
	ExtendedSigningKeyPrefix = "ed25519e_sk"
	VerificationKeyPrefix    = "ed25519_vk"
)

// PaymentConfig carries the constants a payment is assembled and validated
// with. The zero value is usable, every unset field takes its default.
type PaymentConfig struct {
	TtlOffset               uint64        `json:"ttlOffset"`
	ShelleyHardForkSlot     uint64        `json:"shelleyHardForkSlot"`
	MetadataLabel           uint64        `json:"metadataLabel"`
	MaxMetadataStringLength int           `json:"maxMetadataStringLength"`
	SigningKeyPrefixes      []string      `json:"signingKeyPrefixes"`
	MinUtxo                 MinUtxoParams `json:"minUtxo"`
}

func DefaultPaymentConfig() PaymentConfig {
	cfg := PaymentConfig{}
	cfg.setDefaults()
	return cfg
}

func (c *PaymentConfig) setDefaults() {
	if c.TtlOffset == 0 {
		c.TtlOffset = DefaultTtlOffset
	}

	if c.ShelleyHardForkSlot == 0 {
		c.ShelleyHardForkSlot = ShelleyHardForkSlot
	}

	if c.MetadataLabel == 0 {
		c.MetadataLabel = MessageMetadataLabel
	}

	if c.MaxMetadataStringLength <= 0 {
		c.MaxMetadataStringLength = MaxMetadataStringLength
	}

	if len(c.SigningKeyPrefixes) == 0 {
		c.SigningKeyPrefixes = []string{SigningKeyPrefix, ExtendedSigningKeyPrefix}
	}

	c.MinUtxo.setDefaults()
}

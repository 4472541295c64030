package cardano

import (
	"hash/crc32"
	"testing"

	"github.com/fxamacker/cbor/v2"
	"github.com/mr-tron/base58"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAddressHeader_ByteEncoding(t *testing.T) {
	nets := []AddressHeaderNetwork{
		AddressHeaderNetworkMainnet,
		AddressHeaderNetworkTestnet,
	}

	typs := []AddressHeaderType{
		AddressHeaderTypeStakePaymentKeyHash,
		AddressHeaderTypeStakeScriptHash,
		AddressHeaderTypeScriptPaymentKeyHash,
		AddressHeaderTypeScriptScriptHash,
		AddressHeaderTypePointerPaymentKeyHash,
		AddressHeaderTypePointerScriptHash,
		AddressHeaderTypePaymentKeyHash,
		AddressHeaderTypeScriptHash,
		AddressHeaderTypeStakeRewardHash,
		AddressHeaderTypeScriptRewardHash,
	}

	var outputs []byte

	for _, net := range nets {
		for _, typ := range typs {
			hdr := new(AddressHeader)
			hdr.SetType(typ)
			hdr.SetNetwork(net)

			if err := hdr.Validate(); err != nil {
				t.Fatalf("header invalid for net %s, type %v: %+v", net, typ, err)
			}

			for _, o := range outputs {
				if byte(*hdr) == o {
					t.Fatalf("expecting unique byte output for all variations, %08b was duplicated", o)
				}
			}
			outputs = append(outputs, byte(*hdr))
		}
	}
}

func TestAddress_EncodeDecode(t *testing.T) {
	testCases := []struct {
		publicKey     string
		network       Network
		typ           AddressType
		networkHeader AddressHeaderNetwork
		bech32Addr    string
	}{
		{
			publicKey:     "ce13cd433cdcb3dfb00c04e216956aeb622dcd7f282b03304d9fc9de804723b2",
			network:       NetworkPreProd,
			typ:           AddressTypePayment,
			networkHeader: AddressHeaderNetworkTestnet,
			bech32Addr:    "addr_test1vztc80na8320zymhjekl40yjsnxkcvhu58x59mc2fuwvgkc332vxv",
		},
	}

	for _, testCase := range testCases {
		publicBytes := HexString(testCase.publicKey).Bytes()

		addr, err := EncodeAddress(publicBytes, testCase.network, testCase.typ)
		if err != nil {
			t.Fatalf("%+v", err)
		}

		encoded, err := addr.Bech32String(testCase.network)
		if err != nil {
			t.Fatalf("%+v", err)
		}

		if encoded != testCase.bech32Addr {
			t.Fatalf("invalid encoding, expected %s, got %s", testCase.bech32Addr, encoded)
		}

		// decode and validate

		decoded, err := DecodeAddress(encoded, testCase.network)
		if err != nil {
			t.Fatalf("%+v", err)
		}

		typ, err := decoded.Type()
		if err != nil {
			t.Fatalf("%+v", err)
		}

		if typ != testCase.typ {
			t.Fatalf("expected address type %s, got %s", testCase.typ, typ)
		}

		net, err := decoded.Network()
		if err != nil {
			t.Fatalf("%+v", err)
		}

		if net != testCase.networkHeader {
			t.Fatalf("expected header network %s, got %s", testCase.networkHeader, net)
		}

		reencoded, err := decoded.Bech32String(testCase.network)
		if err != nil {
			t.Fatalf("%+v", err)
		}

		if reencoded != testCase.bech32Addr {
			t.Fatalf("invalid decoding, expected %s, got %s", testCase.bech32Addr, reencoded)
		}
	}
}

func TestAddress_ParseBech32String(t *testing.T) {
	testCases := []struct {
		in  string
		net Network
	}{
		{
			in:  "addr1qx2fxv2umyhttkxyxp8x0dlpdt3k6cwng5pxj3jhsydzer3n0d3vllmyqwsx5wktcd8cc3sq835lu7drv2xwl2wywfgse35a3x",
			net: NetworkMainNet,
		}, {
			in:  "addr1z8phkx6acpnf78fuvxn0mkew3l0fd058hzquvz7w36x4gten0d3vllmyqwsx5wktcd8cc3sq835lu7drv2xwl2wywfgs9yc0hh",
			net: NetworkMainNet,
		}, {
			in:  "addr1yx2fxv2umyhttkxyxp8x0dlpdt3k6cwng5pxj3jhsydzerkr0vd4msrxnuwnccdxlhdjar77j6lg0wypcc9uar5d2shs2z78ve",
			net: NetworkMainNet,
		}, {
			in:  "addr1x8phkx6acpnf78fuvxn0mkew3l0fd058hzquvz7w36x4gt7r0vd4msrxnuwnccdxlhdjar77j6lg0wypcc9uar5d2shskhj42g",
			net: NetworkMainNet,
		}, {
			in:  "addr1gx2fxv2umyhttkxyxp8x0dlpdt3k6cwng5pxj3jhsydzer5pnz75xxcrzqf96k",
			net: NetworkMainNet,
		}, {
			in:  "addr128phkx6acpnf78fuvxn0mkew3l0fd058hzquvz7w36x4gtupnz75xxcrtw79hu",
			net: NetworkMainNet,
		}, {
			in:  "addr1vx2fxv2umyhttkxyxp8x0dlpdt3k6cwng5pxj3jhsydzers66hrl8",
			net: NetworkMainNet,
		}, {
			in:  "addr1w8phkx6acpnf78fuvxn0mkew3l0fd058hzquvz7w36x4gtcyjy7wx",
			net: NetworkMainNet,
		}, {
			in:  "stake1uyehkck0lajq8gr28t9uxnuvgcqrc6070x3k9r8048z8y5gh6ffgw",
			net: NetworkMainNet,
		}, {
			in:  "stake178phkx6acpnf78fuvxn0mkew3l0fd058hzquvz7w36x4gtcccycj5",
			net: NetworkMainNet,
		}, {
			in:  "addr_test1qz2fxv2umyhttkxyxp8x0dlpdt3k6cwng5pxj3jhsydzer3n0d3vllmyqwsx5wktcd8cc3sq835lu7drv2xwl2wywfgs68faae",
			net: NetworkPreview,
		}, {
			in:  "addr_test1zrphkx6acpnf78fuvxn0mkew3l0fd058hzquvz7w36x4gten0d3vllmyqwsx5wktcd8cc3sq835lu7drv2xwl2wywfgsxj90mg",
			net: NetworkPreview,
		}, {
			in:  "addr_test1yz2fxv2umyhttkxyxp8x0dlpdt3k6cwng5pxj3jhsydzerkr0vd4msrxnuwnccdxlhdjar77j6lg0wypcc9uar5d2shsf5r8qx",
			net: NetworkPreview,
		}, {
			in:  "addr_test1xrphkx6acpnf78fuvxn0mkew3l0fd058hzquvz7w36x4gt7r0vd4msrxnuwnccdxlhdjar77j6lg0wypcc9uar5d2shs4p04xh",
			net: NetworkPreview,
		}, {
			in:  "addr_test1gz2fxv2umyhttkxyxp8x0dlpdt3k6cwng5pxj3jhsydzer5pnz75xxcrdw5vky",
			net: NetworkPreview,
		}, {
			in:  "addr_test12rphkx6acpnf78fuvxn0mkew3l0fd058hzquvz7w36x4gtupnz75xxcryqrvmw",
			net: NetworkPreview,
		}, {
			in:  "addr_test1vz2fxv2umyhttkxyxp8x0dlpdt3k6cwng5pxj3jhsydzerspjrlsz",
			net: NetworkPreview,
		}, {
			in:  "addr_test1wrphkx6acpnf78fuvxn0mkew3l0fd058hzquvz7w36x4gtcl6szpr",
			net: NetworkPreview,
		}, {
			in:  "stake_test1uqehkck0lajq8gr28t9uxnuvgcqrc6070x3k9r8048z8y5gssrtvn",
			net: NetworkPreview,
		}, {
			in:  "stake_test17rphkx6acpnf78fuvxn0mkew3l0fd058hzquvz7w36x4gtcljw6kf",
			net: NetworkPreview,
		},
	}

	for i, testCase := range testCases {
		addr := &Address{}
		err := addr.ParseBech32String(testCase.in, testCase.net)
		if err != nil {
			t.Fatalf("test case %s (%d) failed: %+v", testCase.in, i, err)
			return
		}
	}
}

func TestAddress_ParseBech32String_WrongNetwork(t *testing.T) {
	_, err := DecodeAddress("addr1vx2fxv2umyhttkxyxp8x0dlpdt3k6cwng5pxj3jhsydzers66hrl8", NetworkPreProd)
	assert.ErrorIs(t, err, ErrInvalidAddress)

	_, err = DecodeAddress("addr_test1vz2fxv2umyhttkxyxp8x0dlpdt3k6cwng5pxj3jhsydzerspjrlsz", NetworkMainNet)
	assert.ErrorIs(t, err, ErrInvalidAddress)

	_, err = DecodeAddress("not-an-address", NetworkMainNet)
	assert.ErrorIs(t, err, ErrInvalidAddress)
}

func TestAddress_PaymentKeyHash(t *testing.T) {
	publicKey := HexString("ce13cd433cdcb3dfb00c04e216956aeb622dcd7f282b03304d9fc9de804723b2").Bytes()

	addr, err := EncodeAddress(publicKey, NetworkMainNet, AddressTypePayment)
	require.NoError(t, err)

	expected, err := Blake2bSum224(publicKey)
	require.NoError(t, err)

	hash, ok := addr.PaymentKeyHash()
	require.True(t, ok)
	assert.Equal(t, HexBytes(expected), hash)

	stake, err := DecodeAddress("stake1uyehkck0lajq8gr28t9uxnuvgcqrc6070x3k9r8048z8y5gh6ffgw", NetworkMainNet)
	require.NoError(t, err)

	_, ok = stake.PaymentKeyHash()
	assert.False(t, ok, "stake addresses carry no payment credential")
}

func byronAddressWithCrc(t *testing.T, crc func(payload []byte) uint32) string {
	t.Helper()

	payload, err := cbor.Marshal([]any{make([]byte, 28), map[uint64]any{}, uint64(0)})
	require.NoError(t, err)

	raw, err := cbor.Marshal([]any{
		cbor.Tag{Number: 24, Content: payload},
		crc(payload),
	})
	require.NoError(t, err)

	return base58.Encode(raw)
}

func byronAddressFixture(t *testing.T) string {
	return byronAddressWithCrc(t, crc32.ChecksumIEEE)
}

func badCrcByronAddressFixture(t *testing.T) string {
	return byronAddressWithCrc(t, func(payload []byte) uint32 {
		return crc32.ChecksumIEEE(payload) ^ 1
	})
}

func TestParseByronString_Invalid(t *testing.T) {
	notTagged, err := cbor.Marshal([]any{"hello", "world"})
	require.NoError(t, err)

	wrongTag, err := cbor.Marshal([]any{cbor.Tag{Number: 121, Content: []byte{1}}, uint64(0)})
	require.NoError(t, err)

	tooLong, err := cbor.Marshal([]any{cbor.Tag{Number: 24, Content: []byte{1}}, uint64(0), uint64(0)})
	require.NoError(t, err)

	testCases := []struct {
		name    string
		encoded string
	}{
		{"bad crc", badCrcByronAddressFixture(t)},
		{"untagged items", base58.Encode(notTagged)},
		{"wrong tag", base58.Encode(wrongTag)},
		{"three items", base58.Encode(tooLong)},
		{"not base58", "0OIl"},
	}

	for _, testCase := range testCases {
		t.Run(testCase.name, func(t *testing.T) {
			addr := &Address{}
			err := addr.ParseByronString(testCase.encoded)
			assert.ErrorIs(t, err, ErrInvalidAddress)
			assert.Empty(t, *addr)

			_, err = DecodeAnyAddress(testCase.encoded)
			assert.ErrorIs(t, err, ErrInvalidAddress)
		})
	}
}

func TestDecodeAnyAddress(t *testing.T) {
	byron := byronAddressFixture(t)

	addr, err := DecodeAnyAddress(byron)
	require.NoError(t, err)
	assert.True(t, addr.IsByron())

	addr, err = DecodeAnyAddress("addr_test1vz2fxv2umyhttkxyxp8x0dlpdt3k6cwng5pxj3jhsydzerspjrlsz")
	require.NoError(t, err)
	assert.False(t, addr.IsByron())

	typ, err := addr.Type()
	require.NoError(t, err)
	assert.Equal(t, AddressTypePayment, typ)

	_, err = DecodeAnyAddress("0OIl")
	assert.ErrorIs(t, err, ErrInvalidAddress, "0, O, I and l are outside the base58 alphabet")
}

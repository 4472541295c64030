package cardano

import "github.com/pkg/errors"

func init() {
	MainNetParams.Name = NetworkMainNet
	MainNetParams.Magic = NetworkMagicMainNet
	MainNetParams.AddressPrefix = "addr"
	MainNetParams.DelegationPrefix = "stake"
	MainNetParams.HeaderNetwork = AddressHeaderNetworkMainnet

	TestNetParams.Name = NetworkTestNet
	TestNetParams.Magic = NetworkMagicLegacyTestnet
	TestNetParams.AddressPrefix = "addr_test"
	TestNetParams.DelegationPrefix = "stake_test"
	TestNetParams.HeaderNetwork = AddressHeaderNetworkTestnet

	PreProdParams.Name = NetworkPreProd
	PreProdParams.Magic = NetworkMagicPreProd
	PreProdParams.AddressPrefix = "addr_test"
	PreProdParams.DelegationPrefix = "stake_test"
	PreProdParams.HeaderNetwork = AddressHeaderNetworkTestnet

	PreviewParams.Name = NetworkPreview
	PreviewParams.Magic = NetworkMagicPreview
	PreviewParams.AddressPrefix = "addr_test"
	PreviewParams.DelegationPrefix = "stake_test"
	PreviewParams.HeaderNetwork = AddressHeaderNetworkTestnet
}

type NetworkParams struct {
	Name             Network
	Magic            NetworkMagic
	AddressPrefix    string
	DelegationPrefix string
	HeaderNetwork    AddressHeaderNetwork
}

var MainNetParams = NetworkParams{}
var TestNetParams = NetworkParams{}
var PreProdParams = NetworkParams{}
var PreviewParams = NetworkParams{}

const (
	NetworkMainNet Network = "mainnet"
	NetworkTestNet Network = "testnet"
	NetworkPreProd Network = "preprod"
	NetworkPreview Network = "preview"
)

var Networks = []Network{
	NetworkMainNet,
	NetworkTestNet,
	NetworkPreProd,
	NetworkPreview,
}

type Network string

func (n Network) Valid() bool {
	for _, known := range Networks {
		if n == known {
			return true
		}
	}
	return false
}

func (n Network) Validate() (err error) {
	if !n.Valid() {
		err = errors.Wrapf(ErrNetworkInvalid, "'%s' (expected mainnet|testnet|preprod|preview)", n)
	}
	return
}

func (n Network) Params() (params *NetworkParams, err error) {
	if err = n.Validate(); err != nil {
		return
	}

	switch n {
	case NetworkMainNet:
		return &MainNetParams, nil
	case NetworkTestNet:
		return &TestNetParams, nil
	case NetworkPreProd:
		return &PreProdParams, nil
	case NetworkPreview:
		return &PreviewParams, nil
	}

	return
}

func (n Network) IsMainNet() bool {
	return n == NetworkMainNet
}

type NetworkMagic uint64

const (
	NetworkMagicMainNet       NetworkMagic = 764824073
	NetworkMagicLegacyTestnet NetworkMagic = 1097911063
	NetworkMagicPreProd       NetworkMagic = 1
	NetworkMagicPreview       NetworkMagic = 2
)

package cardano

import (
	"fmt"
	"math/bits"
	"sort"
	"strings"

	"github.com/pkg/errors"
)

const (
	PolicyIdSize     = 28
	MaxAssetNameSize = 32
	LovelacePerAda   = 1_000_000
)

// AssetId identifies a native token by its minting policy and asset name,
// both hex encoded.
type AssetId struct {
	PolicyId  HexString `json:"policyId"`
	AssetName HexString `json:"assetName"`
}

func (a AssetId) String() string {
	if a.AssetName == "" {
		return a.PolicyId.String()
	}
	return fmt.Sprintf("%s.%s", a.PolicyId, a.AssetName)
}

// Unit is the policy id and asset name concatenated, as chain indexers
// report it.
func (a AssetId) Unit() string {
	return string(a.PolicyId + a.AssetName)
}

func (a AssetId) Less(b AssetId) bool {
	if a.PolicyId != b.PolicyId {
		return a.PolicyId < b.PolicyId
	}
	return a.AssetName < b.AssetName
}

func (a AssetId) normalise() AssetId {
	return AssetId{
		PolicyId:  a.PolicyId.Lower(),
		AssetName: a.AssetName.Lower(),
	}
}

func (a AssetId) Validate() (err error) {
	policySize, err := a.PolicyId.DecodeLength()
	if err != nil {
		return errors.Wrapf(ErrInvalidAssetId, "policy id: %v", err)
	}
	if policySize != PolicyIdSize {
		return errors.Wrapf(ErrInvalidAssetId, "expected a %d byte policy id, got %d bytes", PolicyIdSize, policySize)
	}
	nameSize, err := a.AssetName.DecodeLength()
	if err != nil {
		return errors.Wrapf(ErrInvalidAssetId, "asset name: %v", err)
	}
	if nameSize > MaxAssetNameSize {
		return errors.Wrapf(ErrInvalidAssetId, "asset name exceeds %d bytes", MaxAssetNameSize)
	}
	return
}

// ParseAssetId accepts either "policy.name" or a concatenated unit where the
// first 56 hex characters are the policy id.
func ParseAssetId(s string) (id AssetId, err error) {
	if policy, name, found := strings.Cut(s, "."); found {
		id = AssetId{PolicyId: HexString(policy), AssetName: HexString(name)}
	} else {
		if len(s) < PolicyIdSize*2 {
			err = errors.Wrapf(ErrInvalidAssetId, "'%s' is shorter than a policy id", s)
			return
		}
		id = AssetId{PolicyId: HexString(s[:PolicyIdSize*2]), AssetName: HexString(s[PolicyIdSize*2:])}
	}

	id = id.normalise()
	err = id.Validate()
	return
}

type NativeAsset struct {
	PolicyId  HexString `json:"policyId"`
	AssetName HexString `json:"assetName"`
	Quantity  uint64    `json:"quantity"`
}

func (n NativeAsset) Id() AssetId {
	return AssetId{PolicyId: n.PolicyId, AssetName: n.AssetName}
}

// Balance is a multi-asset value: lovelace plus any number of native token
// quantities. Assets are kept sorted by policy id then asset name and each
// asset appears once. Operations never modify their inputs.
type Balance struct {
	Lovelace uint64        `json:"lovelaces"`
	Assets   []NativeAsset `json:"nativeAssets,omitempty"`
}

func Lovelace(amount uint64) Balance {
	return Balance{Lovelace: amount}
}

// NewBalance builds a normalised balance, merging repeated assets and
// dropping zero quantities.
func NewBalance(lovelace uint64, assets ...NativeAsset) (Balance, error) {
	return Sum(Balance{Lovelace: lovelace, Assets: assets})
}

// Sum adds balances together. The result does not depend on the order of the
// arguments.
func Sum(values ...Balance) (total Balance, err error) {
	quantities := make(map[AssetId]uint64)

	var carry uint64
	for _, value := range values {
		total.Lovelace, carry = bits.Add64(total.Lovelace, value.Lovelace, 0)
		if carry != 0 {
			err = errors.Wrap(ErrValueOverflow, "lovelace")
			return Balance{}, err
		}

		for _, asset := range value.Assets {
			id := asset.Id().normalise()
			quantities[id], carry = bits.Add64(quantities[id], asset.Quantity, 0)
			if carry != 0 {
				err = errors.Wrapf(ErrValueOverflow, "asset %s", id)
				return Balance{}, err
			}
		}
	}

	total.Assets = sortedAssets(quantities)
	return
}

// MustSum is Sum for values known not to overflow.
func MustSum(values ...Balance) Balance {
	total, err := Sum(values...)
	if err != nil {
		panic(err)
	}
	return total
}

// Subtract removes rhs from lhs. Every asset in rhs must be present in lhs in
// at least the same quantity, and lhs must hold at least as much lovelace.
// Assets that reach zero are dropped, assets only in lhs carry through.
func Subtract(lhs, rhs Balance) (result Balance, err error) {
	available := make(map[AssetId]uint64, len(lhs.Assets))
	for _, asset := range lhs.Assets {
		id := asset.Id().normalise()
		// lhs may not be normalised, a saturated add keeps the comparison safe
		sum, carry := bits.Add64(available[id], asset.Quantity, 0)
		if carry != 0 {
			sum = ^uint64(0)
		}
		available[id] = sum
	}

	var shortfalls []AssetShortfall
	required := make(map[AssetId]uint64, len(rhs.Assets))
	for _, asset := range rhs.Assets {
		id := asset.Id().normalise()
		required[id] += asset.Quantity
	}

	for _, id := range sortedIds(required) {
		have, ok := available[id]
		if !ok || have < required[id] {
			shortfalls = append(shortfalls, AssetShortfall{
				Asset:     id,
				Required:  required[id],
				Available: have,
			})
			continue
		}
		available[id] = have - required[id]
	}

	if len(shortfalls) > 0 {
		err = errors.WithStack(&InsufficientAssetsError{Shortfalls: shortfalls})
		return
	}

	if lhs.Lovelace < rhs.Lovelace {
		err = errors.Wrapf(
			ErrInsufficientBalance,
			"cannot subtract %d lovelace from %d lovelace",
			rhs.Lovelace,
			lhs.Lovelace)
		return
	}

	result.Lovelace = lhs.Lovelace - rhs.Lovelace
	result.Assets = sortedAssets(available)
	return
}

func (b Balance) IsZero() bool {
	return b.Lovelace == 0 && len(b.Assets) == 0
}

func (b Balance) Quantity(id AssetId) (quantity uint64) {
	id = id.normalise()
	for _, asset := range b.Assets {
		if asset.Id().normalise() == id {
			quantity += asset.Quantity
		}
	}
	return
}

func (b Balance) AssetIds() []AssetId {
	ids := make([]AssetId, 0, len(b.Assets))
	for _, asset := range b.Assets {
		ids = append(ids, asset.Id())
	}
	return ids
}

func (b Balance) PolicyCount() int {
	policies := make(map[HexString]struct{})
	for _, asset := range b.Assets {
		policies[asset.PolicyId.Lower()] = struct{}{}
	}
	return len(policies)
}

// Equal compares normalised forms, so asset order and hex case do not matter.
func (b Balance) Equal(other Balance) bool {
	left, err := Sum(b)
	if err != nil {
		return false
	}
	right, err := Sum(other)
	if err != nil {
		return false
	}

	if left.Lovelace != right.Lovelace || len(left.Assets) != len(right.Assets) {
		return false
	}
	for i := range left.Assets {
		if left.Assets[i] != right.Assets[i] {
			return false
		}
	}
	return true
}

// WithLovelace returns a copy of the balance holding a different lovelace
// amount.
func (b Balance) WithLovelace(lovelace uint64) Balance {
	assets := make([]NativeAsset, len(b.Assets))
	copy(assets, b.Assets)
	return Balance{Lovelace: lovelace, Assets: assets}
}

func (b Balance) MinUtxoLovelace(params MinUtxoParams) uint64 {
	return MinUtxoLovelace(b.Assets, params)
}

func (b Balance) String() string {
	if len(b.Assets) == 0 {
		return fmt.Sprintf("%d lovelace", b.Lovelace)
	}
	parts := make([]string, 0, len(b.Assets))
	for _, asset := range b.Assets {
		parts = append(parts, fmt.Sprintf("%d %s", asset.Quantity, asset.Id()))
	}
	return fmt.Sprintf("%d lovelace + %s", b.Lovelace, strings.Join(parts, " + "))
}

func sortedIds(quantities map[AssetId]uint64) []AssetId {
	ids := make([]AssetId, 0, len(quantities))
	for id := range quantities {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool {
		return ids[i].Less(ids[j])
	})
	return ids
}

func sortedAssets(quantities map[AssetId]uint64) []NativeAsset {
	var assets []NativeAsset
	for _, id := range sortedIds(quantities) {
		if quantities[id] == 0 {
			continue
		}
		assets = append(assets, NativeAsset{
			PolicyId:  id.PolicyId,
			AssetName: id.AssetName,
			Quantity:  quantities[id],
		})
	}
	return assets
}

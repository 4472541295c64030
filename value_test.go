package cardano

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	policyA = HexString(strings.Repeat("0a", 28))
	policyB = HexString(strings.Repeat("0b", 28))
)

func asset(policy HexString, name string, quantity uint64) NativeAsset {
	return NativeAsset{PolicyId: policy, AssetName: HexString(name), Quantity: quantity}
}

func TestSum(t *testing.T) {
	a := Balance{Lovelace: 5, Assets: []NativeAsset{asset(policyB, "01", 3), asset(policyA, "02", 1)}}
	b := Balance{Lovelace: 7, Assets: []NativeAsset{asset(policyA, "02", 4)}}
	c := Lovelace(1)

	total, err := Sum(a, b, c)
	require.NoError(t, err)

	assert.Equal(t, uint64(13), total.Lovelace)
	assert.Equal(t, []NativeAsset{asset(policyA, "02", 5), asset(policyB, "01", 3)}, total.Assets)

	for _, order := range [][]Balance{{c, b, a}, {b, a, c}, {a, c, b}} {
		reordered, err := Sum(order...)
		require.NoError(t, err)
		assert.Equal(t, total, reordered)
	}

	empty, err := Sum()
	require.NoError(t, err)
	assert.True(t, empty.IsZero())
}

func TestSum_PreservesInputs(t *testing.T) {
	a := Balance{Lovelace: 1, Assets: []NativeAsset{asset(policyB, "01", 3), asset(policyA, "01", 1)}}
	before := append([]NativeAsset{}, a.Assets...)

	_ = MustSum(a, a)
	assert.Equal(t, before, a.Assets)
}

func TestSum_Overflow(t *testing.T) {
	_, err := Sum(Lovelace(^uint64(0)), Lovelace(1))
	assert.ErrorIs(t, err, ErrValueOverflow)

	big := Balance{Assets: []NativeAsset{asset(policyA, "", ^uint64(0))}}
	_, err = Sum(big, big)
	assert.ErrorIs(t, err, ErrValueOverflow)

	assert.Panics(t, func() { MustSum(big, big) })
}

func TestSum_NormalisesHexCase(t *testing.T) {
	upper := HexString(strings.ToUpper(string(policyA)))
	total, err := Sum(
		Balance{Assets: []NativeAsset{asset(upper, "AB", 1)}},
		Balance{Assets: []NativeAsset{asset(policyA, "ab", 2)}},
	)
	require.NoError(t, err)
	require.Len(t, total.Assets, 1)
	assert.Equal(t, uint64(3), total.Assets[0].Quantity)
}

func TestSubtract(t *testing.T) {
	a := Balance{Lovelace: 10, Assets: []NativeAsset{asset(policyA, "01", 5), asset(policyB, "01", 2)}}
	b := Balance{Lovelace: 4, Assets: []NativeAsset{asset(policyA, "01", 5)}}

	result, err := Subtract(a, b)
	require.NoError(t, err)
	assert.Equal(t, uint64(6), result.Lovelace)
	assert.Equal(t, []NativeAsset{asset(policyB, "01", 2)}, result.Assets, "zeroed assets are dropped, lhs-only assets carried")

	roundTrip, err := Subtract(MustSum(a, b), a)
	require.NoError(t, err)
	assert.True(t, roundTrip.Equal(b))

	self, err := Subtract(a, a)
	require.NoError(t, err)
	assert.True(t, self.IsZero())
}

func TestSubtract_InsufficientAssets(t *testing.T) {
	a := Balance{Lovelace: 10, Assets: []NativeAsset{asset(policyA, "01", 5)}}
	b := Balance{Lovelace: 1, Assets: []NativeAsset{asset(policyA, "01", 6), asset(policyB, "02", 1)}}

	_, err := Subtract(a, b)
	assert.ErrorIs(t, err, ErrInsufficientAssets)
	assert.Equal(t, CategoryInsufficientAssets, Classify(err))

	var assetsErr *InsufficientAssetsError
	require.ErrorAs(t, err, &assetsErr)
	require.Len(t, assetsErr.Shortfalls, 2)
	assert.Equal(t, AssetShortfall{
		Asset:     AssetId{PolicyId: policyA, AssetName: "01"},
		Required:  6,
		Available: 5,
	}, assetsErr.Shortfalls[0])
	assert.Equal(t, uint64(0), assetsErr.Shortfalls[1].Available)
}

func TestSubtract_InsufficientLovelace(t *testing.T) {
	_, err := Subtract(Lovelace(1), Lovelace(2))
	assert.ErrorIs(t, err, ErrInsufficientBalance)
	assert.NotErrorIs(t, err, ErrInsufficientAssets)
}

func TestBalance_Helpers(t *testing.T) {
	b, err := NewBalance(3, asset(policyA, "01", 1), asset(policyA, "02", 0), asset(policyB, "01", 2), asset(policyA, "01", 1))
	require.NoError(t, err)

	assert.Len(t, b.Assets, 2)
	assert.Equal(t, uint64(2), b.Quantity(AssetId{PolicyId: policyA, AssetName: "01"}))
	assert.Equal(t, uint64(0), b.Quantity(AssetId{PolicyId: policyA, AssetName: "02"}))
	assert.Equal(t, 2, b.PolicyCount())
	assert.Equal(t, []AssetId{
		{PolicyId: policyA, AssetName: "01"},
		{PolicyId: policyB, AssetName: "01"},
	}, b.AssetIds())

	moved := b.WithLovelace(9)
	moved.Assets[0].Quantity = 100
	assert.Equal(t, uint64(2), b.Assets[0].Quantity)

	assert.False(t, b.IsZero())
	assert.True(t, Balance{}.IsZero())
	assert.False(t, Lovelace(1).IsZero())
	assert.Contains(t, b.String(), "3 lovelace + 2 ")
}

func TestParseAssetId(t *testing.T) {
	id, err := ParseAssetId(string(policyA) + ".CAFE")
	require.NoError(t, err)
	assert.Equal(t, AssetId{PolicyId: policyA, AssetName: "cafe"}, id)
	assert.Equal(t, string(policyA)+"cafe", id.Unit())

	id, err = ParseAssetId(string(policyB) + "cafe")
	require.NoError(t, err)
	assert.Equal(t, AssetId{PolicyId: policyB, AssetName: "cafe"}, id)

	id, err = ParseAssetId(string(policyB))
	require.NoError(t, err)
	assert.Equal(t, string(policyB), id.String())

	for _, in := range []string{"abc", "zz.cafe", string(policyA) + ".xyz", string(policyA) + "." + strings.Repeat("00", 33)} {
		_, err = ParseAssetId(in)
		assert.ErrorIs(t, err, ErrInvalidAssetId, in)
	}
}

package registry_test

import (
	"sync"
	"testing"

	"github.com/scalarorg/lending-bridge/pkg/registry"
	"github.com/scalarorg/lending-bridge/pkg/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var usdc = types.Identity{0xc6, 0xfa, 0x7a, 0xf3}

func TestAddRejectsDuplicates(t *testing.T) {
	r := registry.New()
	entry, err := r.Add(usdc, 6, false)
	require.NoError(t, err)
	require.True(t, entry.IsSupported)

	_, err = r.Add(usdc, 9, false)
	require.ErrorIs(t, err, types.ErrAssetAlreadyExists)

	got, ok := r.Get(usdc)
	require.True(t, ok)
	require.Equal(t, uint8(6), got.Decimals)
}

func TestNativeEntryIsUnique(t *testing.T) {
	r := registry.New()
	_, err := r.Add(types.NativeAsset, 9, true)
	require.NoError(t, err)
	_, err = r.Add(types.Identity{0x06, 0x9b}, 9, true)
	require.ErrorIs(t, err, types.ErrNativeAssetExists)

	// A removed native entry no longer blocks a new one.
	_, err = r.Remove(types.NativeAsset)
	require.NoError(t, err)
	_, err = r.Add(types.Identity{0x06, 0x9b}, 9, true)
	require.NoError(t, err)
}

func TestRemoveIsLogical(t *testing.T) {
	r := registry.New()
	_, err := r.Remove(usdc)
	require.ErrorIs(t, err, types.ErrAssetNotFound)

	_, err = r.Add(usdc, 6, false)
	require.NoError(t, err)
	removed, err := r.Remove(usdc)
	require.NoError(t, err)
	require.False(t, removed.IsSupported)

	got, ok := r.Get(usdc)
	require.True(t, ok)
	require.False(t, got.IsSupported)

	_, err = r.Remove(usdc)
	require.ErrorIs(t, err, types.ErrAssetNotFound)

	readded, err := r.Add(usdc, 8, false)
	require.NoError(t, err)
	require.True(t, readded.IsSupported)
	require.Equal(t, uint8(8), readded.Decimals)
}

func TestIsDepositEligible(t *testing.T) {
	r := registry.New()
	_, err := r.Add(types.NativeAsset, 9, true)
	require.NoError(t, err)
	_, err = r.Add(usdc, 6, false)
	require.NoError(t, err)

	assert.NoError(t, r.IsDepositEligible(types.NativeAsset, types.NativePath))
	assert.NoError(t, r.IsDepositEligible(usdc, types.TokenPath))
	assert.ErrorIs(t, r.IsDepositEligible(usdc, types.NativePath), types.ErrWrongDepositPath)
	assert.ErrorIs(t, r.IsDepositEligible(types.NativeAsset, types.TokenPath), types.ErrWrongDepositPath)
	assert.ErrorIs(t, r.IsDepositEligible(types.Identity{0xff}, types.TokenPath), types.ErrAssetNotSupported)

	_, err = r.Remove(usdc)
	require.NoError(t, err)
	// removed behaves like absent on every path
	assert.ErrorIs(t, r.IsDepositEligible(usdc, types.TokenPath), types.ErrAssetNotSupported)
	assert.ErrorIs(t, r.IsDepositEligible(usdc, types.NativePath), types.ErrAssetNotSupported)
	assert.False(t, r.Eligible(usdc, types.TokenPath))
	assert.True(t, r.Eligible(types.NativeAsset, types.NativePath))
}

func TestListIsOrdered(t *testing.T) {
	r := registry.New()
	ids := []types.Identity{{0x03}, {0x01}, {0x02}}
	for _, id := range ids {
		_, err := r.Add(id, 6, false)
		require.NoError(t, err)
	}
	list := r.List()
	require.Len(t, list, 3)
	for i := 1; i < len(list); i++ {
		require.Negative(t, list[i-1].AssetID.Compare(list[i].AssetID))
	}
}

func TestRestoreReplacesSnapshot(t *testing.T) {
	r := registry.New()
	_, err := r.Add(usdc, 6, false)
	require.NoError(t, err)
	r.Restore([]types.AssetEntry{{AssetID: types.NativeAsset, Decimals: 9, IsNative: true, IsSupported: true}})
	_, ok := r.Get(usdc)
	require.False(t, ok)
	require.True(t, r.Eligible(types.NativeAsset, types.NativePath))
}

func TestConcurrentReadersSeeConsistentEntries(t *testing.T) {
	r := registry.New()
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			id := types.Identity{byte(i + 1)}
			for j := 0; j < 50; j++ {
				_, _ = r.Add(id, 6, false)
				for _, entry := range r.List() {
					assert.Equal(t, uint8(6), entry.Decimals)
				}
				_, _ = r.Remove(id)
			}
		}(i)
	}
	wg.Wait()
	for _, entry := range r.List() {
		require.False(t, entry.IsSupported)
	}
}

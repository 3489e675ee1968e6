package path_test

import (
	"math"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github/chapool/go-hwsigner/internal/ledger"
	"github/chapool/go-hwsigner/internal/ledger/path"
)

const h = path.Hardened

func TestValidate(t *testing.T) {
	require.NoError(t, path.Validate([]uint32{h | 44, h | 60, h | 0, 0, 0}))
	require.NoError(t, path.Validate([]uint32{h | 44, h | 60, h | 255, 1, math.MaxUint32}))

	invalid := map[string][]uint32{
		"empty":              nil,
		"too short":          {h | 44, h | 60, h | 0, 0},
		"too long":           {h | 44, h | 60, h | 0, 0, 0, 0},
		"unhardened purpose": {44, h | 60, h | 0, 0, 0},
		"wrong purpose":      {h | 49, h | 60, h | 0, 0, 0},
		"wrong coin":         {h | 44, h | 1, h | 0, 0, 0},
		"unhardened account": {h | 44, h | 60, 0, 0, 0},
	}
	for name, p := range invalid {
		t.Run(name, func(t *testing.T) {
			err := path.Validate(p)
			require.Error(t, err)
			assert.True(t, errors.Is(err, ledger.ErrValidation))
			assert.True(t, errors.Is(err, ledger.ErrInvalidPath))
		})
	}
}

func TestBuild(t *testing.T) {
	p, err := path.Build(3, 7)
	require.NoError(t, err)
	assert.Equal(t, path.Path{h | 44, h | 60, h | 3, 0, 7}, p)
	assert.Equal(t, "m/44'/60'/3'/0/7", p.String())
	assert.EqualValues(t, 3, p.AccountID())
	assert.EqualValues(t, 7, p.AddressIndex())

	for _, tc := range []struct{ account, index int64 }{
		{-1, 0},
		{256, 0},
		{0, -1},
		{0, math.MaxUint32 + 1},
	} {
		_, err := path.Build(tc.account, tc.index)
		require.Error(t, err, "account %d index %d", tc.account, tc.index)
		assert.True(t, errors.Is(err, ledger.ErrOutOfRange))
	}
}

func TestEncode(t *testing.T) {
	p, err := path.Build(0, 1)
	require.NoError(t, err)

	assert.Equal(t, []byte{
		0x05,
		0x80, 0x00, 0x00, 0x2c,
		0x80, 0x00, 0x00, 0x3c,
		0x80, 0x00, 0x00, 0x00,
		0x00, 0x00, 0x00, 0x00,
		0x00, 0x00, 0x00, 0x01,
	}, path.Encode(p))
}

func TestDecode(t *testing.T) {
	p, err := path.Build(9, 1234)
	require.NoError(t, err)

	decoded, err := path.Decode(path.Encode(p))
	require.NoError(t, err)
	assert.Equal(t, p, decoded)

	_, err = path.Decode(nil)
	assert.True(t, errors.Is(err, ledger.ErrInvalidPath))
	_, err = path.Decode([]byte{0x02, 0x00, 0x00, 0x00, 0x01})
	assert.True(t, errors.Is(err, ledger.ErrInvalidPath))
}

func TestParse(t *testing.T) {
	p, err := path.Parse("m/44'/60'/0'/0/42")
	require.NoError(t, err)
	assert.Equal(t, path.Path{h | 44, h | 60, h | 0, 0, 42}, p)

	p, err = path.Parse("m/44h/60H/2'/1/0")
	require.NoError(t, err)
	assert.Equal(t, path.Path{h | 44, h | 60, h | 2, 1, 0}, p)

	for _, s := range []string{
		"",
		"m",
		"44'/60'/0'/0/0",
		"m/44'/60'/0'/0",
		"m/44'/60'/0/0/0",
		"m/44'/60'/x'/0/0",
		"m/44'/60'/2147483648'/0/0",
		"m/44'/60'/0'/0/4294967296",
	} {
		_, err := path.Parse(s)
		assert.True(t, errors.Is(err, ledger.ErrValidation), "path %q", s)
	}
}

func TestBuildProperties(t *testing.T) {
	properties := gopter.NewProperties(nil)

	properties.Property("built paths validate and encode to 1+4n bytes", prop.ForAll(
		func(account, index int64) bool {
			p, err := path.Build(account, index)
			if err != nil {
				return false
			}
			return path.Validate(p) == nil && len(path.Encode(p)) == 1+4*len(p)
		},
		gen.Int64Range(0, 255),
		gen.Int64Range(0, math.MaxUint32),
	))

	properties.Property("string form parses back", prop.ForAll(
		func(account, index int64) bool {
			p, err := path.Build(account, index)
			if err != nil {
				return false
			}
			parsed, err := path.Parse(p.String())
			return err == nil && parsed.String() == p.String()
		},
		gen.Int64Range(0, 255),
		gen.Int64Range(0, math.MaxUint32),
	))

	properties.TestingRun(t)
}

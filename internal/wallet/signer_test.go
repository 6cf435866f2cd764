package wallet

import (
	"math/big"
	"testing"

	"github.com/99designs/keyring"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Well-known Hardhat/Anvil test account #0. Never fund on mainnet.
const (
	testPrivKeyHex = "ac0974bec39a17e36ba4a6b4d238ff944bacb478cbed5efcae784d7bf4f2ff80"
	testSignerAddr = "0xf39Fd6e51aad88F6F4ce6aB8827279cffFb92266"
)

// testKeystore returns a file-backed Keystore isolated to a temp directory.
// Using the FileBackend avoids OS keychain prompts in CI.
func testKeystore(t *testing.T) *Keystore {
	t.Helper()
	ring, err := keyring.Open(keyring.Config{
		ServiceName:      "tscsale-test",
		AllowedBackends:  []keyring.BackendType{keyring.FileBackend},
		FileDir:          t.TempDir(),
		FilePasswordFunc: func(string) (string, error) { return "testpass", nil },
	})
	require.NoError(t, err)
	return &Keystore{ring: ring}
}

func dynamicTx(chainID int64) *types.Transaction {
	to := common.HexToAddress("0x715d6D1a0879998b3f1b1A490D0c28942aB294ce")
	return types.NewTx(&types.DynamicFeeTx{
		ChainID:   big.NewInt(chainID),
		Nonce:     3,
		GasTipCap: big.NewInt(1e9),
		GasFeeCap: big.NewInt(2e9),
		Gas:       60000,
		To:        &to,
		Value:     big.NewInt(0),
		Data:      []byte{0xd9, 0x6a, 0x09, 0x4a},
	})
}

func TestSignerAddress(t *testing.T) {
	w := &Wallet{Name: "w", Address: testSignerAddr, Type: TypeSigning}
	s := NewSigner(w, NewInMemoryKeystore())
	assert.Equal(t, testSignerAddr, s.Address())
	assert.Equal(t, "w", s.Name())
}

func TestSignTxWatchOnlyError(t *testing.T) {
	w := &Wallet{Name: "watcher", Address: testSignerAddr, Type: TypeWatchOnly}
	s := NewSigner(w, NewInMemoryKeystore())

	_, err := s.SignTx(dynamicTx(97), big.NewInt(97))
	assert.ErrorIs(t, err, ErrWatchOnly)
}

func TestSignTxKeyNotFound(t *testing.T) {
	t.Setenv(KeyEnv, "")
	w := &Wallet{Name: "missing", Address: testSignerAddr, Type: TypeSigning, KeyRef: "tscsale.doesnotexist"}
	s := NewSigner(w, testKeystore(t))

	_, err := s.SignTx(dynamicTx(97), big.NewInt(97))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "retrieving key")
}

func TestSignTxBadKey(t *testing.T) {
	ks := NewInMemoryKeystore()
	ref, _ := ks.Store("bad", "zz")
	w := &Wallet{Name: "bad", Address: testSignerAddr, Type: TypeSigning, KeyRef: ref}

	_, err := NewSigner(w, ks).SignTx(dynamicTx(97), big.NewInt(97))
	assert.ErrorIs(t, err, ErrInvalidKey)
}

func TestSignTxKeyForAnotherAddress(t *testing.T) {
	ks := NewInMemoryKeystore()
	ref, err := ks.Store("main", testPrivKeyHex)
	require.NoError(t, err)
	w := &Wallet{Name: "main", Address: "0x70997970C51812dc3A010C7d01b50e0d17dc79C8", Type: TypeSigning, KeyRef: ref}

	_, err = NewSigner(w, ks).SignTx(dynamicTx(97), big.NewInt(97))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "stored key is for "+testSignerAddr)
}

// countingKeystore counts Retrieve calls.
type countingKeystore struct {
	KeystoreBackend
	retrieved int
}

func (c *countingKeystore) Retrieve(ref string) (string, error) {
	c.retrieved++
	return c.KeystoreBackend.Retrieve(ref)
}

func TestSignerReadsKeyOnce(t *testing.T) {
	ks := &countingKeystore{KeystoreBackend: NewInMemoryKeystore()}
	ref, err := ks.Store("main", "0x"+testPrivKeyHex)
	require.NoError(t, err)
	s := NewSigner(&Wallet{Name: "main", Address: testSignerAddr, Type: TypeSigning, KeyRef: ref}, ks)

	for i := 0; i < 2; i++ {
		_, err := s.SignTx(dynamicTx(97), big.NewInt(97))
		require.NoError(t, err)
	}
	assert.Equal(t, 1, ks.retrieved)
}

func TestSignTxRecoversSender(t *testing.T) {
	ks := NewInMemoryKeystore()
	ref, err := ks.Store("main", testPrivKeyHex)
	require.NoError(t, err)

	w := &Wallet{Name: "main", Address: testSignerAddr, Type: TypeSigning, KeyRef: ref}
	raw, err := NewSigner(w, ks).SignTx(dynamicTx(97), big.NewInt(97))
	require.NoError(t, err)

	var decoded types.Transaction
	require.NoError(t, decoded.UnmarshalBinary(raw))
	assert.Equal(t, uint64(3), decoded.Nonce())

	from, err := types.Sender(types.NewLondonSigner(big.NewInt(97)), &decoded)
	require.NoError(t, err)
	assert.Equal(t, testSignerAddr, from.Hex())
}

func TestSignTxFromFileKeystore(t *testing.T) {
	t.Setenv(KeyEnv, "")
	ks := testKeystore(t)
	ref, err := ks.Store("testwal", testPrivKeyHex)
	require.NoError(t, err)

	w := &Wallet{Name: "testwal", Address: testSignerAddr, Type: TypeSigning, KeyRef: ref}
	raw, err := NewSigner(w, ks).SignTx(dynamicTx(97), big.NewInt(97))
	require.NoError(t, err)
	assert.NotEmpty(t, raw)
}

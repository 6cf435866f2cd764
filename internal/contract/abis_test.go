package contract

import (
	"encoding/hex"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/sha3"
)

func keccakSelector(sig string) string {
	h := sha3.NewLegacyKeccak256()
	h.Write([]byte(sig))
	return hex.EncodeToString(h.Sum(nil)[:4])
}

func TestBuiltinsRegistered(t *testing.T) {
	all := AllBuiltins()
	require.Len(t, all, 2)
	assert.Equal(t, BuiltinERC20, all[0].ID)
	assert.Equal(t, BuiltinBusiness, all[1].ID)

	_, ok := GetBuiltin("nope")
	assert.False(t, ok)
}

func TestBusinessMethodSignatures(t *testing.T) {
	b, ok := GetBuiltin(BuiltinBusiness)
	require.True(t, ok)

	want := map[string]string{
		MethodJoinExpert:        "joinExpert(string,string)",
		MethodAcceptInvitation:  "acceptInvitation(address)",
		MethodBuy:               "buy(uint256)",
		MethodGetExpertSize:     "getExpertSize()",
		MethodGetExpertInfo:     "getExpertInfo()",
		MethodGetInvitationSize: "getInvitationSize(address)",
		MethodGetInvitationInfo: "getInvitationInfo(address)",
		MethodGetBrandSize:      "getBrandSize()",
		MethodGetBrandInfo:      "getBrandInfo()",
	}
	for name, sig := range want {
		m, ok := b.ABI.Methods[name]
		require.True(t, ok, name)
		assert.Equal(t, sig, m.Sig)
		assert.Equal(t, keccakSelector(sig), hex.EncodeToString(m.ID), sig)
	}

	for _, name := range []string{EventJoinExpert, EventAcceptInvitation, EventBuy} {
		_, ok := b.ABI.Events[name]
		assert.True(t, ok, name)
	}
}

func TestERC20Selectors(t *testing.T) {
	b, ok := GetBuiltin(BuiltinERC20)
	require.True(t, ok)

	tests := map[string]string{
		"balanceOf": "70a08231",
		"allowance": "dd62ed3e",
		"approve":   "095ea7b3",
		"decimals":  "313ce567",
	}
	for name, sel := range tests {
		assert.Equal(t, sel, hex.EncodeToString(b.ABI.Methods[name].ID), name)
		assert.Equal(t, sel, keccakSelector(b.ABI.Methods[name].Sig), name)
	}
}

func TestNewHandle(t *testing.T) {
	h, err := NewHandle(testBusiness, BuiltinBusiness)
	require.NoError(t, err)
	assert.Equal(t, testBusiness, h.Address.Hex())

	_, err = NewHandle("0x123", BuiltinBusiness)
	assert.Error(t, err)

	_, err = NewHandle(testBusiness, "missing")
	assert.Error(t, err)
}

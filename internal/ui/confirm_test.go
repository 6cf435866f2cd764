package ui

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/Mohsinsiddi/tscsale/internal/provider"
	"github.com/stretchr/testify/assert"
)

func TestConfirm(t *testing.T) {
	cases := map[string]bool{
		"y\n":     true,
		"YES\n":   true,
		" yes ":   true,
		"n\n":     false,
		"\n":      false,
		"":        false,
		"maybe\n": false,
	}
	for input, want := range cases {
		var out bytes.Buffer
		assert.Equal(t, want, Confirm(strings.NewReader(input), &out, "Continue?"), "input %q", input)
		assert.Contains(t, out.String(), "Continue?")
	}
}

func TestConfirmDanger(t *testing.T) {
	var out bytes.Buffer
	assert.True(t, ConfirmDanger(strings.NewReader("y\n"), &out, "Remove wallet?"))
	assert.Contains(t, out.String(), "Remove wallet?")
}

func TestTerminalApprover(t *testing.T) {
	var out bytes.Buffer
	approve := TerminalApprover(strings.NewReader("y\nn\n"), &out)

	first := approve(context.Background(), provider.Prompt{Method: provider.MethodRequestAccounts, Summary: "Connect account 0xabc"})
	second := approve(context.Background(), provider.Prompt{Method: provider.MethodSendTransaction, Summary: "Send transaction"})

	assert.True(t, first)
	assert.False(t, second)
	assert.Contains(t, out.String(), "Connect account 0xabc")
	assert.Contains(t, out.String(), provider.MethodSendTransaction)
}

func TestTerminalApproverCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	var out bytes.Buffer
	approve := TerminalApprover(strings.NewReader("y\n"), &out)
	assert.False(t, approve(ctx, provider.Prompt{Method: provider.MethodSwitchChain}))
	assert.Empty(t, out.String())
}

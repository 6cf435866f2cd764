package ui

import (
	"testing"

	"github.com/Mohsinsiddi/tscsale/internal/wallet"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func key(s string) tea.KeyMsg {
	switch s {
	case "enter":
		return tea.KeyMsg{Type: tea.KeyEnter}
	case "down":
		return tea.KeyMsg{Type: tea.KeyDown}
	case "esc":
		return tea.KeyMsg{Type: tea.KeyEsc}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func pickerWallets() []*wallet.Wallet {
	return []*wallet.Wallet{
		{Name: "alt", Address: "0x70997970C51812dc3A010C7d01b50e0d17dc79C8", Type: wallet.TypeSigning},
		{Name: "main", Address: "0xf39Fd6e51aad88F6F4ce6aB8827279cffFb92266", Type: wallet.TypeSigning, IsDefault: true},
		{Name: "watch", Address: "0x3C44CdDdB6a900fa2b585dd299e03d12FA4293BC", Type: wallet.TypeWatchOnly},
	}
}

func TestWalletPickerStartsOnDefault(t *testing.T) {
	m := newWalletPicker(pickerWallets())
	assert.Equal(t, 1, m.cursor)
	view := m.View()
	assert.Contains(t, view, "main")
	assert.Contains(t, view, "watch-only")
	assert.Contains(t, view, "default")
}

func TestWalletPickerSelect(t *testing.T) {
	var model tea.Model = newWalletPicker(pickerWallets())
	model, _ = model.Update(key("down"))
	model, _ = model.Update(key("down"))
	model, cmd := model.Update(key("enter"))

	require.NotNil(t, cmd)
	m := model.(walletPickerModel)
	require.NotNil(t, m.selected)
	assert.Equal(t, "watch", m.selected.Name)
}

func TestWalletPickerCancel(t *testing.T) {
	var model tea.Model = newWalletPicker(pickerWallets())
	model, _ = model.Update(key("q"))
	m := model.(walletPickerModel)
	assert.True(t, m.quitting)
	assert.Nil(t, m.selected)
	assert.Empty(t, m.View())
}

func TestPickWalletEmpty(t *testing.T) {
	_, err := PickWallet(nil)
	assert.Error(t, err)
}

package ui

import (
	"fmt"
	"strings"

	"github.com/Mohsinsiddi/tscsale/internal/wallet"
	tea "github.com/charmbracelet/bubbletea"
)

// walletPickerModel is the Bubble Tea model for choosing a stored wallet.
type walletPickerModel struct {
	wallets  []*wallet.Wallet
	cursor   int
	selected *wallet.Wallet
	quitting bool
}

func newWalletPicker(wallets []*wallet.Wallet) walletPickerModel {
	m := walletPickerModel{wallets: wallets}
	for i, w := range wallets {
		if w.IsDefault {
			m.cursor = i
		}
	}
	return m
}

func (m walletPickerModel) Init() tea.Cmd { return nil }

func (m walletPickerModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	key, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}
	switch key.String() {
	case "q", "ctrl+c", "esc":
		m.quitting = true
		return m, tea.Quit
	case "up", "k":
		if m.cursor > 0 {
			m.cursor--
		}
	case "down", "j":
		if m.cursor < len(m.wallets)-1 {
			m.cursor++
		}
	case "enter", " ":
		if len(m.wallets) > 0 {
			m.selected = m.wallets[m.cursor]
			return m, tea.Quit
		}
	}
	return m, nil
}

func (m walletPickerModel) View() string {
	if m.quitting {
		return ""
	}

	var sb strings.Builder
	sb.WriteString("\n" + StyleTitle.Render("  Select the wallet to buy with") + "\n\n")
	for i, w := range m.wallets {
		prefix := "    "
		if i == m.cursor {
			prefix = "  ▸ "
		}
		line := prefix + padR(StyleValue.Render(w.Name), 16) + "  " + StyleMeta.Render(TruncateAddr(w.Address))
		if w.Type == wallet.TypeWatchOnly {
			line += "  " + StyleWarning.Render("watch-only")
		}
		if w.IsDefault {
			line += "  " + StyleSuccess.Render("default")
		}
		if i == m.cursor {
			sb.WriteString(StyleSelected.Render(line) + "\n")
		} else {
			sb.WriteString(line + "\n")
		}
	}
	sb.WriteString("\n" + StyleMeta.Render("  [ ↑↓ / jk ] navigate   [ Enter ] select   [ q ] cancel") + "\n")
	return sb.String()
}

// PickWallet runs an interactive picker and returns the chosen wallet name.
// It returns "" and a nil error when the user cancels.
func PickWallet(wallets []*wallet.Wallet) (string, error) {
	if len(wallets) == 0 {
		return "", fmt.Errorf("no wallets stored")
	}
	final, err := tea.NewProgram(newWalletPicker(wallets), tea.WithAltScreen()).Run()
	if err != nil {
		return "", fmt.Errorf("picker: %w", err)
	}
	fm := final.(walletPickerModel)
	if fm.quitting || fm.selected == nil {
		return "", nil
	}
	return fm.selected.Name, nil
}

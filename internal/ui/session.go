package ui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/Mohsinsiddi/tscsale/internal/chain"
	"github.com/Mohsinsiddi/tscsale/internal/purchase"
	"github.com/Mohsinsiddi/tscsale/internal/wallet"
	tea "github.com/charmbracelet/bubbletea"
)

// SessionActions are the wallet operations the session view can trigger.
type SessionActions interface {
	Connect(ctx context.Context) error
	Disconnect()
	NextAccount(ctx context.Context) error
	EnsureNetwork(ctx context.Context) error
	Refresh(ctx context.Context)
	Buy(ctx context.Context, amount string) error
}

// StateMsg carries a connector state change into the session.
type StateMsg wallet.StateChange

// TransitionMsg carries a purchase state change into the session.
type TransitionMsg purchase.Transition

type actionDoneMsg struct {
	label string
	err   error
}

type sessionTickMsg struct{}

const maxSessionEvents = 8

// SessionModel is the Bubble Tea model for the live connection view.
type SessionModel struct {
	ctx      context.Context
	actions  SessionActions
	network  chain.Network
	tokens   []string
	amount   string
	state    wallet.ConnectionState
	flow     *purchase.Transition
	events   []string
	pending  int
	flash    string
	frame    int
	Quitting bool
}

// NewSessionModel creates the view. tokens fixes the order balances are
// shown in; amount is what b buys ("" disables buying).
func NewSessionModel(ctx context.Context, actions SessionActions, network chain.Network, tokens []string, amount string, initial wallet.ConnectionState) SessionModel {
	return SessionModel{
		ctx:     ctx,
		actions: actions,
		network: network,
		tokens:  tokens,
		amount:  amount,
		state:   initial,
	}
}

func sessionTick() tea.Cmd {
	return tea.Tick(80*time.Millisecond, func(time.Time) tea.Msg { return sessionTickMsg{} })
}

func (m SessionModel) Init() tea.Cmd { return sessionTick() }

func (m SessionModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		m.flash = ""
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			m.Quitting = true
			return m, tea.Quit
		case "c":
			return m.run("connect", m.actions.Connect)
		case "d":
			// the connector notifies subscribers, which Send back into this
			// program, so it must not run inside Update
			return m.run("disconnect", func(context.Context) error {
				m.actions.Disconnect()
				return nil
			})
		case "a":
			return m.run("switch account", m.actions.NextAccount)
		case "n":
			return m.run("switch network", m.actions.EnsureNetwork)
		case "r":
			return m.run("refresh", func(ctx context.Context) error {
				m.actions.Refresh(ctx)
				return nil
			})
		case "b":
			if m.amount == "" {
				m.flash = "start the session with --amount to buy"
				break
			}
			amount := m.amount
			return m.run("buy "+amount, func(ctx context.Context) error { return m.actions.Buy(ctx, amount) })
		}

	case sessionTickMsg:
		m.frame = (m.frame + 1) % len(spinnerFrames)
		return m, sessionTick()

	case StateMsg:
		m.state = msg.State
		m.pushEvent(string(msg.Kind))

	case TransitionMsg:
		t := purchase.Transition(msg)
		m.flow = &t
		line := fmt.Sprintf("purchase %s → %s", t.From, t.To)
		if t.Reason != "" {
			line += " (" + string(t.Reason) + ")"
		}
		m.pushEvent(line)

	case actionDoneMsg:
		if m.pending > 0 {
			m.pending--
		}
		if msg.err != nil {
			m.flash = msg.label + ": " + trimErr(msg.err.Error(), 60)
			m.pushEvent(msg.label + " failed")
		}
	}
	return m, nil
}

func (m SessionModel) run(label string, fn func(context.Context) error) (tea.Model, tea.Cmd) {
	m.pending++
	ctx := m.ctx
	return m, func() tea.Msg {
		return actionDoneMsg{label: label, err: fn(ctx)}
	}
}

func (m *SessionModel) pushEvent(e string) {
	m.events = append(m.events, time.Now().Format("15:04:05")+"  "+e)
	if len(m.events) > maxSessionEvents {
		m.events = m.events[len(m.events)-maxSessionEvents:]
	}
}

func (m SessionModel) View() string {
	if m.Quitting {
		return ""
	}
	var sb strings.Builder
	sb.WriteString(StyleTitle.Render("TSC sale session  ·  "+m.network.DisplayName) + "\n")

	account := StyleMeta.Render("not connected")
	if m.state.Connected() {
		account = Addr(m.state.Address)
	}
	network := StyleMeta.Render("-")
	switch {
	case m.state.ChainID == m.network.ChainID:
		network = ChainName(m.network.DisplayName)
	case m.state.ChainID != 0:
		network = StyleError.Render(fmt.Sprintf("chain %d (wrong network)", m.state.ChainID))
	}

	pairs := [][2]string{
		{"Account", account},
		{"Network", network},
		{m.network.Currency.Symbol, m.state.NativeBalance},
	}
	for _, sym := range m.tokens {
		bal, ok := m.state.TokenBalances[sym]
		if !ok {
			bal = "-"
		}
		pairs = append(pairs, [2]string{sym, bal})
	}
	if m.flow != nil {
		status := string(m.flow.To)
		if m.flow.Reason != "" {
			status += " (" + string(m.flow.Reason) + ")"
		}
		pairs = append(pairs, [2]string{"Purchase", status})
	}
	sb.WriteString(KeyValueBlock("", pairs) + "\n\n")

	if m.pending > 0 {
		sb.WriteString(StyleInfo.Render(spinnerFrames[m.frame]+" waiting for wallet…") + "\n")
	}
	if m.flash != "" {
		sb.WriteString(StyleWarning.Render(m.flash) + "\n")
	}
	for _, e := range m.events {
		sb.WriteString(StyleMeta.Render("  "+e) + "\n")
	}

	sb.WriteString("\n" + sessionControls(m.amount != ""))
	return sb.String()
}

func sessionControls(canBuy bool) string {
	keys := []string{"[ c ] connect", "[ a ] next account", "[ n ] switch network", "[ r ] refresh", "[ d ] disconnect"}
	if canBuy {
		keys = append(keys, "[ b ] buy")
	}
	keys = append(keys, "[ q ] quit")
	return StyleMeta.Render("  "+strings.Join(keys, "   ")) + "\n"
}

// RunSession runs m full screen. wire is called with the program's Send
// before it starts so event sources can feed the view; the returned
// function is called once the program exits. opts are appended to the
// program's defaults.
func RunSession(m SessionModel, wire func(send func(tea.Msg)) (unwire func()), opts ...tea.ProgramOption) error {
	p := tea.NewProgram(m, append([]tea.ProgramOption{tea.WithAltScreen()}, opts...)...)
	unwire := wire(p.Send)
	defer unwire()
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("session: %w", err)
	}
	return nil
}

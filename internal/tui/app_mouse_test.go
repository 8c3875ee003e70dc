package tui

import (
	"testing"

	tea "github.com/charmbracelet/bubbletea"
)

func TestTabAtXMatchesTabWidths(t *testing.T) {
	for active := 0; active < 5; active++ {
		a := App{activeTab: active}
		pos := 0

		for i := 0; i < 5; i++ {
			w := tabWidthForTest(i, active)
			x := pos + w/2 // midpoint inside this tab
			if got := a.tabAtX(x); got != i {
				t.Fatalf("active=%d x=%d -> tab=%d, want %d", active, x, got, i)
			}
			pos += w
			if i < 4 {
				pos++ // separator
			}
		}
		if got := a.tabAtX(pos + 5); got != -1 {
			t.Fatalf("active=%d x past last tab -> %d, want -1", active, got)
		}
	}
}

func tabWidthForTest(tabIdx, activeIdx int) int {
	nameWidths := []int{
		len("Dashboard"),
		len("Spending"),
		len("Payments"),
		len("Budget"),
		len("Settings"),
	}

	w := nameWidths[tabIdx] + 2 // horizontal padding in tab renderer
	if tabIdx != activeIdx && tabIdx == 4 {
		w += 3 // inactive Settings adds "[x]"
	}
	return w
}

func TestWheelScrollsPaymentsOnly(t *testing.T) {
	a := App{restored: true, userID: "u1", activeTab: screenPayments}

	m, _ := a.updateMouse(tea.MouseMsg{Button: tea.MouseButtonWheelDown})
	a = m.(App)
	m, _ = a.updateMouse(tea.MouseMsg{Button: tea.MouseButtonWheelDown})
	a = m.(App)
	if a.payments.scroll != 2 {
		t.Fatalf("scroll = %d, want 2", a.payments.scroll)
	}

	m, _ = a.updateMouse(tea.MouseMsg{Button: tea.MouseButtonWheelUp})
	a = m.(App)
	m, _ = a.updateMouse(tea.MouseMsg{Button: tea.MouseButtonWheelUp})
	a = m.(App)
	m, _ = a.updateMouse(tea.MouseMsg{Button: tea.MouseButtonWheelUp})
	a = m.(App)
	if a.payments.scroll != 0 {
		t.Fatalf("scroll = %d, want 0", a.payments.scroll)
	}

	a.activeTab = screenDashboard
	m, _ = a.updateMouse(tea.MouseMsg{Button: tea.MouseButtonWheelDown})
	if m.(App).payments.scroll != 0 {
		t.Fatal("wheel scrolled payments while another tab was active")
	}
}

func TestMouseIgnoredWhileSignedOut(t *testing.T) {
	a := App{restored: true, activeTab: screenDashboard}
	m, cmd := a.updateMouse(tea.MouseMsg{
		Button: tea.MouseButtonLeft,
		Action: tea.MouseActionPress,
		X:      tabWidthForTest(0, 0) + 2,
	})
	if cmd != nil || m.(App).activeTab != screenDashboard || m.(App).switching {
		t.Fatal("click switched tabs without a session")
	}
}

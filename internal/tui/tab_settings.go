package tui

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/theirongolddev/sgp/internal/cli"
	"github.com/theirongolddev/sgp/internal/config"
	"github.com/theirongolddev/sgp/internal/goalapi"
	"github.com/theirongolddev/sgp/internal/tui/components"
	"github.com/theirongolddev/sgp/internal/tui/theme"
)

const (
	settingsFieldAPIURL = iota
	settingsFieldTheme
	settingsFieldAutoRefresh
	settingsFieldRefreshInterval
	settingsFieldCount // sentinel
)

// settingsState tracks the settings tab state.
type settingsState struct {
	cursor  int
	editing bool
	input   textinput.Model
	saved   bool  // flash "saved" message
	saveErr error // non-nil if last save failed
}

func (a App) updateSettingsKey(key string) (tea.Model, tea.Cmd) {
	switch key {
	case "j", "down":
		a.settings.cursor = min(a.settings.cursor+1, settingsFieldCount-1)
		a.settings.saved = false
	case "k", "up":
		a.settings.cursor = max(a.settings.cursor-1, 0)
		a.settings.saved = false
	case "enter":
		return a.settingsStartEdit()
	}
	return a, nil
}

func (a App) settingsStartEdit() (tea.Model, tea.Cmd) {
	a.settings.editing = true
	a.settings.saved = false

	ti := textinput.New()
	ti.CharLimit = 256
	ti.Width = 50

	switch a.settings.cursor {
	case settingsFieldAPIURL:
		ti.Placeholder = config.DefaultAPIURL
		ti.SetValue(a.cfg.API.BaseURL)
	case settingsFieldTheme:
		ti.Placeholder = strings.Join(theme.Names(), ", ")
		ti.SetValue(theme.Active.Name)
	case settingsFieldAutoRefresh:
		ti.Placeholder = "true or false"
		ti.SetValue(strconv.FormatBool(a.autoRefresh))
	case settingsFieldRefreshInterval:
		ti.Placeholder = fmt.Sprintf("30 (seconds, minimum %d)", minRefreshSec)
		ti.SetValue(strconv.Itoa(int(a.refreshInterval.Seconds())))
	}

	ti.Focus()
	a.settings.input = ti
	return a, textinput.Blink
}

func (a App) updateSettingsInput(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "enter":
		reconnected := a.settingsSave()
		a.settings.editing = false
		a.settings.saved = a.settings.saveErr == nil
		if reconnected {
			load := a.refresh()
			return a, load
		}
		return a, nil
	case "esc":
		a.settings.editing = false
		return a, nil
	}

	var cmd tea.Cmd
	a.settings.input, cmd = a.settings.input.Update(msg)
	return a, cmd
}

// settingsSave applies the edited field and persists the config. It reports
// whether the goals API was reconnected.
func (a *App) settingsSave() bool {
	val := strings.TrimSpace(a.settings.input.Value())
	reconnected := false
	a.settings.saveErr = nil

	switch a.settings.cursor {
	case settingsFieldAPIURL:
		base, err := goalapi.NormalizeBaseURL(val)
		if err != nil {
			a.settings.saveErr = err
			return false
		}
		if a.connect != nil && base != a.cfg.API.BaseURL {
			svc, err := a.connect(base)
			if err != nil {
				a.settings.saveErr = err
				return false
			}
			a.goals = svc
			reconnected = true
		}
		a.cfg.API.BaseURL = base
	case settingsFieldTheme:
		if theme.ByName(val).Name != val {
			a.settings.saveErr = fmt.Errorf("unknown theme %q", val)
			return false
		}
		a.cfg.Appearance.Theme = val
		theme.SetActive(val)
	case settingsFieldAutoRefresh:
		on, err := strconv.ParseBool(val)
		if err != nil {
			a.settings.saveErr = errors.New("auto refresh must be true or false")
			return false
		}
		a.cfg.TUI.AutoRefresh = on
		a.autoRefresh = on
	case settingsFieldRefreshInterval:
		sec, err := strconv.Atoi(val)
		if err != nil || sec < minRefreshSec {
			a.settings.saveErr = fmt.Errorf("refresh interval must be at least %d seconds", minRefreshSec)
			return false
		}
		a.cfg.TUI.RefreshIntervalSec = sec
		a.refreshInterval = time.Duration(sec) * time.Second
	}

	a.settings.saveErr = a.saveCfg(a.cfg)
	return reconnected
}

func (a App) renderSettingsTab(cw int) string {
	t := theme.Active

	labelStyle := lipgloss.NewStyle().Foreground(t.TextMuted)
	valueStyle := lipgloss.NewStyle().Foreground(t.TextPrimary)
	selectedStyle := lipgloss.NewStyle().Foreground(t.TextPrimary).Bold(true)
	selectedLabelStyle := lipgloss.NewStyle().Foreground(t.Accent).Bold(true)
	markerStyle := lipgloss.NewStyle().Foreground(t.AccentBright)

	fields := []struct{ label, value string }{
		{"API Base URL", a.cfg.API.BaseURL},
		{"Theme", theme.Active.Name},
		{"Auto Refresh", strconv.FormatBool(a.autoRefresh)},
		{"Refresh Interval", fmt.Sprintf("%ds", int(a.refreshInterval.Seconds()))},
	}

	var form strings.Builder
	for i, f := range fields {
		switch {
		case a.settings.editing && i == a.settings.cursor:
			form.WriteString(markerStyle.Render("▸ "))
			form.WriteString(selectedLabelStyle.Render(fmt.Sprintf("%-18s ", f.label)))
			form.WriteString(a.settings.input.View())
		case i == a.settings.cursor:
			form.WriteString(markerStyle.Render("▸ "))
			form.WriteString(selectedLabelStyle.Render(fmt.Sprintf("%-18s ", f.label+":")))
			form.WriteString(selectedStyle.Render(f.value))
		default:
			form.WriteString("  ")
			form.WriteString(labelStyle.Render(fmt.Sprintf("%-18s ", f.label+":")))
			form.WriteString(valueStyle.Render(f.value))
		}
		form.WriteString("\n")
	}

	if a.settings.saveErr != nil {
		form.WriteString("\n")
		form.WriteString(lipgloss.NewStyle().Foreground(t.Orange).Render("Save failed: " + a.settings.saveErr.Error()))
	} else if a.settings.saved {
		form.WriteString("\n")
		form.WriteString(lipgloss.NewStyle().Foreground(t.GreenBright).Render("Saved!"))
	}
	form.WriteString("\n")
	form.WriteString(labelStyle.Render("[j/k] navigate  [Enter] edit  [Esc] cancel"))

	lastFetch := "-"
	if !a.state.FetchedAt.IsZero() {
		lastFetch = cli.FormatTimestamp(a.state.FetchedAt)
	}
	history := "off"
	if a.history != nil {
		history = a.cfg.HistoryPath()
	}
	var info strings.Builder
	info.WriteString(labelStyle.Render("Config file:   ") + valueStyle.Render(config.Path()) + "\n")
	info.WriteString(labelStyle.Render("History:       ") + valueStyle.Render(history) + "\n")
	info.WriteString(labelStyle.Render("Goals loaded:  ") + valueStyle.Render(cli.FormatNumber(int64(len(a.state.Goals)))) + "\n")
	info.WriteString(labelStyle.Render("Last fetch:    ") + valueStyle.Render(lastFetch) + "\n")
	info.WriteString(labelStyle.Render("Fetch status:  ") + valueStyle.Render(a.state.Status.String()))

	return components.ContentCard("Settings", form.String(), cw) + "\n" +
		components.ContentCard("General", info.String(), cw)
}

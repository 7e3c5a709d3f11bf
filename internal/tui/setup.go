package tui

import (
	"strings"

	"github.com/charmbracelet/huh"
	"go.uber.org/zap"

	"github.com/theirongolddev/sgp/internal/config"
	"github.com/theirongolddev/sgp/internal/goalapi"
	"github.com/theirongolddev/sgp/internal/logger"
	"github.com/theirongolddev/sgp/internal/tui/theme"
)

// NewSetupForm builds the first-run form for the API base URL and theme.
func NewSetupForm(baseURL, themeName *string) *huh.Form {
	themeOpts := make([]huh.Option[string], 0, len(theme.All))
	for _, t := range theme.All {
		themeOpts = append(themeOpts, huh.NewOption(t.Name, t.Name))
	}

	return huh.NewForm(
		huh.NewGroup(
			huh.NewNote().
				Title("Welcome to sgp").
				Description("Track savings goals from your terminal.\n\nLet's point sgp at your goals API."),
		),
		huh.NewGroup(
			huh.NewInput().
				Title("Goals API base URL").
				Description("Requests go to {base}/goals.").
				Placeholder(config.DefaultAPIURL).
				Value(baseURL).
				Validate(func(s string) error {
					if strings.TrimSpace(s) == "" {
						return nil
					}
					_, err := goalapi.NormalizeBaseURL(s)
					return err
				}),
		),
		huh.NewGroup(
			huh.NewSelect[string]().
				Title("Color theme").
				Options(themeOpts...).
				Value(themeName),
		),
	).WithShowHelp(false)
}

func (a *App) openSetupForm() {
	vals := &formValues{
		baseURL:   a.cfg.API.BaseURL,
		themeName: a.cfg.Appearance.Theme,
	}
	if vals.themeName == "" {
		vals.themeName = theme.Active.Name
	}
	a.formKind = formSetup
	a.formVals = vals
	a.form = NewSetupForm(&vals.baseURL, &vals.themeName)
}

// applySetup saves the setup answers and reconnects when the URL changed.
func (a *App) applySetup(vals *formValues) {
	log := logger.Get()

	base := strings.TrimSpace(vals.baseURL)
	if base == "" {
		base = config.DefaultAPIURL
	}
	if base != a.cfg.API.BaseURL && a.connect != nil {
		svc, err := a.connect(base)
		if err != nil {
			log.Warn("reconnect after setup", zap.String("base_url", base), zap.Error(err))
			a.setNotice("Invalid API URL, keeping "+a.cfg.API.BaseURL, true)
		} else {
			a.goals = svc
			a.cfg.API.BaseURL = base
		}
	} else {
		a.cfg.API.BaseURL = base
	}

	a.cfg.Appearance.Theme = vals.themeName
	theme.SetActive(vals.themeName)

	if err := a.saveCfg(a.cfg); err != nil {
		log.Warn("save config", zap.Error(err))
		a.setNotice("Could not save config; settings apply to this session only", true)
		return
	}
	if !a.noticeErr {
		a.setNotice("Saved "+config.Path(), false)
	}
}

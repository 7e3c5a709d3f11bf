package tui

import (
	"errors"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"

	"github.com/theirongolddev/sgp/internal/model"
)

type formKind int

const (
	formNone formKind = iota
	formSetup
	formCreate
	formEdit
	formDelete
)

func (k formKind) title() string {
	switch k {
	case formSetup:
		return "Welcome to sgp"
	case formCreate:
		return "New goal"
	case formEdit:
		return "Edit goal"
	case formDelete:
		return "Delete goal"
	default:
		return ""
	}
}

// formValues is the heap-allocated target of huh field bindings, so the
// pointers survive App being copied between Update calls.
type formValues struct {
	input   model.GoalInput
	goal    model.Goal // goal being edited or deleted
	confirm bool

	baseURL   string
	themeName string
}

// NewGoalForm builds the create/edit form bound to in. Each field is
// checked with the same rules as GoalInput.Validate.
func NewGoalForm(in *model.GoalInput) *huh.Form {
	categories := make([]string, len(model.Categories))
	for i, c := range model.Categories {
		categories[i] = string(c)
	}
	if in.Category == "" {
		in.Category = categories[0]
	}

	return huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Name").
				Placeholder("Emergency fund").
				Value(&in.Name).
				Validate(fieldValidator(in, model.FieldName)),
			huh.NewInput().
				Title("Target amount").
				Placeholder("5000").
				Value(&in.Target).
				Validate(fieldValidator(in, model.FieldTarget)),
			huh.NewInput().
				Title("Saved amount").
				Placeholder("0").
				Value(&in.Saved).
				Validate(fieldValidator(in, model.FieldSaved)),
			huh.NewSelect[string]().
				Title("Category").
				Options(huh.NewOptions(categories...)...).
				Value(&in.Category).
				Validate(fieldValidator(in, model.FieldCategory)),
			huh.NewInput().
				Title("Deadline").
				Placeholder("YYYY-MM-DD").
				Value(&in.Deadline).
				Validate(fieldValidator(in, model.FieldDeadline)),
		),
	).WithShowHelp(true)
}

// fieldValidator checks one field by validating a copy of in with the
// candidate value substituted.
func fieldValidator(in *model.GoalInput, field string) func(string) error {
	return func(v string) error {
		probe := *in
		switch field {
		case model.FieldName:
			probe.Name = v
		case model.FieldTarget:
			probe.Target = v
		case model.FieldSaved:
			probe.Saved = v
		case model.FieldCategory:
			probe.Category = v
		case model.FieldDeadline:
			probe.Deadline = v
		}
		if msg, ok := probe.Validate()[field]; ok {
			return errors.New(msg)
		}
		return nil
	}
}

// NewDeleteConfirm builds the yes/no prompt shown before deleting.
func NewDeleteConfirm(name string, confirm *bool) *huh.Form {
	return huh.NewForm(
		huh.NewGroup(
			huh.NewConfirm().
				Title(fmt.Sprintf("Delete %q?", name)).
				Description("This cannot be undone.").
				Affirmative("Delete").
				Negative("Cancel").
				Value(confirm),
		),
	)
}

func (a *App) openGoalForm(kind formKind, g model.Goal) tea.Cmd {
	vals := &formValues{goal: g}
	if kind == formEdit {
		vals.input = model.InputFromGoal(g)
	}
	a.formKind = kind
	a.formVals = vals
	a.form = NewGoalForm(&vals.input)
	a.sizeForm()
	return a.form.Init()
}

func (a *App) openDeleteConfirm(g model.Goal) tea.Cmd {
	vals := &formValues{goal: g}
	a.formKind = formDelete
	a.formVals = vals
	a.form = NewDeleteConfirm(g.Name, &vals.confirm)
	a.sizeForm()
	return a.form.Init()
}

func (a *App) sizeForm() {
	if a.width > 0 {
		a.form = a.form.WithWidth(min(a.width, 80)).WithHeight(a.height)
	}
}

func (a *App) closeForm() {
	a.form = nil
	a.formKind = formNone
	a.formVals = nil
}

func (a App) updateForm(msg tea.Msg) (tea.Model, tea.Cmd) {
	if key, ok := msg.(tea.KeyMsg); ok && key.String() == "esc" && a.formKind != formSetup {
		a.closeForm()
		return a, nil
	}

	form, cmd := a.form.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		a.form = f
	}

	switch a.form.State {
	case huh.StateCompleted:
		return a.submitForm()
	case huh.StateAborted:
		kind := a.formKind
		a.closeForm()
		if kind == formSetup {
			// Skipped setup still needs data.
			load := a.refresh()
			return a, load
		}
		return a, nil
	}
	return a, cmd
}

func (a App) submitForm() (tea.Model, tea.Cmd) {
	kind, vals := a.formKind, a.formVals
	a.closeForm()

	switch kind {
	case formSetup:
		a.applySetup(vals)
		load := a.refresh()
		return a, load

	case formCreate, formEdit:
		if errs := vals.input.Validate(); errs != nil {
			a.setNotice(errs.Error(), true)
			return a, nil
		}
		a.busy = true
		if kind == formCreate {
			return a, a.createCmd(vals.input.Draft())
		}
		return a, a.updateCmd(vals.goal, vals.input)

	case formDelete:
		if !vals.confirm {
			return a, nil
		}
		a.busy = true
		return a, a.deleteCmd(vals.goal)
	}
	return a, nil
}

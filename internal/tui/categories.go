package tui

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"
	"github.com/sadopc/tempo/internal/category"
	"github.com/sadopc/tempo/internal/store"
	"github.com/sadopc/tempo/internal/tracker"
)

var categoryColors = []string{category.DefaultColor, "#6C63FF", "#2EC4B6", "#FF6B6B", "#F39C12", "#2ECC71", "#E74C3C", "#9B59B6"}

type categoriesModel struct {
	svc    *tracker.Service
	width  int
	height int

	categories []store.Category
	cursor     int

	formActive bool
	form       *huh.Form

	// Form field pointers (survive value copies)
	formName  *string
	formColor *string
}

func newCategoriesModel(svc *tracker.Service) categoriesModel {
	name, color := "", category.DefaultColor
	return categoriesModel{
		svc:       svc,
		formName:  &name,
		formColor: &color,
	}
}

func (c *categoriesModel) setSize(w, h int) {
	c.width = w
	c.height = h
}

type categoriesDataMsg struct {
	categories []store.Category
}

func (c categoriesModel) refresh() tea.Cmd {
	svc := c.svc
	return func() tea.Msg {
		categories, _ := svc.ListCategories(context.Background())
		return categoriesDataMsg{categories: categories}
	}
}

func (c categoriesModel) update(msg tea.Msg) (categoriesModel, tea.Cmd) {
	if c.formActive && c.form != nil {
		return c.updateForm(msg)
	}

	switch msg := msg.(type) {
	case categoriesDataMsg:
		c.categories = msg.categories
		if c.cursor >= len(c.categories) {
			c.cursor = max(0, len(c.categories)-1)
		}
		return c, nil

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, keys.Up):
			if c.cursor > 0 {
				c.cursor--
			}
		case key.Matches(msg, keys.Down):
			if c.cursor < len(c.categories)-1 {
				c.cursor++
			}
		case key.Matches(msg, keys.Enter):
			if len(c.categories) > 0 {
				selected := c.categories[c.cursor]
				c.svc.Categories().Select(selected.ID)
				return c, status("Selected "+selected.Name, false)
			}
		case key.Matches(msg, keys.New):
			return c.showNewCategoryForm()
		}
	}
	return c, nil
}

func (c categoriesModel) showNewCategoryForm() (categoriesModel, tea.Cmd) {
	*c.formName = ""
	*c.formColor = category.DefaultColor

	colorOptions := make([]huh.Option[string], len(categoryColors))
	for i, col := range categoryColors {
		colorOptions[i] = huh.NewOption(fmt.Sprintf("● %s", col), col)
	}

	c.form = huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Category Name").
				Value(c.formName).
				Validate(func(s string) error {
					if strings.TrimSpace(s) == "" {
						return errors.New("name is required")
					}
					return nil
				}),
			huh.NewSelect[string]().Title("Color").Options(colorOptions...).Value(c.formColor),
		),
	).WithShowHelp(true).WithShowErrors(true)

	c.formActive = true
	return c, c.form.Init()
}

func (c categoriesModel) updateForm(msg tea.Msg) (categoriesModel, tea.Cmd) {
	if msg, ok := msg.(tea.KeyMsg); ok {
		if msg.String() == "esc" {
			c.formActive = false
			c.form = nil
			return c, nil
		}
	}

	form, cmd := c.form.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		c.form = f
	}

	if c.form.State == huh.StateCompleted {
		c.formActive = false
		c.form = nil
		return c.create(*c.formName, *c.formColor)
	}

	return c, cmd
}

func (c categoriesModel) create(name, color string) (categoriesModel, tea.Cmd) {
	created, err := c.svc.CreateCategory(context.Background(), name, color)
	switch {
	case errors.Is(err, category.ErrDuplicateCategory):
		return c, status(fmt.Sprintf("A category named %q already exists", strings.TrimSpace(name)), true)
	case errors.Is(err, category.ErrEmptyName), errors.Is(err, category.ErrInvalidColor):
		return c, status(err.Error(), true)
	case err != nil:
		// The service already raised a storage warning.
		return c, c.refresh()
	}
	return c, tea.Batch(status("Created "+created.Name, false), c.refresh())
}

func (c categoriesModel) view() string {
	w := c.width - 4

	if c.formActive && c.form != nil {
		title := titleStyle.Render("New Category")
		content := lipgloss.JoinVertical(lipgloss.Left, title, "", c.form.View())
		return panelStyle.Width(w).Render(content)
	}

	title := titleStyle.Render("Categories")

	if len(c.categories) == 0 {
		content := lipgloss.JoinVertical(lipgloss.Left,
			title,
			"",
			mutedStyle.Render("No categories yet. Press n to create one."),
		)
		return panelStyle.Width(w).Render(content)
	}

	selectedID := c.svc.Categories().SelectedID()

	var rows []string
	rows = append(rows, title)
	rows = append(rows, "")
	rows = append(rows, mutedStyle.Render(fmt.Sprintf("  %-3s %-24s %-10s", "", "Name", "Color")))

	for i, cat := range c.categories {
		cursor := "  "
		style := normalItemStyle
		if i == c.cursor {
			cursor = "> "
			style = selectedItemStyle
		}
		mark := ""
		if cat.ID == selectedID {
			mark = successStyle.Render(" ✓")
		}
		row := style.Render(cursor) + colorDot(cat.Color) + style.Render(fmt.Sprintf(" %-24s %-10s", cat.Name, cat.Color)) + mark
		rows = append(rows, row)
	}

	rows = append(rows, "")
	rows = append(rows, mutedStyle.Render("  n: new  enter: select for next session"))

	return panelStyle.Width(w).Render(strings.Join(rows, "\n"))
}

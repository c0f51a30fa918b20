// Package cli реализует административную консоль usersctl поверх pkg/client.
package cli

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

var (
	colorPrimary = lipgloss.Color("#2196F3")
	colorAdmin   = lipgloss.Color("#7E57C2")
	colorSuccess = lipgloss.Color("#8BC34A")
	colorWarning = lipgloss.Color("#FFC107")
	colorDanger  = lipgloss.Color("#E53935")
	colorMuted   = lipgloss.Color("#9E9E9E")
	colorText    = lipgloss.Color("#FFFFFF")
)

type Styles struct {
	renderer *lipgloss.Renderer

	Title   lipgloss.Style
	Label   lipgloss.Style
	Muted   lipgloss.Style
	Error   lipgloss.Style
	Success lipgloss.Style
	Card    lipgloss.Style
}

// NewStyles привязывает стили к renderer, чтобы цвета определялись по реальному выводу
func NewStyles(r *lipgloss.Renderer) Styles {
	if r == nil {
		r = lipgloss.DefaultRenderer()
	}
	return Styles{
		renderer: r,
		Title:    r.NewStyle().Bold(true).Foreground(colorPrimary),
		Label:    r.NewStyle().Bold(true),
		Muted:    r.NewStyle().Foreground(colorMuted),
		Error:    r.NewStyle().Foreground(colorDanger),
		Success:  r.NewStyle().Foreground(colorSuccess),
		Card: r.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(colorMuted).
			Padding(0, 1),
	}
}

func (s Styles) Renderer() *lipgloss.Renderer {
	return s.renderer
}

func (s Styles) badge(bg lipgloss.Color, text string) string {
	return s.renderer.NewStyle().
		Background(bg).
		Foreground(colorText).
		Padding(0, 1).
		Render(text)
}

func (s Styles) RoleBadge(role string) string {
	switch role {
	case "admin":
		return s.badge(colorAdmin, role)
	case "user":
		return s.badge(colorPrimary, role)
	default:
		return s.badge(colorMuted, role)
	}
}

func (s Styles) StatusBadge(status string) string {
	switch status {
	case "active":
		return s.badge(colorSuccess, status)
	case "inactive":
		return s.badge(colorMuted, status)
	case "pending":
		return s.badge(colorWarning, status)
	default:
		return s.badge(colorMuted, status)
	}
}

// RenderCard заголовок и тело в рамке, заголовок необязателен
func (s Styles) RenderCard(title, body string) string {
	if title != "" {
		body = s.Title.Render(title) + "\n\n" + body
	}
	return s.Card.Render(strings.TrimRight(body, "\n"))
}

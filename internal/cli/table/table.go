// Package table рендерит таблицы для терминала.
// Таблица всегда находится ровно в одном состоянии: загрузка, пусто или строки данных.
package table

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

type State int

const (
	StateRows State = iota
	StateLoading
	StateEmpty
)

const (
	DefaultLoadingText = "Загрузка..."
	DefaultEmptyText   = "Нет данных"
)

// Keyed строка, умеющая отдать значение по ключу колонки.
// Используется, когда у колонки нет собственного Render.
type Keyed interface {
	Field(key string) string
}

type Column[T any] struct {
	Key    string
	Title  string
	Render func(row T) string
	// Width фиксированная ширина колонки, 0 означает по содержимому
	Width int
}

type Table[T any] struct {
	Columns     []Column[T]
	Rows        []T
	Loading     bool
	LoadingText string
	EmptyText   string

	renderer *lipgloss.Renderer
}

func New[T any](r *lipgloss.Renderer, columns ...Column[T]) *Table[T] {
	if r == nil {
		r = lipgloss.DefaultRenderer()
	}
	return &Table[T]{Columns: columns, renderer: r}
}

func (t *Table[T]) State() State {
	switch {
	case t.Loading:
		return StateLoading
	case len(t.Rows) == 0:
		return StateEmpty
	default:
		return StateRows
	}
}

func (t *Table[T]) cell(c Column[T], row T) string {
	if c.Render != nil {
		return c.Render(row)
	}
	if k, ok := any(row).(Keyed); ok {
		return k.Field(c.Key)
	}
	return ""
}

func (t *Table[T]) widths(cells [][]string) []int {
	widths := make([]int, len(t.Columns))
	for i, c := range t.Columns {
		if c.Width > 0 {
			widths[i] = c.Width
			continue
		}
		widths[i] = lipgloss.Width(c.Title)
		for _, row := range cells {
			if w := lipgloss.Width(row[i]); w > widths[i] {
				widths[i] = w
			}
		}
	}
	return widths
}

func (t *Table[T]) Render() string {
	var cells [][]string
	if t.State() == StateRows {
		cells = make([][]string, 0, len(t.Rows))
		for _, row := range t.Rows {
			line := make([]string, len(t.Columns))
			for i, c := range t.Columns {
				line[i] = t.cell(c, row)
			}
			cells = append(cells, line)
		}
	}

	widths := t.widths(cells)
	header := t.renderer.NewStyle().Bold(true).Padding(0, 1)
	body := t.renderer.NewStyle().Padding(0, 1)
	muted := t.renderer.NewStyle().Faint(true)
	sep := muted.Render("│")

	total := max(len(widths)-1, 0)
	for _, w := range widths {
		total += w + 2
	}

	var sb strings.Builder

	titles := make([]string, len(t.Columns))
	for i, c := range t.Columns {
		titles[i] = header.Width(widths[i] + 2).Render(truncate(c.Title, widths[i]))
	}
	sb.WriteString(strings.Join(titles, sep))
	sb.WriteString("\n")
	sb.WriteString(muted.Render(strings.Repeat("─", total)))
	sb.WriteString("\n")

	switch t.State() {
	case StateLoading:
		sb.WriteString(placeholder(body, total, orDefault(t.LoadingText, DefaultLoadingText)))
	case StateEmpty:
		sb.WriteString(placeholder(body, total, orDefault(t.EmptyText, DefaultEmptyText)))
	default:
		for _, line := range cells {
			out := make([]string, len(line))
			for i, v := range line {
				out[i] = body.Width(widths[i] + 2).Render(truncate(v, widths[i]))
			}
			sb.WriteString(strings.Join(out, sep))
			sb.WriteString("\n")
		}
	}

	return sb.String()
}

// placeholder одна строка на всю ширину таблицы
func placeholder(style lipgloss.Style, width int, text string) string {
	width = max(width, lipgloss.Width(text)+2)
	return style.Width(width).Align(lipgloss.Center).Render(text) + "\n"
}

func orDefault(s, def string) string {
	if s == "" {
		return def
	}
	return s
}

// truncate обрезает простой текст до width символов.
// Стилизованные значения сюда попадают только в колонках без фиксированной ширины.
func truncate(s string, width int) string {
	if lipgloss.Width(s) <= width {
		return s
	}
	r := []rune(s)
	if width <= 1 || len(r) <= width {
		return string(r[:min(width, len(r))])
	}
	return string(r[:width-1]) + "…"
}

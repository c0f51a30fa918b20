package cli

import (
	"fmt"
	"sort"
	"strings"
	"time"
	"usermanager/internal/cli/table"
	"usermanager/pkg/client"
)

const dateLayout = "2006-01-02"

func (s Styles) UsersTable(users []client.User, loading bool) *table.Table[client.User] {
	t := table.New(s.renderer,
		table.Column[client.User]{Key: "name", Title: "Имя", Render: func(u client.User) string { return u.Name }},
		table.Column[client.User]{Key: "email", Title: "Email", Render: func(u client.User) string { return u.Email }},
		table.Column[client.User]{Key: "role", Title: "Роль", Render: func(u client.User) string { return s.RoleBadge(u.Role) }},
		table.Column[client.User]{Key: "status", Title: "Статус", Render: func(u client.User) string { return s.StatusBadge(u.Status) }},
		table.Column[client.User]{Key: "created_at", Title: "Создан", Width: len(dateLayout), Render: func(u client.User) string {
			return formatDate(u.CreatedAt)
		}},
	)
	t.Rows = users
	t.Loading = loading
	t.EmptyText = "Пользователи не найдены"
	return t
}

func (s Styles) RenderUserList(list client.UserList) string {
	var sb strings.Builder
	sb.WriteString(s.UsersTable(list.Users, false).Render())

	p := list.Pagination
	sb.WriteString(s.Muted.Render(fmt.Sprintf("Страница %d из %d, всего %d", p.Page, max(p.TotalPages, 1), p.Total)))
	sb.WriteString("\n")
	return sb.String()
}

func (s Styles) RenderUser(u client.User) string {
	lines := []string{
		s.Label.Render("ID") + ": " + u.ID,
		s.Label.Render("Email") + ": " + u.Email,
		s.Label.Render("Роль") + ": " + s.RoleBadge(u.Role),
		s.Label.Render("Статус") + ": " + s.StatusBadge(u.Status),
		s.Label.Render("Создан") + ": " + formatDate(u.CreatedAt),
	}
	if u.LastLoginAt != nil {
		lines = append(lines, s.Label.Render("Последний вход")+": "+u.LastLoginAt.Format(time.RFC3339))
	}
	if p := u.Profile; p != nil {
		if p.Bio != nil {
			lines = append(lines, s.Label.Render("О себе")+": "+*p.Bio)
		}
		if p.Location != nil {
			lines = append(lines, s.Label.Render("Город")+": "+*p.Location)
		}
		if p.AvatarURL != nil {
			lines = append(lines, s.Label.Render("Аватар")+": "+*p.AvatarURL)
		}
	}
	return s.RenderCard(u.Name, strings.Join(lines, "\n")) + "\n"
}

func (s Styles) RenderDashboard(stats client.UserStats) string {
	lines := []string{
		s.Label.Render("Всего пользователей") + ": " + fmt.Sprint(stats.Total),
		s.Label.Render("Новых за неделю") + ": " + fmt.Sprint(stats.NewLastWeek),
		"",
		s.Label.Render("По ролям"),
	}
	for _, k := range sortedKeys(stats.ByRole) {
		lines = append(lines, "  "+s.RoleBadge(k)+" "+fmt.Sprint(stats.ByRole[k]))
	}
	lines = append(lines, "", s.Label.Render("По статусам"))
	for _, k := range sortedKeys(stats.ByStatus) {
		lines = append(lines, "  "+s.StatusBadge(k)+" "+fmt.Sprint(stats.ByStatus[k]))
	}
	return s.RenderCard("Панель управления", strings.Join(lines, "\n")) + "\n"
}

func formatDate(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.Format(dateLayout)
}

func sortedKeys(m map[string]int) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

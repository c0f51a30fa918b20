package cli

import (
	"errors"
	"fmt"
	"usermanager/pkg/client"

	"github.com/spf13/cobra"
)

// ErrInvalidForm форма не прошла проверку, ошибки полей уже выведены
var ErrInvalidForm = errors.New("форма заполнена с ошибками")

func (a *app) usersCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "users",
		Short: "Управление пользователями",
	}
	cmd.AddCommand(
		a.usersListCmd(),
		a.usersGetCmd(),
		a.usersCreateCmd(),
		a.usersUpdateCmd(),
		a.usersDeleteCmd(),
	)
	return cmd
}

func (a *app) usersListCmd() *cobra.Command {
	var params client.ListParams

	cmd := &cobra.Command{
		Use:   "list",
		Short: "Список пользователей",
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.printList(cmd, params)
		},
	}
	cmd.Flags().StringVar(&params.Search, "search", "", "Поиск по имени или email")
	cmd.Flags().StringVar(&params.Role, "role", "", "Фильтр по роли (admin, user)")
	cmd.Flags().StringVar(&params.Status, "status", "", "Фильтр по статусу (active, inactive, pending)")
	cmd.Flags().IntVar(&params.Page, "page", 0, "Номер страницы")
	cmd.Flags().IntVar(&params.Limit, "limit", 0, "Размер страницы, не больше 100")
	return cmd
}

// printList повторно запрашивает список, вызывается и после изменений
func (a *app) printList(cmd *cobra.Command, params client.ListParams) error {
	ctx, cancel := a.ctx(cmd)
	defer cancel()

	list, err := a.client.Users.List(ctx, params)
	if err != nil {
		return err
	}
	a.print(a.styles.RenderUserList(list.Data))
	return nil
}

func (a *app) usersGetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "get <id>",
		Short: "Пользователь по id",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := a.ctx(cmd)
			defer cancel()

			user, err := a.client.Users.Get(ctx, args[0])
			if err != nil {
				return err
			}
			a.print(a.styles.RenderUser(user.Data))
			return nil
		},
	}
}

func (a *app) usersCreateCmd() *cobra.Command {
	var name, email, password, role string
	var showList bool

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Создать пользователя",
		RunE: func(cmd *cobra.Command, args []string) error {
			form := NewCreateUserForm(name, email, password, role)
			if !form.Validate() {
				a.print(a.styles.RenderForm(form) + "\n")
				return ErrInvalidForm
			}

			ctx, cancel := a.ctx(cmd)
			defer cancel()

			user, err := a.client.Users.Create(ctx, client.CreateUserInput{
				Name:     form.Value("name"),
				Email:    form.Value("email"),
				Password: form.Value("password"),
				Role:     form.Value("role"),
			})
			if err != nil {
				var apiErr *client.APIError
				if errors.As(err, &apiErr) {
					if fields := apiErr.FieldErrors(); len(fields) > 0 {
						rest := form.ApplyErrors(fields)
						a.print(a.styles.RenderForm(form) + "\n")
						if len(rest) > 0 {
							a.print(a.styles.RenderErrors(rest) + "\n")
						}
					}
				}
				return err
			}

			a.print(a.styles.Success.Render(user.Message) + "\n")
			a.print(a.styles.RenderUser(user.Data))
			if showList {
				return a.printList(cmd, client.ListParams{})
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&name, "name", "", "Имя")
	cmd.Flags().StringVar(&email, "email", "", "Email")
	cmd.Flags().StringVar(&password, "password", "", "Пароль, не короче 8 символов")
	cmd.Flags().StringVar(&role, "role", "", "Роль (admin, user)")
	cmd.Flags().BoolVar(&showList, "show-list", false, "Показать обновленный список")
	return cmd
}

func (a *app) usersUpdateCmd() *cobra.Command {
	var showList bool

	cmd := &cobra.Command{
		Use:   "update <id>",
		Short: "Изменить пользователя",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var in client.UpdateUserInput
			in.Name = changed(cmd, "name")
			in.Role = changed(cmd, "role")
			in.Status = changed(cmd, "status")
			if in.Name == nil && in.Role == nil && in.Status == nil {
				return errors.New("укажите хотя бы один из флагов --name, --role, --status")
			}

			ctx, cancel := a.ctx(cmd)
			defer cancel()

			user, err := a.client.Users.Update(ctx, args[0], in)
			if err != nil {
				return err
			}

			a.print(a.styles.Success.Render(user.Message) + "\n")
			a.print(a.styles.RenderUser(user.Data))
			if showList {
				return a.printList(cmd, client.ListParams{})
			}
			return nil
		},
	}
	cmd.Flags().String("name", "", "Новое имя")
	cmd.Flags().String("role", "", "Новая роль")
	cmd.Flags().String("status", "", "Новый статус")
	cmd.Flags().BoolVar(&showList, "show-list", false, "Показать обновленный список")
	return cmd
}

func (a *app) usersDeleteCmd() *cobra.Command {
	var showList bool

	cmd := &cobra.Command{
		Use:   "delete <id>",
		Short: "Удалить пользователя",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := a.ctx(cmd)
			defer cancel()

			result, err := a.client.Users.Delete(ctx, args[0])
			if err != nil {
				return err
			}

			a.print(a.styles.Success.Render(fmt.Sprintf("Пользователь %s удален %s", result.Data.ID, formatDate(result.Data.DeletedAt))) + "\n")
			if showList {
				return a.printList(cmd, client.ListParams{})
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&showList, "show-list", false, "Показать обновленный список")
	return cmd
}

// changed значение строкового флага, если он был указан
func changed(cmd *cobra.Command, name string) *string {
	f := cmd.Flags().Lookup(name)
	if f == nil || !f.Changed {
		return nil
	}
	v := f.Value.String()
	return &v
}

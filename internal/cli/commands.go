package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"
	"usermanager/pkg/client"
	"usermanager/pkg/logger"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"
)

type app struct {
	envFile string
	verbose bool

	client *client.APIClient
	styles Styles
	out    io.Writer
}

// NewRootCmd дерево команд usersctl
func NewRootCmd() *cobra.Command {
	a := &app{}

	root := &cobra.Command{
		Use:   "usersctl",
		Short: "Администрирование пользователей через REST API",
		Long: `usersctl работает с API управления пользователями.

Адрес API и учетные данные берутся из флагов, затем из окружения
(USERSCTL_API_URL, USERSCTL_TOKEN, USERSCTL_API_KEY, USERSCTL_TIMEOUT),
затем из .env файла.`,
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: a.setup,
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if a.client != nil {
				a.client.Close()
			}
		},
	}

	flags := root.PersistentFlags()
	flags.String("api-url", DefaultAPIURL, "Базовый URL API")
	flags.String("token", "", "Bearer токен")
	flags.String("api-key", "", "Сервисный API ключ")
	flags.Duration("timeout", client.DefaultTimeout, "Таймаут запроса")
	flags.StringVar(&a.envFile, "env-file", ".env", "Путь к .env файлу")
	flags.BoolVarP(&a.verbose, "verbose", "v", false, "Логировать запросы в stderr")

	root.AddCommand(
		a.loginCmd(),
		a.dashboardCmd(),
		a.usersCmd(),
		a.profileCmd(),
	)
	return root
}

func (a *app) setup(cmd *cobra.Command, args []string) error {
	cfg, err := LoadConfig(cmd, a.envFile)
	if err != nil {
		return err
	}

	level := logger.AppLoggerLevelWarn
	if a.verbose {
		level = logger.AppLoggerLevelDebug
	}

	opts := []client.Option{
		client.WithTimeout(cfg.Timeout),
		client.WithLogger(logger.NewWithWriter(level, cmd.ErrOrStderr(), "usersctl")),
	}
	if cfg.Token != "" {
		opts = append(opts, client.WithToken(cfg.Token))
	}
	if cfg.APIKey != "" {
		opts = append(opts, client.WithAPIKey(cfg.APIKey))
	}

	c, err := client.New(cfg.APIURL, opts...)
	if err != nil {
		return err
	}

	a.client = c
	a.out = cmd.OutOrStdout()
	a.styles = NewStyles(lipgloss.NewRenderer(a.out))
	return nil
}

func (a *app) ctx(cmd *cobra.Command) (context.Context, context.CancelFunc) {
	return context.WithTimeout(cmd.Context(), a.client.Timeout()+5*time.Second)
}

func (a *app) print(s string) {
	fmt.Fprint(a.out, s)
}

func (a *app) loginCmd() *cobra.Command {
	var email, password string

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Войти и получить токен доступа",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := a.ctx(cmd)
			defer cancel()

			session, err := a.client.Auth.Login(ctx, email, password)
			if err != nil {
				return err
			}

			a.print(a.styles.Success.Render("Вход выполнен: "+session.Data.User.Name) + "\n")
			a.print(fmt.Sprintf("export %s=%s\n", EnvToken, session.Data.AccessToken))
			return nil
		},
	}
	cmd.Flags().StringVar(&email, "email", "", "Email")
	cmd.Flags().StringVar(&password, "password", "", "Пароль")
	_ = cmd.MarkFlagRequired("email")
	_ = cmd.MarkFlagRequired("password")
	return cmd
}

func (a *app) dashboardCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "dashboard",
		Short: "Статистика пользователей",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := a.ctx(cmd)
			defer cancel()

			stats, err := a.client.Users.Stats(ctx)
			if err != nil {
				return err
			}
			a.print(a.styles.RenderDashboard(stats.Data))
			return nil
		},
	}
}

// FormatError текст ошибки для терминала, для ошибок API добавляет код и поля
func FormatError(s Styles, err error) string {
	var apiErr *client.APIError
	if !errors.As(err, &apiErr) {
		return s.Error.Render("Ошибка: " + err.Error())
	}

	msg := s.Error.Render(fmt.Sprintf("Ошибка %d", apiErr.Status))
	if apiErr.Code != "" {
		msg += " " + s.Label.Render(apiErr.Code)
	}
	msg += ": " + apiErr.Message
	if apiErr.RetryAfter > 0 {
		msg += fmt.Sprintf(" (повторите через %d с)", apiErr.RetryAfter)
	}
	if fields := apiErr.FieldErrors(); len(fields) > 0 {
		msg += "\n" + s.RenderErrors(fields)
	}
	if apiErr.Status == 401 {
		msg += "\n" + s.Muted.Render("Выполните usersctl login или задайте "+EnvToken)
	}
	return msg
}

package cli

import (
	"errors"
	"usermanager/pkg/client"

	"github.com/spf13/cobra"
)

func (a *app) profileCmd() *cobra.Command {
	show := func(cmd *cobra.Command, args []string) error {
		ctx, cancel := a.ctx(cmd)
		defer cancel()

		user, err := a.client.Auth.Profile(ctx)
		if err != nil {
			return err
		}
		a.print(a.styles.RenderUser(user.Data))
		return nil
	}

	cmd := &cobra.Command{
		Use:   "profile",
		Short: "Профиль текущего пользователя",
		RunE:  show,
	}

	update := &cobra.Command{
		Use:   "update",
		Short: "Изменить свой профиль",
		RunE: func(cmd *cobra.Command, args []string) error {
			var in client.UpdateProfileInput
			in.Name = changed(cmd, "name")

			bio, location := changed(cmd, "bio"), changed(cmd, "location")
			if bio != nil || location != nil {
				in.Profile = &client.ProfileInput{Bio: bio, Location: location}
			}
			if in.Name == nil && in.Profile == nil {
				return errors.New("укажите хотя бы один из флагов --name, --bio, --location")
			}

			ctx, cancel := a.ctx(cmd)
			defer cancel()

			user, err := a.client.Auth.UpdateProfile(ctx, in)
			if err != nil {
				return err
			}
			a.print(a.styles.Success.Render(user.Message) + "\n")
			a.print(a.styles.RenderUser(user.Data))
			return nil
		},
	}
	update.Flags().String("name", "", "Имя")
	update.Flags().String("bio", "", "О себе")
	update.Flags().String("location", "", "Город")

	cmd.AddCommand(
		&cobra.Command{Use: "show", Short: "Показать профиль", RunE: show},
		update,
	)
	return cmd
}

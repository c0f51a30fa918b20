package main

import (
	"fmt"
	"os"
	"path/filepath"
	"usermanager/internal/apidocs"
	"usermanager/pkg/logger"

	"github.com/spf13/cobra"
)

func main() {
	var root, output string
	appLogger := logger.NewWithWriter(logger.AppLoggerLevelInfo, os.Stderr, "apidocs")

	cmd := &cobra.Command{
		Use:          "apidocs",
		Short:        "Сгенерировать docs/API.md по экспортируемым Go символам",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			op := "apidocs.main"

			if output == "" {
				output = filepath.Join(root, "docs", "API.md")
			}
			n, err := apidocs.Generate(root, output)
			if err != nil {
				appLogger.Error(err, op)
				return err
			}
			appLogger.Info("Документация сгенерирована", op, "path", output, "symbols", n)
			fmt.Fprintln(cmd.OutOrStdout(), output)
			return nil
		},
	}

	defaultRoot := os.Getenv("WORKSPACE")
	if defaultRoot == "" {
		defaultRoot = "."
	}
	cmd.Flags().StringVar(&root, "root", defaultRoot, "Корень репозитория")
	cmd.Flags().StringVarP(&output, "output", "o", "", "Файл результата, по умолчанию <root>/docs/API.md")

	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}

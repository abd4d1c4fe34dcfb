package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/beautybucket/backend/config"
	"github.com/beautybucket/backend/internal/adminapi"
	"github.com/beautybucket/backend/internal/app"
	"github.com/beautybucket/backend/internal/catalog"
	"github.com/beautybucket/backend/internal/webserver"
)

var cfgFile string

func main() {
	root := &cobra.Command{
		Use:           "beautybucket",
		Short:         "BeautyBucket catalog backend",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE:          runServe,
	}
	root.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "config file (yaml)")

	root.AddCommand(
		&cobra.Command{
			Use:   "serve",
			Short: "Run the HTTP API",
			RunE:  runServe,
		},
		&cobra.Command{
			Use:   "migrate",
			Short: "Create or upgrade the database schema",
			RunE:  runMigrate,
		},
		exportCommand(),
	)

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func setup() (*app.Application, error) {
	cfg, err := config.LoadConfig(cfgFile)
	if err != nil {
		return nil, err
	}
	a := app.NewApplication(cfg)
	if err := a.Init(cfg); err != nil {
		a.Release()
		return nil, err
	}
	return a, nil
}

func runServe(cmd *cobra.Command, _ []string) error {
	a, err := setup()
	if err != nil {
		return err
	}
	defer a.Release()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	srv := webserver.NewAdminServer(a)
	adminapi.Init(srv)
	a.StartBackgroundJobs(ctx)

	err = srv.Start(ctx)
	zap.S().Info("BeautyBucket backend stopped")
	return err
}

func runMigrate(_ *cobra.Command, _ []string) error {
	a, err := setup()
	if err != nil {
		return err
	}
	defer a.Release()
	if err := a.MigrateDB(true); err != nil {
		return errors.Wrap(err, "migrate")
	}
	zap.S().Info("database schema is up to date")
	return nil
}

func exportCommand() *cobra.Command {
	var output, format string
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write the product catalog to a spreadsheet",
		RunE: func(cmd *cobra.Command, _ []string) error {
			f, err := catalog.NormalizeFormat(format)
			if err != nil {
				return err
			}
			if output == "" {
				output = "products." + f
			}

			a, err := setup()
			if err != nil {
				return err
			}
			defer a.Release()

			file, err := os.Create(output)
			if err != nil {
				return errors.Wrap(err, "create export file")
			}
			defer file.Close()

			ctx := cmd.Context()
			if err := a.Catalog(a.DB().WithContext(ctx)).ExportProducts(ctx, file, f); err != nil {
				return err
			}
			zap.S().Infof("exported products to %s", output)
			return file.Close()
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (default products.<format>)")
	cmd.Flags().StringVar(&format, "format", catalog.FormatXLSX, "xlsx or csv")
	return cmd
}

package cli

import (
	"log"

	"github.com/spf13/cobra"

	"epias-report/internal/config"
	"epias-report/internal/epias"
	"epias-report/internal/report/application"
	report "epias-report/internal/report/domain"
)

// NewRootCmd builds the epias-report command tree.
func NewRootCmd(cfg config.Config, logger *log.Logger) *cobra.Command {
	if logger == nil {
		logger = log.Default()
	}
	root := &cobra.Command{
		Use:           "epias-report",
		Short:         "Quarterly EPİAŞ transparency platform report",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(
		NewGenerateCmd(cfg, logger),
		NewServeCmd(cfg, logger),
		NewTokenCmd(cfg),
	)
	return root
}

func newService(cfg config.Config, catalog []report.Category, logger *log.Logger) (*application.Service, error) {
	client, err := epias.NewClient(cfg.BaseURL,
		epias.WithAuthURL(cfg.AuthURL),
		epias.WithRequestTimeout(cfg.RequestTimeout),
		epias.WithRequestDelay(cfg.RequestDelay),
		epias.WithLogger(logger),
	)
	if err != nil {
		return nil, err
	}
	return application.NewService(client, client,
		application.WithCatalog(catalog),
		application.WithLogger(logger),
	)
}

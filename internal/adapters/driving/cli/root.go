// Package cli implements the docask command-line interface.
//
// Commands are registered on the package-level root command via init()
// and rely on services injected through Init before Execute runs.
package cli

import (
	"github.com/spf13/cobra"

	configfile "github.com/docask/docask-cli/internal/adapters/driven/config/file"
	"github.com/docask/docask-cli/internal/core/ports/driven"
	"github.com/docask/docask-cli/internal/core/ports/driving"
	"github.com/docask/docask-cli/internal/logger"
)

// version is set by Execute.
var version = "dev"

// Services injected by the composition root.
var (
	registryService driving.RegistryService
	queryService    driving.QueryService
	uploadService   driving.UploadService
	backendService  driven.GenerativeBackend
	configStore     *configfile.ConfigStore

	// defaultStoreName is the store used when --store is not given.
	defaultStoreName = configfile.DefaultStore
)

var verbose bool

var rootCmd = &cobra.Command{
	Use:   "docask",
	Short: "Ask questions about your documents",
	Long: `Docask uploads documents to a generative backend and answers
questions grounded on their content, with citations back to the source
files.

Documents are organised into named stores; queries run against one or
more stores and cite the passages the answer was built from.`,
	SilenceUsage: true,
	PersistentPreRun: func(_ *cobra.Command, _ []string) {
		logger.SetVerbose(verbose)
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose output")
}

// Services bundles everything the commands need.
type Services struct {
	Registry     driving.RegistryService
	Query        driving.QueryService
	Upload       driving.UploadService
	Backend      driven.GenerativeBackend
	Config       *configfile.ConfigStore
	DefaultStore string
}

// Init injects the services the commands use. Must be called before
// Execute.
func Init(s Services) {
	registryService = s.Registry
	queryService = s.Query
	uploadService = s.Upload
	backendService = s.Backend
	configStore = s.Config
	if s.DefaultStore != "" {
		defaultStoreName = s.DefaultStore
	}
}

// Execute runs the root command.
func Execute(v string) error {
	if v != "" {
		version = v
	}
	return rootCmd.Execute()
}

package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/MakeNowJust/heredoc"
	"github.com/magefile/mage/sh"
	"github.com/spf13/cobra"

	"github.com/contriboss/occbuild"
	"github.com/contriboss/occbuild/log"
)

type rootOptions struct {
	sourceDir  string
	configFile string
	buildDir   string
	distDir    string
	platform   string
	logLevel   string
	logType    string
	jobs       int
	verbose    bool
	force      bool
	inplace    bool
	cleanFirst bool
	checkTools bool
}

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	cmd := newRootCmd()
	if err := cmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(exitCode(err))
	}
}

// exitCode carries make's exit status through when the wrapper build failed.
func exitCode(err error) int {
	var nerr *occbuild.NativeBuildError
	if errors.As(err, &nerr) {
		return sh.ExitStatus(nerr)
	}
	return 1
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}

	root := &cobra.Command{
		Use:           "occbuild",
		Short:         "Build the occmodel extension modules",
		SilenceUsage:  true,
		SilenceErrors: true,
		Long: heredoc.Doc(`
			Build the occmodel extension modules against the OpenCASCADE kernel.

			The kernel wrapper is built with make first; a failing make aborts
			the build before any extension is compiled.
		`),
		Example: heredoc.Doc(`
			# Build both extension modules for the host platform
			$ occbuild build_ext

			# Build and copy the modules next to the sources
			$ occbuild build_ext --inplace

			# Package a source distribution
			$ occbuild sdist

			# Show the resolved settings for Windows
			$ occbuild show --platform windows
		`),
	}

	flags := root.PersistentFlags()
	flags.StringVarP(&opts.sourceDir, "source-dir", "C", ".", "Root of the occmodel checkout")
	flags.StringVar(&opts.configFile, "config", "", "Configuration file (default <source-dir>/"+occbuild.DefaultConfigFile+")")
	flags.StringVar(&opts.buildDir, "build-dir", "", "Build directory (default <source-dir>/build)")
	flags.StringVar(&opts.distDir, "dist-dir", "", "Source distribution directory (default <source-dir>/dist)")
	flags.StringVar(&opts.platform, "platform", string(occbuild.PlatformFromGOOS(runtime.GOOS)), "Target platform: windows, darwin or linux")
	flags.StringVar(&opts.logLevel, "log-level", "info", "Log level")
	flags.StringVar(&opts.logType, "log-type", "basic", "Log output: quiet, basic or json")
	flags.IntVarP(&opts.jobs, "jobs", "j", 0, "Parallel jobs passed to make")
	flags.BoolVarP(&opts.verbose, "verbose", "v", false, "Record the commands run in the build output")

	root.AddCommand(
		newActionCmd(opts, occbuild.ActionBuild, "Build everything needed to install", nil),
		newActionCmd(opts, occbuild.ActionBuildExt, "Build the kernel wrapper and the extension modules", []string{"build-ext"}),
		newActionCmd(opts, occbuild.ActionSdist, "Create a source distribution", nil),
		newActionCmd(opts, occbuild.ActionClean, "Remove build outputs", nil),
		newActionCmd(opts, occbuild.ActionShow, "Print the resolved platform settings and extensions", nil),
		newVersionCmd(opts),
	)

	return root
}

func newActionCmd(opts *rootOptions, action occbuild.Action, short string, aliases []string) *cobra.Command {
	cmd := &cobra.Command{
		Use:     string(action),
		Short:   short,
		Aliases: aliases,
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, orch, err := opts.setup(cmd.Context())
			if err != nil {
				return err
			}
			orch.Out = cmd.OutOrStdout()
			return orch.Run(ctx, action)
		},
	}

	if action == occbuild.ActionBuild || action == occbuild.ActionBuildExt {
		cmd.Flags().BoolVarP(&opts.force, "force", "f", false, "Rebuild modules even when up to date")
		cmd.Flags().BoolVarP(&opts.inplace, "inplace", "i", false, "Copy built modules into the source root")
		cmd.Flags().BoolVar(&opts.cleanFirst, "clean-first", false, "Run make clean before building the kernel wrapper")
		cmd.Flags().BoolVar(&opts.checkTools, "check-tools", true, "Verify the toolchain is installed before building")
	}

	return cmd
}

func newVersionCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the project version",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			fc, err := occbuild.LoadFileConfig(opts.configPath(), opts.configFile == "")
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), fc.Version)
			return nil
		},
	}
}

func (opts *rootOptions) configPath() string {
	if opts.configFile != "" {
		return opts.configFile
	}
	return filepath.Join(opts.sourceDir, occbuild.DefaultConfigFile)
}

// setup builds the logger, configuration and orchestrator from the flags,
// the environment and the optional configuration file.
func (opts *rootOptions) setup(ctx context.Context) (context.Context, *occbuild.Orchestrator, error) {
	logger, err := log.New(os.Stderr, log.LoggerTypeFromString(opts.logType), opts.logLevel)
	if err != nil {
		return ctx, nil, err
	}
	ctx = log.WithLogger(ctx, logger)

	sourceDir, err := filepath.Abs(opts.sourceDir)
	if err != nil {
		return ctx, nil, err
	}

	platform, err := occbuild.ParsePlatform(opts.platform)
	if err != nil {
		return ctx, nil, err
	}

	fc, err := occbuild.LoadFileConfig(opts.configPath(), opts.configFile == "")
	if err != nil {
		return ctx, nil, err
	}

	config := occbuild.NewBuildConfig(sourceDir)
	config.Platform = platform
	config.BuildDir = opts.buildDir
	config.DistDir = opts.distDir
	config.Parallel = opts.jobs
	config.Verbose = opts.verbose
	config.Force = opts.force
	config.Inplace = opts.inplace
	config.CleanFirst = opts.cleanFirst
	config.Kernel = occbuild.KernelConfigFromEnv(fc.Kernel)
	config.Make = os.Getenv("MAKE")
	config.CC = os.Getenv("CC")
	config.CXX = os.Getenv("CXX")
	config.Python = os.Getenv("PYTHON")
	config.Cython = os.Getenv("CYTHON")

	if config.CFlags, err = occbuild.FlagsFromEnv("CFLAGS"); err != nil {
		return ctx, nil, err
	}
	if config.LDFlags, err = occbuild.FlagsFromEnv("LDFLAGS"); err != nil {
		return ctx, nil, err
	}

	logger.WithField("platform", platform).Debugf("source dir %s, flags %s",
		sourceDir, strings.Join(config.CFlags, " "))

	orch := occbuild.NewOrchestrator(config, &fc.Project)
	orch.CheckTools = opts.checkTools

	return ctx, orch, nil
}

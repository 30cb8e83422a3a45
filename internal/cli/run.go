package cli

import (
	"fmt"

	"github.com/google/go-github/v57/github"
	"github.com/patchgate/patchgate/internal/acquire"
	"github.com/patchgate/patchgate/internal/config"
	"github.com/patchgate/patchgate/internal/gates"
	"github.com/patchgate/patchgate/internal/logging"
	"github.com/patchgate/patchgate/internal/orchestrator"
	"github.com/patchgate/patchgate/internal/tracker"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var runCmd = &cobra.Command{
	Use:   "run [patch-file | ISSUE-123 | pr-N | rb-N]",
	Short: "Validate one patch through the full gate pipeline",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		applyRunFlags(cmd, cfg)

		if errs := config.Validate(cfg); len(errs) > 0 {
			for _, e := range errs {
				fmt.Fprintf(cmd.ErrOrStderr(), "config: %s\n", e)
			}
			return fmt.Errorf("config has %d validation error(s)", len(errs))
		}

		format := "console"
		if cfg.Mode == "automated" {
			format = "json"
		}
		log, err := logging.New(format, cfg.LogLevel)
		if err != nil {
			return err
		}
		defer log.Sync()

		var trk tracker.Client
		if cfg.Tracker.URL != "" {
			trk = tracker.NewHTTPClient(cfg.Tracker.URL, cfg.Tracker.Username, cfg.Tracker.Password)
		}

		var gh *github.Client
		if cfg.GitHub.Owner != "" && cfg.GitHub.Repo != "" {
			gh = github.NewClient(nil)
			if cfg.GitHub.Token != "" {
				gh = gh.WithAuthToken(cfg.GitHub.Token)
			}
		}

		acq := acquire.New(acquire.Options{
			Tracker:     trk,
			GitHub:      gh,
			GitHubOwner: cfg.GitHub.Owner,
			GitHubRepo:  cfg.GitHub.Repo,
			ReviewURL:   cfg.ReviewBoard.URL,
			Log:         log,
		})

		hist, cleanup, err := openDB()
		if err != nil {
			// History is a convenience, not a requirement for grading a patch.
			log.Warn("run history unavailable", zap.Error(err))
			hist, cleanup = nil, func() {}
		}
		defer cleanup()

		orch := orchestrator.New(cfg, log, acq, trk, hist, &gates.ExecRunner{}, cmd.OutOrStdout())
		code, err := orch.Run(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		if code != 0 {
			cmd.SilenceUsage = true
			cmd.SilenceErrors = true
			return &ExitCodeError{Code: code}
		}
		return nil
	},
}

// applyRunFlags overlays command-line flags onto the loaded config. Flags
// win over file values, matching the documented precedence.
func applyRunFlags(cmd *cobra.Command, cfg *config.Config) {
	if v, _ := cmd.Flags().GetString("repo"); v != "" {
		cfg.Repo = v
	}
	if v, _ := cmd.Flags().GetString("mode"); v != "" {
		cfg.Mode = v
	}
	if v, _ := cmd.Flags().GetString("basedir"); v != "" {
		cfg.BaseDir = v
	}
	if v, _ := cmd.Flags().GetString("workdir"); v != "" {
		cfg.WorkDir = v
	}
	if v, _ := cmd.Flags().GetString("git-cmd"); v != "" {
		cfg.Tools.Git = v
	}
	if v, _ := cmd.Flags().GetString("build-cmd"); v != "" {
		cfg.Tools.Build = v
	}
	if v, _ := cmd.Flags().GetString("test-cmd"); v != "" {
		cfg.Tools.Tests = v
	}
	if v, _ := cmd.Flags().GetString("tracker-url"); v != "" {
		cfg.Tracker.URL = v
	}
	if v, _ := cmd.Flags().GetString("tracker-user"); v != "" {
		cfg.Tracker.Username = v
	}
	if v, _ := cmd.Flags().GetString("tracker-password"); v != "" {
		cfg.Tracker.Password = v
	}
	if v, _ := cmd.Flags().GetString("log-url"); v != "" {
		cfg.LogURL = v
	}
	if v, _ := cmd.Flags().GetBool("allow-dirty"); v {
		cfg.AllowDirty = true
	}
	if v, _ := cmd.Flags().GetBool("skip-tests"); v {
		cfg.Skip.Tests = true
	}
	if v, _ := cmd.Flags().GetBool("skip-static-analysis"); v {
		cfg.Skip.StaticAnalysis = true
	}
}

func init() {
	runCmd.Flags().String("repo", "", "Path to the git working copy under test")
	runCmd.Flags().String("mode", "", "Run mode: interactive or automated")
	runCmd.Flags().String("basedir", "", "Directory where automated runs archive their logs")
	runCmd.Flags().String("workdir", "", "Directory for per-run scratch files")
	runCmd.Flags().String("git-cmd", "", "Override the git command")
	runCmd.Flags().String("build-cmd", "", "Override the build command")
	runCmd.Flags().String("test-cmd", "", "Override the test command")
	runCmd.Flags().String("tracker-url", "", "Issue tracker base URL")
	runCmd.Flags().String("tracker-user", "", "Issue tracker username")
	runCmd.Flags().String("tracker-password", "", "Issue tracker password")
	runCmd.Flags().String("log-url", "", "URL prefix for archived raw logs (report footer)")
	runCmd.Flags().Bool("allow-dirty", false, "Permit uncommitted changes in the working copy")
	runCmd.Flags().Bool("skip-tests", false, "Skip the unit-test gate")
	runCmd.Flags().Bool("skip-static-analysis", false, "Skip the static-analysis gate")
}

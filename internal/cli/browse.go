package cli

import (
	"os"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/friendsofgo/errors"
	"github.com/spf13/cobra"

	"github.com/rshade/rosterfeed/internal/config"
	"github.com/rshade/rosterfeed/internal/feed"
	"github.com/rshade/rosterfeed/internal/roster"
	"github.com/rshade/rosterfeed/internal/tui"
)

// newBrowseCmd creates the browse subcommand.
func newBrowseCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "browse",
		Short: "Browse the roster interactively",
		Long: "Open an interactive list over the synthesized roster. Pages load as you\n" +
			"scroll; search and sort operate on everything loaded so far.",
		RunE: runBrowse,
	}

	cmd.Flags().Int("total", 0, "total records in the synthesized roster (0 = config default)")
	cmd.Flags().Int("page-size", 0, "records per page (0 = config default)")
	cmd.Flags().Duration("fetch-delay", -1, "simulated fetch latency (-1 = config default)")
	cmd.Flags().Duration("debounce", -1, "search quiet window (-1 = config default)")

	return cmd
}

// runBrowse resolves flags over config and runs the TUI.
func runBrowse(cmd *cobra.Command, _ []string) error {
	if !isTerminal(os.Stdout) {
		return errors.New("browse requires an interactive terminal")
	}

	feedCfg := cfg.Feed
	if v, _ := cmd.Flags().GetInt("total"); v > 0 {
		feedCfg.TotalRecords = v
	}
	if v, _ := cmd.Flags().GetInt("page-size"); v > 0 {
		feedCfg.PageSize = v
	}
	if v, _ := cmd.Flags().GetDuration("fetch-delay"); v >= 0 {
		feedCfg.FetchDelay = config.Duration(v)
	}
	if v, _ := cmd.Flags().GetDuration("debounce"); v >= 0 {
		feedCfg.Debounce = config.Duration(v)
	}

	ctx := cmd.Context()

	source := roster.NewSource(feedCfg.TotalRecords, feedCfg.PageSize,
		roster.WithDelay(feedCfg.FetchDelay.Std()))
	ctrl := feed.NewController(source)
	defer ctrl.Close()

	model := tui.NewBrowseModel(ctx, ctrl, tui.Options{
		SkeletonRows:  feedCfg.SkeletonRows,
		LookAheadRows: feedCfg.LookAheadRows,
		Debounce:      feedCfg.Debounce.Std(),
	})

	logger.Info().
		Int("total", feedCfg.TotalRecords).
		Int("page_size", feedCfg.PageSize).
		Dur("fetch_delay", feedCfg.FetchDelay.Std()).
		Msg("starting browse")

	program := tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(ctx))
	if _, err := program.Run(); err != nil {
		return errors.Wrap(err, "run browse TUI")
	}

	return nil
}

// browseDefaults exists for tests that assert flag fallbacks without a
// terminal attached.
func browseDefaults() (total, pageSize int, delay, debounce time.Duration) {
	c := cfg
	if c == nil {
		return 0, 0, 0, 0
	}
	return c.Feed.TotalRecords, c.Feed.PageSize, c.Feed.FetchDelay.Std(), c.Feed.Debounce.Std()
}

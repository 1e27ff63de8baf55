package main

import (
	"context"
	"fmt"
	"os"
	"runtime/debug"
	"strconv"
	"strings"
	"time"

	"github.com/pterm/pterm"

	"github.com/brizzai/swapi/internal/config"
	"github.com/brizzai/swapi/internal/logger"
	"github.com/brizzai/swapi/internal/music"
	"github.com/brizzai/swapi/internal/requester"
	"github.com/brizzai/swapi/internal/tui"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
)

func main() {
	Execute()
}

var (
	limit     int
	transport string
	timeout   time.Duration
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "swapi-demo",
	Short: "Search the iTunes catalog with the swapi requester",
	Long: `swapi-demo is a small music search built on the swapi requester.
Without a subcommand it opens an interactive search bar with a table of results.`,
	Run: runTUI,
}

var searchCmd = &cobra.Command{
	Use:   "search <term>",
	Short: "Search once and print the results as a table",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runSearch,
}

var urlCmd = &cobra.Command{
	Use:   "url <term>",
	Short: "Print the URL a search would request",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runURL,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	rootCmd.PersistentPreRun = func(cmd *cobra.Command, args []string) {
		versionFlag, _ := cmd.Flags().GetBool("version")
		if versionFlag {
			pterm.Info.Println(config.GetVersionInfo())
			os.Exit(0)
		}
	}

	if err := rootCmd.Execute(); err != nil {
		pterm.Error.Println(err)
		os.Exit(1)
	}
}

func init() {
	flags := rootCmd.PersistentFlags()
	flags.Bool("debug", false, "Log every request and response")
	flags.IntVar(&limit, "limit", music.DefaultLimit, "Maximum number of results")
	flags.StringVar(&transport, "transport", "", "HTTP transport (net_http|resty)")
	flags.DurationVar(&timeout, "timeout", 0, "Request timeout")
	flags.BoolP("version", "v", false, "Show version information")

	rootCmd.AddCommand(searchCmd, urlCmd)
}

// newClient loads the configuration and builds a music client. When
// logToFile is set, console logging is replaced by swapi-demo.log so the
// TUI owns the terminal.
func newClient(cmd *cobra.Command, logToFile bool) (*music.Client, error) {
	cfg, err := config.LoadDefaults(cmd.Flags())
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	if transport != "" {
		cfg.Requester.Transport = transport
	}
	if timeout > 0 {
		cfg.Requester.Timeout = timeout
	}
	if logToFile {
		cfg.Logging.DisableConsole = true
		if cfg.Logging.OutputPath == "" {
			cfg.Logging.OutputPath = "swapi-demo.log"
		}
	}

	if err := logger.InitLogger(&cfg.Logging); err != nil {
		return nil, err
	}

	t, err := requester.NewTransport(&cfg.Requester)
	if err != nil {
		return nil, err
	}
	r := requester.NewRequester(t, requester.WithDebugLogging(cfg.Requester.DebugLogging))
	return music.NewClient(r), nil
}

// runTUI is the main function that runs the TUI
func runTUI(cmd *cobra.Command, args []string) {
	defer func() {
		if r := recover(); r != nil {
			pterm.Error.Printf("\nCaught panic: %v\n", r)
			pterm.Error.Printf("%s\n", debug.Stack())
			os.Exit(2)
		}
	}()

	client, err := newClient(cmd, true)
	if err != nil {
		pterm.Error.Println(err)
		os.Exit(1)
	}
	defer func() { _ = logger.Sync() }()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	p := tea.NewProgram(tui.NewModel(ctx, client, limit), tea.WithAltScreen())
	m, err := p.Run()
	if err != nil {
		pterm.Error.Printf("Error running program: %v\n", err)
		os.Exit(1)
	}

	if tracks := m.(tui.Model).Tracks(); len(tracks) > 0 {
		pterm.Info.Printfln("Last search returned %s tracks.", pterm.LightGreen(len(tracks)))
	}
}

func runSearch(cmd *cobra.Command, args []string) error {
	client, err := newClient(cmd, false)
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	term := strings.Join(args, " ")
	spinner, _ := pterm.DefaultSpinner.Start(fmt.Sprintf("Searching for %q", term))
	res, err := client.Search(cmd.Context(), term, limit)
	if err != nil {
		spinner.Fail(err.Error())
		return err
	}
	spinner.Success("Search complete")

	if res == nil || len(res.Results) == 0 {
		pterm.Warning.Printfln("No results for %q", term)
		return nil
	}

	data := pterm.TableData{{"#", "Track", "Artist", "Collection"}}
	for i, track := range res.Results {
		data = append(data, []string{strconv.Itoa(i + 1), track.TrackName, track.Artist, track.Collection})
	}
	if err := pterm.DefaultTable.WithHasHeader().WithData(data).Render(); err != nil {
		return err
	}
	pterm.Info.Printfln("%s results", pterm.LightGreen(res.Count))
	return nil
}

func runURL(cmd *cobra.Command, args []string) error {
	search := music.NewSearch(strings.Join(args, " "), limit)
	u, ok := requester.StringURL(search)
	if !ok {
		return fmt.Errorf("could not build a URL for %q", search.Term)
	}
	pterm.Println(u)
	return nil
}

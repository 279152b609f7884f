package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"text/tabwriter"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/boombae/ytdl-desk/internal/app"
	"github.com/boombae/ytdl-desk/internal/domain"
	"github.com/boombae/ytdl-desk/internal/server"
	"github.com/boombae/ytdl-desk/internal/ui"
	"github.com/boombae/ytdl-desk/pkg/logger"
)

var (
	configPath string
	rootCmd    = &cobra.Command{
		Use:   "ytdl-desk",
		Short: "ytdl-desk - YouTube downloader with download history",
		Long: `Download YouTube videos or their audio track, with progress reporting
and a persistent download history. Runs the terminal UI when no command is given.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTUI()
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}
)

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Path to config file")

	rootCmd.AddCommand(tuiCmd)
	rootCmd.AddCommand(downloadCmd)
	rootCmd.AddCommand(historyCmd)
	rootCmd.AddCommand(logsCmd)
	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(serveCmd)
	configCmd.AddCommand(configInitCmd)

	downloadCmd.Flags().BoolP("audio", "a", false, "Download the audio track only")
	downloadCmd.Flags().StringP("itag", "i", "", "Download this exact stream (itag)")
	downloadCmd.Flags().StringP("dir", "d", "", "Output directory (default from config)")
	downloadCmd.Flags().StringP("quality", "q", domain.Qualities[0], "Preferred quality: "+strings.Join(domain.Qualities, ", "))
	historyCmd.Flags().IntP("limit", "n", 0, "Number of records to show (default from config)")
	logsCmd.Flags().IntP("limit", "n", 100, "Number of entries to show, 0 for all")
	logsCmd.Flags().String("date", "", "Log date as YYYY-MM-DD (default today)")
	logsCmd.Flags().StringP("search", "s", "", "Only show entries matching this text")
}

// load loads the configuration and a logger for it
func load(terminalUI bool) (*domain.Config, *zap.Logger, error) {
	config, err := app.LoadConfig(configPath)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load config: %w", err)
	}

	logConfig := logger.Config{
		Level:      config.Logging.Level,
		Format:     config.Logging.Format,
		OutputPath: config.Logging.OutputPath,
	}
	if terminalUI {
		logConfig = logger.ForTerminalUI(logConfig, config.Logging.LogsDir)
	}

	log, err := logger.New(logConfig)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to initialize logger: %w", err)
	}
	return config, log, nil
}

// withServices loads config, logger and container, runs fn, then closes the
// container and flushes the logger whatever fn returned
func withServices(ctx context.Context, terminalUI bool, fn func(config *domain.Config, log *zap.Logger, container *app.Container) error) error {
	config, log, err := load(terminalUI)
	if err != nil {
		return err
	}
	defer log.Sync()

	container, err := app.NewContainer(ctx, config, log)
	if err != nil {
		return err
	}
	defer func() {
		if err := container.Close(); err != nil {
			log.Error("Failed to close services", zap.Error(err))
		}
	}()

	return fn(config, log, container)
}

var tuiCmd = &cobra.Command{
	Use:   "tui",
	Short: "Run the terminal UI",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runTUI()
	},
}

func runTUI() error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	return withServices(ctx, true, func(config *domain.Config, log *zap.Logger, container *app.Container) error {
		model := ui.NewModel(ctx, config.Download.OutputDir, container.Opener, container.Notifier)
		session := container.NewSession(model)
		program := tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(ctx))
		model.Attach(session, program)

		_, err := program.Run()

		// a download still running when the UI quits is allowed to finish
		session.Wait()

		if err != nil {
			log.Error("Terminal UI failed", zap.Error(err))
			return err
		}
		return nil
	})
}

var downloadCmd = &cobra.Command{
	Use:   "download [url]",
	Short: "Download a single video or audio track",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		audio, _ := cmd.Flags().GetBool("audio")
		itag, _ := cmd.Flags().GetString("itag")
		dir, _ := cmd.Flags().GetString("dir")
		quality, _ := cmd.Flags().GetString("quality")

		ctx := context.Background()
		return withServices(ctx, false, func(config *domain.Config, log *zap.Logger, container *app.Container) error {
			if dir == "" {
				dir = config.Download.OutputDir
			}
			req := domain.DownloadRequest{
				URL:              args[0],
				OutputDir:        dir,
				AudioOnly:        audio,
				ExplicitStreamID: itag,
				Quality:          quality,
			}

			loop := ui.NewLoop()
			if err := loop.Start(ctx); err != nil {
				return err
			}

			session := container.NewSession(ui.NewConsole(loop, cmd.OutOrStdout(), container.Notifier))
			if err := session.Start(req); err != nil {
				loop.Stop()
				return err
			}
			session.Wait()
			loop.Stop()

			if state := session.Snapshot(); state.LastError != "" {
				return errors.New(state.LastError)
			}

			if records, err := container.Store.ListRecent(ctx, 1); err == nil && len(records) == 1 {
				container.Notifier.NotifyDownloadCompleted(records[0].Title, records[0].Size)
				fmt.Fprintf(cmd.OutOrStdout(), "Saved to: %s\n", records[0].Path)
			}
			return nil
		})
	},
}

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List recent downloads",
	RunE: func(cmd *cobra.Command, args []string) error {
		limit, _ := cmd.Flags().GetInt("limit")

		ctx := context.Background()
		return withServices(ctx, false, func(config *domain.Config, log *zap.Logger, container *app.Container) error {
			if limit <= 0 {
				limit = config.Download.HistoryLimit
			}

			records, err := container.Store.ListRecent(ctx, limit)
			if err != nil {
				return err
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tTITLE\tFORMAT\tSIZE\tDOWNLOADED\tPATH")
			for _, r := range records {
				fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\t%s\n",
					r.ID,
					r.ShortTitle(40),
					r.Format,
					r.Size,
					r.DownloadTime.Format("2006-01-02 15:04:05"),
					r.Path)
			}
			return w.Flush()
		})
	},
}

var logsCmd = &cobra.Command{
	Use:   "logs [category]",
	Short: "View the session or error event log",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		limit, _ := cmd.Flags().GetInt("limit")
		rawDate, _ := cmd.Flags().GetString("date")
		search, _ := cmd.Flags().GetString("search")

		category := logger.CategorySession
		if len(args) == 1 {
			category = logger.LogCategory(args[0])
		}
		if !logger.ValidCategory(category) {
			return fmt.Errorf("unknown log category %q", category)
		}

		date := time.Now()
		if rawDate != "" {
			var err error
			date, err = time.ParseInLocation("2006-01-02", rawDate, time.Local)
			if err != nil {
				return fmt.Errorf("invalid date %q, use YYYY-MM-DD", rawDate)
			}
		}

		config, err := app.LoadConfig(configPath)
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}

		reader := logger.NewLogReader(config.Logging.LogsDir)
		var entries []logger.LogEntry
		if search != "" {
			entries, err = reader.SearchLogs(category, date, search, limit)
		} else {
			entries, err = reader.ReadLogs(category, date, limit)
		}
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		for _, e := range entries {
			fmt.Fprintf(out, "%s  %-5s  %s", e.Timestamp, strings.ToUpper(e.Level), e.Message)
			for k, v := range e.Fields {
				fmt.Fprintf(out, "  %s=%v", k, v)
			}
			fmt.Fprintln(out)
		}
		return nil
	},
}

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage the configuration file",
}

var configInitCmd = &cobra.Command{
	Use:   "init [path]",
	Short: "Write the default configuration to a file",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		path := configPath
		if len(args) == 1 {
			path = args[0]
		}
		if path == "" {
			home, err := os.UserHomeDir()
			if err != nil {
				return err
			}
			path = filepath.Join(home, ".ytdl-desk", "config.yaml")
		}

		if _, err := os.Stat(path); err == nil {
			return fmt.Errorf("%s already exists", path)
		}

		if err := app.SaveConfig(domain.DefaultConfig(), path); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Config written to %s\n", path)
		return nil
	},
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API in the foreground",
	RunE: func(cmd *cobra.Command, args []string) error {
		config, log, err := load(false)
		if err != nil {
			return err
		}
		defer log.Sync()

		ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		if err := server.Run(ctx, config, log, cmd.OutOrStdout()); err != nil {
			log.Error("Server failed", zap.Error(err))
			return err
		}
		return nil
	},
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

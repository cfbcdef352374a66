package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"runtime"
	"runtime/debug"
	"strings"
	"syscall"
	"text/tabwriter"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	pflag "github.com/spf13/pflag"

	"github.com/bft-labs/tobread/internal/cliconfig"
	"github.com/bft-labs/tobread/internal/export"
	"github.com/bft-labs/tobread/internal/watch"
	"github.com/bft-labs/tobread/pkg/log"
	"github.com/bft-labs/tobread/pkg/source"
	"github.com/bft-labs/tobread/pkg/state"
	"github.com/bft-labs/tobread/pkg/tob"
)

const helpDescription = `
Decode TOB1, TOB2 and TOB3 binary tables written by data loggers.

Highlights:
  - Prints table headers, frame geometry and column encodings.
  - Reads single columns or exports whole tables as CSV.
  - Reads gzip and zstd compressed tables transparently.
  - Watches a directory and keeps CSV exports current as loggers append.
`

var exampleUsage = strings.TrimSpace(`
  tobdump header CR1000_Table1.dat
  tobdump read CR1000_Table1.dat AirTC_Avg
  tobdump export CR1000_Table1.dat.gz --columns AirTC_Avg,RH -o table1.csv
  tobdump watch --watch-dir /srv/loggers --output-dir /srv/csv
`)

func getVersion() string {
	if info, ok := debug.ReadBuildInfo(); ok && info.Main.Version != "" {
		return info.Main.Version
	}
	return tob.Version + "-dev"
}

type app struct {
	cfg     cliconfig.Config
	cfgPath string
	logger  *log.ZerologAdapter
}

func main() {
	a := &app{cfg: cliconfig.DefaultConfig()}
	a.logger = log.NewZerologAdapter(os.Stderr, zerolog.InfoLevel)

	if err := a.rootCmd().Execute(); err != nil {
		a.logger.Error("tobdump", log.Err(err))
		os.Exit(1)
	}
}

func (a *app) rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:               "tobdump",
		Short:             "Decode data logger TOB1/TOB2/TOB3 tables",
		Long:              strings.TrimSpace(helpDescription),
		Example:           exampleUsage,
		Version:           fmt.Sprintf("%s %s/%s", getVersion(), runtime.GOOS, runtime.GOARCH),
		SilenceUsage:      true,
		PersistentPreRunE: a.loadConfig,
	}

	root.PersistentFlags().StringVar(&a.cfgPath, "config", "", "path to config file (default: $HOME/.tobdump/config.toml)")
	root.PersistentFlags().StringVar(&a.cfg.LogLevel, "log-level", a.cfg.LogLevel, "log level (debug, info, warn, error)")
	root.PersistentFlags().StringSliceVar(&a.cfg.Columns, "columns", a.cfg.Columns, "columns to export (default: all)")
	root.PersistentFlags().IntVar(&a.cfg.Parallelism, "parallelism", a.cfg.Parallelism, "concurrent column reads per export")

	root.AddCommand(a.headerCmd(), a.countCmd(), a.readCmd(), a.exportCmd(), a.watchCmd())
	return root
}

// loadConfig applies the config file, then TOBDUMP_* variables, to every
// flag the user did not set.
func (a *app) loadConfig(cmd *cobra.Command, _ []string) error {
	cfgFile := a.cfgPath
	if cfgFile == "" {
		cfgFile = cliconfig.DefaultConfigPath()
	}

	changed := map[string]bool{}
	cmd.Flags().Visit(func(f *pflag.Flag) { changed[f.Name] = true })

	if cfgFile != "" && cliconfig.FileExists(cfgFile) {
		fc, err := cliconfig.LoadFileConfig(cfgFile)
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		if err := cliconfig.ApplyFileConfig(&a.cfg, fc, changed); err != nil {
			return err
		}
	}
	if err := cliconfig.ApplyEnvConfig(&a.cfg, changed); err != nil {
		return err
	}

	level, err := log.ParseLevel(a.cfg.LogLevel)
	if err != nil {
		return err
	}
	a.logger = log.NewZerologAdapter(os.Stderr, level)
	return nil
}

func (a *app) open(path string) (*tob.File, io.Closer, error) {
	src, err := source.Open(path)
	if err != nil {
		return nil, nil, err
	}
	f, err := tob.Open(src, tob.WithLogger(a.logger))
	if err != nil {
		src.Close()
		return nil, nil, fmt.Errorf("%s: %w", path, err)
	}
	return f, src, nil
}

func (a *app) headerCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "header FILE",
		Short: "Print the table header and column layout",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, c, err := a.open(args[0])
			if err != nil {
				return err
			}
			defer c.Close()
			return printHeader(cmd.OutOrStdout(), f.Header)
		},
	}
}

func printHeader(w io.Writer, h *tob.Header) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintf(tw, "format\t%s\n", h.Format)
	fmt.Fprintf(tw, "station\t%s\n", h.StationName)
	fmt.Fprintf(tw, "model\t%s (serial %s, %s)\n", h.Model, h.SerialNumber, h.OperatingSystem)
	fmt.Fprintf(tw, "program\t%s (signature %s)\n", h.Program, h.ProgramSignature)
	if !h.CreationTime.IsZero() {
		fmt.Fprintf(tw, "created\t%s\n", h.CreationTime.Format("2006-01-02 15:04:05"))
	}
	fmt.Fprintf(tw, "table\t%s\n", h.TableName)
	fmt.Fprintf(tw, "interval\t%s\n", h.RecordIntervalDuration())
	fmt.Fprintf(tw, "frames\t%d x %d bytes (header %d, footer %d)\n", h.IntendedTableSize, h.FrameSize, h.FrameHeaderSize, h.FrameFooterSize)
	fmt.Fprintf(tw, "rows\t%d x %d bytes per frame, %d padding\n", h.FrameRowCount, h.FrameRowSize, h.FrameRowPadding)
	fmt.Fprintf(tw, "first frame\t%d\n", h.FirstFrameStart)
	if h.Format == tob.TOB3 {
		fmt.Fprintf(tw, "ring record\t%d\n", h.RingRecord)
		fmt.Fprintf(tw, "card removal\t%d\n", h.LastCardRemoval)
	}
	fmt.Fprintln(tw)
	fmt.Fprintln(tw, "#\tNAME\tTYPE\tUNIT\tPROCESSING\tOFFSET")
	for _, c := range h.Columns {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\t%d\n", c.Index, c.Name, c.Encoding.Tag, c.Unit, c.Processing, c.Offset)
	}
	return tw.Flush()
}

func (a *app) countCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "count FILE",
		Short: "Count valid records and report why the scan stopped",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, c, err := a.open(args[0])
			if err != nil {
				return err
			}
			defer c.Close()

			s, err := f.Scan()
			if err != nil {
				return err
			}
			for s.Next() {
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%d records (%s)\n", s.Count(), s.Reason())
			return s.Err()
		},
	}
}

func (a *app) readCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "read FILE COLUMN",
		Short: "Print the timestamp and value of every record of one column",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, c, err := a.open(args[0])
			if err != nil {
				return err
			}
			defer c.Close()

			col, ok := f.Column(args[1])
			if !ok {
				return fmt.Errorf("table %s has no column %q", f.Header.TableName, args[1])
			}
			times, values, err := export.Format(f, col)
			if err != nil {
				return err
			}
			w := cmd.OutOrStdout()
			for i, v := range values {
				fmt.Fprintf(w, "%s\t%s\n", times[i].UTC().Format("2006-01-02 15:04:05.000"), v)
			}
			return nil
		},
	}
}

func (a *app) exportCmd() *cobra.Command {
	var out string
	cmd := &cobra.Command{
		Use:   "export FILE",
		Short: "Export a table as CSV",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, c, err := a.open(args[0])
			if err != nil {
				return err
			}
			defer c.Close()

			w := cmd.OutOrStdout()
			if out != "" && out != "-" {
				fh, err := os.Create(out)
				if err != nil {
					return err
				}
				defer fh.Close()
				w = fh
			}

			sum, err := export.WriteCSV(cmd.Context(), w, f, export.Options{
				Columns:     a.cfg.Columns,
				Parallelism: a.cfg.Parallelism,
			})
			if err != nil {
				return err
			}
			a.logger.Info("Exported table", log.String("file", args[0]), log.Int("records", sum.Records), log.Time("last", sum.Last))
			return nil
		},
	}
	cmd.Flags().StringVarP(&out, "out", "o", "", "CSV output file (default: stdout)")
	return cmd
}

func (a *app) watchCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Keep CSV exports of a directory of tables current",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := a.cfg
			if err := cfg.ValidateWatch(); err != nil {
				return err
			}
			zl := a.logger.Logger()
			zl.Info().Interface("config", cfg).Msg("configuration")

			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			w := watch.New(watch.Options{
				Dir:       cfg.WatchDir,
				OutputDir: cfg.OutputDir,
				Pattern:   cfg.Pattern,
				Debounce:  cfg.Debounce,
				Once:      cfg.Once,
				Export: export.Options{
					Columns:     cfg.Columns,
					Parallelism: cfg.Parallelism,
				},
			}, state.NewFileRepository(cfg.StateDir), a.logger)

			err := w.Run(ctx)
			if ctx.Err() != nil {
				a.logger.Info("received signal, stopping...")
				return nil
			}
			return err
		},
	}

	a.watchFlags(cmd.Flags())
	return cmd
}

func (a *app) watchFlags(fs *pflag.FlagSet) {
	fs.StringVar(&a.cfg.WatchDir, "watch-dir", a.cfg.WatchDir, "directory holding table files")
	fs.StringVar(&a.cfg.OutputDir, "output-dir", a.cfg.OutputDir, "directory receiving CSV exports")
	fs.StringVar(&a.cfg.StateDir, "state-dir", a.cfg.StateDir, "directory for export progress (defaults to output-dir)")
	fs.StringVar(&a.cfg.Pattern, "pattern", a.cfg.Pattern, "glob selecting table files")
	fs.DurationVar(&a.cfg.Debounce, "debounce", a.cfg.Debounce, "quiet period after a write before exporting")
	fs.BoolVar(&a.cfg.Once, "once", a.cfg.Once, "export current tables and exit")
}

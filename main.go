package main

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"github.com/dianpeng/chunkdb/exec"
	"github.com/dianpeng/chunkdb/internal/config"
	"github.com/dianpeng/chunkdb/internal/logger"
	"github.com/dianpeng/chunkdb/meta"
	"github.com/dianpeng/chunkdb/shell"
	"github.com/dianpeng/chunkdb/table"
)

var (
	version   = "0.1.0"
	cfgFile   string
	keepGoing bool
)

func oops(stage string, err error) {
	fmt.Fprintf(os.Stderr, "ERROR [%s]]] %s\n", stage, err)
	os.Exit(-1)
}

func main() {
	rootCmd := &cobra.Command{
		Use:   "chunkdb",
		Short: "chunkdb - query delimited files one chunk at a time",
		Long: `chunkdb stores tables as delimited files and answers select statements,
with joins, group by and order by, without loading a table in memory.

Start the interactive shell:
  chunkdb

Run a script, one statement per line:
  chunkdb run script.sql
  cat script.sql | chunkdb run`,
		Run: func(cmd *cobra.Command, args []string) {
			sh, done := setup()
			defer done()
			if err := sh.REPL(); err != nil {
				oops("repl", err)
			}
		},
	}

	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "config file path")

	runCmd := &cobra.Command{
		Use:   "run [file]",
		Short: "Run statements from a file, or stdin when no file is given",
		Args:  cobra.MaximumNArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			var in io.Reader = os.Stdin
			if len(args) == 1 {
				f, err := os.Open(args[0])
				if err != nil {
					oops("open script", err)
				}
				defer f.Close()
				in = f
			}
			sh, done := setup()
			defer done()
			if err := sh.Script(in, keepGoing); err != nil {
				done()
				oops("run", err)
			}
		},
	}
	runCmd.Flags().BoolVarP(&keepGoing, "keep-going", "k", false, "continue after a failing statement")
	rootCmd.AddCommand(runCmd)

	rootCmd.AddCommand(&cobra.Command{
		Use:   "exec <statement>",
		Short: "Run a single statement",
		Args:  cobra.MinimumNArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			sh, done := setup()
			defer done()
			if err := sh.Exec(strings.Join(args, " ")); err != nil && !errors.Is(err, shell.ErrExit) {
				done()
				oops("exec", err)
			}
		},
	})

	rootCmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("chunkdb %s\n", version)
		},
	})

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// setup wires the shell from the configuration, the returned function
// flushes the logger.
func setup() (*shell.Shell, func()) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		oops("config", err)
	}

	log, err := logger.New(cfg.Log.Level, cfg.Log.Format, cfg.Log.Output)
	if err != nil {
		oops("logger", err)
	}

	store, err := table.NewStore(cfg.Storage.DataDir)
	if err != nil {
		oops("storage", err)
	}
	ms, err := meta.Open(cfg.MetaPath())
	if err != nil {
		oops("metadata", err)
	}

	engine := exec.NewEngine(store, ms, log, exec.Config{
		ChunkDivisor: cfg.Exec.ChunkDivisor,
		MergeWorkers: cfg.Exec.MergeWorkers,
	})

	if cfg.Metrics.Addr != "" {
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.HandlerFor(engine.Metrics.Registry, promhttp.HandlerOpts{}))
		go func() {
			log.Info("metrics endpoint", "addr", cfg.Metrics.Addr)
			if err := http.ListenAndServe(cfg.Metrics.Addr, mux); err != nil {
				log.Error("metrics endpoint stopped", "error", err)
			}
		}()
	}

	log.Info("starting chunkdb",
		"version", version,
		"data_dir", cfg.Storage.DataDir,
		"chunk_divisor", cfg.Exec.ChunkDivisor,
	)
	return shell.New(cfg, store, ms, engine, os.Stdout, log), func() { _ = log.Sync() }
}

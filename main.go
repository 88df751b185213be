package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"todo-dag/app/config"
	"todo-dag/app/graph"
	"todo-dag/app/logging"
	"todo-dag/app/report"
	"todo-dag/app/server"
	"todo-dag/app/store"
)

// errRejected signals a rejected edge from the check command. It maps to
// exit status 2.
var errRejected = errors.New("dependency rejected")

func main() {
	if err := run(os.Stdout, os.Args[1:]); err != nil {
		if errors.Is(err, errRejected) {
			os.Exit(2)
		}
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

// run executes the CLI with args, writing command output to out.
func run(out io.Writer, args []string) error {
	root := newRootCmd(out)
	root.SetArgs(args)
	return root.Execute()
}

func newRootCmd(out io.Writer) *cobra.Command {
	root := &cobra.Command{
		Use:   "todo-dag",
		Short: "Task dependency graph service",
		Long: `todo-dag keeps tasks and their dependencies as a DAG, rejects edges that
would create a cycle, and derives earliest start times and the critical path.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.SetOut(out)
	root.AddCommand(newServeCmd(), newScheduleCmd(), newCheckCmd())
	return root
}

func newServeCmd() *cobra.Command {
	var configPath string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(configPath)
			if err != nil {
				return err
			}
			if err := cfg.ApplyFlags(cmd.Flags()); err != nil {
				return err
			}
			logger, err := logging.New(cfg.Log.Level, cfg.Log.Format)
			if err != nil {
				return err
			}
			defer logger.Sync()
			zap.ReplaceGlobals(logger)

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return server.Run(ctx, cfg, logger)
		},
	}
	cmd.Flags().StringVarP(&configPath, "config", "c", os.Getenv("TODO_DAG_CONFIG"), "YAML config file")
	config.RegisterFlags(cmd.Flags())
	return cmd
}

type snapshotFlags struct {
	file   string
	asJSON bool
}

func (f *snapshotFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&f.file, "file", "f", "", "YAML snapshot with tasks and dependencies")
	cmd.Flags().BoolVar(&f.asJSON, "json", false, "print JSON instead of text")
	cmd.MarkFlagRequired("file")
}

func (f *snapshotFlags) load(ctx context.Context) (*store.Memory, error) {
	return store.LoadMemory(ctx, f.file, nil)
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return errors.WithStack(enc.Encode(v))
}

func newScheduleCmd() *cobra.Command {
	var (
		flags snapshotFlags
		step  time.Duration
	)
	cmd := &cobra.Command{
		Use:   "schedule",
		Short: "Compute earliest starts and the critical path of a snapshot",
		RunE: func(cmd *cobra.Command, args []string) error {
			m, err := flags.load(cmd.Context())
			if err != nil {
				return err
			}
			tasks, deps, err := m.Snapshot(cmd.Context())
			if err != nil {
				return err
			}
			s, err := graph.Scheduler{Step: step}.Compute(tasks, deps)
			if err != nil {
				return err
			}
			if flags.asJSON {
				return writeJSON(cmd.OutOrStdout(), s)
			}
			report.Schedule(cmd.OutOrStdout(), s, deps)
			return nil
		},
	}
	flags.register(cmd)
	cmd.Flags().DurationVar(&step, "step", 0, "gap between a predecessor's finish and a dependent's start (0: one calendar day)")
	return cmd
}

func newCheckCmd() *cobra.Command {
	var (
		flags         snapshotFlags
		parent, child string
	)
	cmd := &cobra.Command{
		Use:   "check",
		Short: "Check whether a dependency could be added to a snapshot",
		RunE: func(cmd *cobra.Command, args []string) error {
			parentID, err := graph.ParseID(parent)
			if err != nil {
				return errors.Wrap(err, "--parent")
			}
			childID, err := graph.ParseID(child)
			if err != nil {
				return errors.Wrap(err, "--child")
			}
			m, err := flags.load(cmd.Context())
			if err != nil {
				return err
			}
			tasks, deps, err := m.Snapshot(cmd.Context())
			if err != nil {
				return err
			}

			d := graph.CheckNewEdge(graph.NewTaskIndex(tasks...), deps, parentID, childID)
			if flags.asJSON {
				if err := writeJSON(cmd.OutOrStdout(), d); err != nil {
					return err
				}
			} else {
				report.Decision(cmd.OutOrStdout(), d)
			}
			if !d.Accepted {
				return errRejected
			}
			return nil
		},
	}
	flags.register(cmd)
	cmd.Flags().StringVar(&parent, "parent", "", "id of the task that must finish first")
	cmd.Flags().StringVar(&child, "child", "", "id of the dependent task")
	cmd.MarkFlagRequired("parent")
	cmd.MarkFlagRequired("child")
	return cmd
}

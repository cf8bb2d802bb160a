package main

import (
	"context"
	"io"
	"os"

	"github.com/spf13/cobra"
	"github.com/wyfcoding/linecover/bootstrap"
	"github.com/wyfcoding/linecover/query"
)

var (
	runInput  string
	runOutput string
)

func newRunCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Execute a query stream in the text protocol",
		Long: `Reads "n q", n-1 tree edges and q queries, and prints one integer per
path check. Input defaults to stdin and output to stdout.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runBatch(cmd.Context(), cmd.InOrStdin(), cmd.OutOrStdout())
		},
	}
	cmd.Flags().StringVarP(&runInput, "input", "i", "", "input file (default stdin)")
	cmd.Flags().StringVarP(&runOutput, "output", "o", "", "output file (default stdout)")
	return cmd
}

func runBatch(ctx context.Context, stdin io.Reader, stdout io.Writer) (err error) {
	if ctx == nil {
		ctx = context.Background()
	}
	rt, err := bootstrap.Setup(ctx, configPath, "run")
	if err != nil {
		return err
	}
	defer func() { _ = rt.Close(context.Background()) }()

	in := stdin
	if runInput != "" {
		f, openErr := os.Open(runInput)
		if openErr != nil {
			return openErr
		}
		defer f.Close()
		in = f
	}

	out := stdout
	if runOutput != "" {
		f, createErr := os.Create(runOutput)
		if createErr != nil {
			return createErr
		}
		defer func() {
			if cerr := f.Close(); cerr != nil && err == nil {
				err = cerr
			}
		}()
		out = f
	}

	p := query.NewProcessor(
		query.WithLogger(rt.Slog()),
		query.WithRecorder(rt.Metrics),
	)
	_, err = p.Run(ctx, in, out)
	return err
}

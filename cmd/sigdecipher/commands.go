package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ytget/sigdecipher/auxmap"
	"github.com/ytget/sigdecipher/decipher"
	"github.com/ytget/sigdecipher/internal/jsoracle"
	"github.com/ytget/sigdecipher/internal/logger"
)

func newDecodeCmd(g *globalFlags) *cobra.Command {
	var (
		in     scriptInput
		verify bool
		stats  bool
	)
	cmd := &cobra.Command{
		Use:   "decode TOKEN...",
		Short: "Decipher tokens with the script's transform",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			key, script, err := in.load(g)
			if err != nil {
				return err
			}
			engine, err := newEngine(g)
			if err != nil {
				return err
			}
			table, err := engine.Resolve(key, script)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			for _, token := range args {
				plain, err := engine.Decode(key, token)
				if err != nil {
					return fmt.Errorf("decode %q: %w", token, err)
				}
				if verify {
					if err := jsoracle.Verify(table, token, plain); err != nil {
						return err
					}
				}
				fmt.Fprintln(out, plain)
			}
			if stats {
				return writeJSON(cmd.ErrOrStderr(), engine.Stats())
			}
			return nil
		},
	}
	in.register(cmd)
	cmd.Flags().BoolVar(&verify, "verify", false, "Cross-check every result with otto and goja (writes past the end of the array append here but leave holes in JavaScript, so such scripts report a mismatch)")
	cmd.Flags().BoolVar(&stats, "stats", false, "Print engine counters to stderr")
	return cmd
}

type inspectReport struct {
	Version   string           `json:"version"`
	Entry     functionReport   `json:"entry"`
	Helpers   []functionReport `json:"helpers"`
	Statement int              `json:"statements"`
}

type functionReport struct {
	Name       string   `json:"name"`
	Parameters []string `json:"parameters"`
	Body       string   `json:"body"`
}

func reportOf(fn *decipher.FunctionDescriptor) functionReport {
	return functionReport{Name: fn.Name, Parameters: fn.Parameters, Body: fn.Body}
}

func newInspectCmd(g *globalFlags) *cobra.Command {
	var (
		in     scriptInput
		asJSON bool
		emit   bool
	)
	cmd := &cobra.Command{
		Use:   "inspect",
		Short: "Show the entry function and helpers extracted from a script",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			key, script, err := in.load(g)
			if err != nil {
				return err
			}
			engine, err := newEngine(g)
			if err != nil {
				return err
			}
			table, err := engine.Resolve(key, script)
			if err != nil {
				return err
			}
			if err := jsoracle.Check(table); err != nil {
				logger.WithComponent(logger.ComponentApp).Warn("extracted table", logger.Fields{"error": err.Error()})
			}

			out := cmd.OutOrStdout()
			if emit {
				_, err := io.WriteString(out, table.Source())
				return err
			}

			stmts, err := table.Main.Statements()
			if err != nil {
				return err
			}
			report := inspectReport{Version: key, Entry: reportOf(table.Main), Statement: len(stmts)}
			for _, fn := range table.Helpers() {
				report.Helpers = append(report.Helpers, reportOf(fn))
			}
			if asJSON {
				return writeJSON(out, report)
			}
			fmt.Fprintf(out, "version: %s\n", report.Version)
			fmt.Fprintf(out, "entry:   %s(%s) %d statements\n", table.Main.Name, strings.Join(table.Main.Parameters, ","), len(stmts))
			for _, h := range report.Helpers {
				fmt.Fprintf(out, "helper:  %s(%s) {%s}\n", h.Name, strings.Join(h.Parameters, ","), h.Body)
			}
			return nil
		},
	}
	in.register(cmd)
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the report as JSON")
	cmd.Flags().BoolVar(&emit, "emit-js", false, "Print the extracted functions as standalone JavaScript")
	return cmd
}

func newAuxCmd() *cobra.Command {
	var (
		file   string
		asMap  bool
		asJSON bool
	)
	cmd := &cobra.Command{
		Use:   "aux KEY",
		Short: "Extract a value or map from a JSON or script blob",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var (
				data []byte
				err  error
			)
			if file == "" || file == "-" {
				data, err = io.ReadAll(cmd.InOrStdin())
			} else {
				data, err = os.ReadFile(file)
			}
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if asMap {
				entries, err := auxmap.ExtractMap(string(data), args[0])
				if err != nil {
					return err
				}
				if asJSON {
					return writeJSON(out, entries)
				}
				for i, e := range entries {
					for _, f := range e {
						fmt.Fprintf(out, "%d\t%s\t%s\n", i, f.Name, f.Value)
					}
				}
				return nil
			}

			v, err := auxmap.GetValue(string(data), args[0])
			if err != nil {
				return err
			}
			if asJSON {
				return writeJSON(out, v)
			}
			fmt.Fprintln(out, v.Text)
			return nil
		},
	}
	cmd.Flags().StringVarP(&file, "file", "f", "-", "Blob to read (- for stdin)")
	cmd.Flags().BoolVar(&asMap, "map", false, "Extract a comma-separated map instead of a scalar")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print JSON")
	return cmd
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/mikepea/diradmin/pkg/diradmin/directory"
)

var (
	exportFormat string
	exportOut    string

	importFormat string
	importIn     string
	importForce  bool
)

// exportCmd represents the export command
var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Write all groups, members and users as a transfer document.",
	RunE: func(cmd *cobra.Command, args []string) (err error) {
		format, err := directory.ParseFormat(exportFormat)
		if err != nil {
			return err
		}

		a, err := newApp()
		if err != nil {
			return err
		}
		defer a.close()

		svc, err := a.service()
		if err != nil {
			return err
		}
		data, err := svc.ExportData(context.Background())
		if err != nil {
			return err
		}

		var w io.Writer = cmd.OutOrStdout()
		if exportOut != "" && exportOut != "-" {
			f, ferr := os.Create(exportOut)
			if ferr != nil {
				return errors.Wrapf(ferr, "failed to create %s", exportOut)
			}
			defer closeOutput(f, exportOut, &err)
			w = f
		}

		if err := directory.EncodeData(w, data, format); err != nil {
			return err
		}
		a.log.Info("export written", zap.String("out", exportOut), zap.Int("groups", len(data.Groups)))
		return nil
	},
}

// closeOutput closes an export file; its error is reported unless *err is already set
func closeOutput(f io.Closer, name string, err *error) {
	if cerr := f.Close(); cerr != nil && *err == nil {
		*err = errors.Wrapf(cerr, "failed to write %s", name)
	}
}

// importCmd represents the import command
var importCmd = &cobra.Command{
	Use:   "import",
	Short: "Load a transfer document into the directory.",
	RunE: func(cmd *cobra.Command, args []string) error {
		format, err := directory.ParseFormat(importFormat)
		if err != nil {
			return err
		}

		var r io.Reader = cmd.InOrStdin()
		if importIn != "-" {
			f, err := os.Open(importIn)
			if err != nil {
				return errors.Wrapf(err, "failed to open %s", importIn)
			}
			defer f.Close()
			r = f
		}

		data, err := directory.DecodeData(r, format)
		if err != nil {
			return err
		}

		a, err := newApp()
		if err != nil {
			return err
		}
		defer a.close()

		svc, err := a.service()
		if err != nil {
			return err
		}
		result, err := svc.ImportData(context.Background(), data, importForce)
		if err != nil {
			return err
		}

		fmt.Fprintf(cmd.OutOrStdout(), "imported %d users, %d groups, %d members\n", result.Users, result.Groups, result.Members)
		return nil
	},
}

func init() {
	exportCmd.Flags().StringVar(&exportFormat, "format", "json", "output format: json or yaml")
	exportCmd.Flags().StringVarP(&exportOut, "out", "o", "", "output file (default stdout)")
	rootCmd.AddCommand(exportCmd)

	importCmd.Flags().StringVar(&importFormat, "format", "json", "input format: json or yaml")
	importCmd.Flags().StringVarP(&importIn, "in", "i", "", "input file, - for stdin")
	importCmd.Flags().BoolVar(&importForce, "force-delete", false, "delete all groups, memberships and group properties first")
	importCmd.MarkFlagRequired("in")
	rootCmd.AddCommand(importCmd)
}

package main

import (
	"encoding/json"
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

func newModelsCmd(a *app) *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "models",
		Short: "List models installed on the Ollama server",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			models, err := a.svc.ListModels(cmd.Context(), "")
			if err != nil {
				return err
			}
			if asJSON {
				return printJSON(a, models)
			}
			tw := tabwriter.NewWriter(a.out, 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "NAME\tSIZE\tFAMILY\tPARAMS\tQUANT")
			for _, m := range models {
				fmt.Fprintf(tw, "%s\t%d\t%s\t%s\t%s\n", m.Name, m.Size, m.Details.Family, m.Details.ParameterSize, m.Details.QuantizationLevel)
			}
			return tw.Flush()
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print JSON")
	return cmd
}

func newPingCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "ping",
		Short: "Check that the Ollama server answers",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			st := a.svc.TestConnection(cmd.Context(), "")
			fmt.Fprintln(a.out, st.Message)
			if !st.OK {
				return fmt.Errorf("ollama unreachable at %s", a.cfg.APIURL)
			}
			return nil
		},
	}
}

func newInfoCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "info <file>",
		Short: "Show image file metadata",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return printJSON(a, a.svc.ImageInfo(args[0]))
		},
	}
}

func newDataURLCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "data-url <file>",
		Short: "Print an image file as a base64 data URL",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			u, err := a.svc.ReadImageDataURL(args[0])
			if err != nil {
				return err
			}
			fmt.Fprintln(a.out, u)
			return nil
		},
	}
}

func printJSON(a *app, v any) error {
	enc := json.NewEncoder(a.out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

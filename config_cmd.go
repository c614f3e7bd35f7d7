package main

import (
	"github.com/spf13/cobra"

	"github.com/tonimelisma/zentty-go/internal/config"
)

func newConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Inspect configuration",
	}

	cmd.AddCommand(newConfigShowCmd())

	return cmd
}

func newConfigShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Display effective configuration after all overrides",
		Args:  cobra.NoArgs,
		RunE:  runConfigShow,
	}
}

func runConfigShow(cmd *cobra.Command, _ []string) error {
	cc := mustCLIContext(cmd.Context())

	if cc.Flags.JSON {
		out := *cc.Cfg
		// Never echo the session code.
		out.SessionCode = ""

		return printJSON(cc.Out, out)
	}

	return config.RenderEffective(cc.Cfg, cc.Out)
}

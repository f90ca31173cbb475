package main

import (
	"fmt"
	"io"

	"github.com/c2h5oh/datasize"
	"github.com/jedib0t/go-pretty/table"
	"github.com/spf13/cobra"

	"github.com/yanet-platform/logsubsys/logging"
	"github.com/yanet-platform/logsubsys/subsys"
)

func newShowCmd(cmd *Cmd) *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Show effective levels of every subsystem",
		Args:  cobra.NoArgs,
		RunE: func(c *cobra.Command, _ []string) error {
			subsystems, _, err := cmd.loadMap()
			if err != nil {
				return err
			}

			renderTable(c.OutOrStdout(), subsystems)
			return nil
		},
	}
}

func renderTable(w io.Writer, subsystems *subsys.Map) {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleLight)

	t.AppendHeader(table.Row{"ID", "Subsystem", "Log/Gather", "Effective", "Default"})
	for _, e := range logging.Snapshot(subsystems) {
		levels := logging.Levels{Log: e.Log, Gather: e.Gather}

		t.AppendRow(table.Row{e.ID, e.Name, levels.String(), e.Effective, e.Default.String()})
	}
	t.AppendFooter(table.Row{
		"", fmt.Sprintf("%d subsystems", subsystems.Len()),
		"", datasize.ByteSize(subsystems.Footprint()).HumanReadable(), "",
	})

	t.Render()
}

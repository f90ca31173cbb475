package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/yanet-platform/logsubsys/subsys"
)

func newCheckCmd(cmd *Cmd) *cobra.Command {
	var name string
	var level int

	c := &cobra.Command{
		Use:   "check",
		Short: "Check whether a message at the given level would be produced",
		Args:  cobra.NoArgs,
		RunE: func(c *cobra.Command, _ []string) error {
			subsystems, _, err := cmd.loadMap()
			if err != nil {
				return err
			}

			return check(c.OutOrStdout(), subsystems, name, level)
		},
	}

	c.Flags().StringVarP(&name, "subsys", "s", "", "Subsystem name (required)")
	c.Flags().IntVarP(&level, "level", "l", 0, "Message level")
	c.MarkFlagRequired("subsys")

	return c
}

func check(w io.Writer, subsystems *subsys.Map, name string, level int) error {
	id, ok := subsystems.Lookup(name)
	if !ok {
		return fmt.Errorf("unknown subsystem %q", name)
	}

	verdict := "dropped"
	switch {
	case !subsystems.ShouldGather(id, level):
	case level <= int(subsystems.LogLevel(id)):
		verdict = "logged"
	default:
		verdict = "gathered"
	}

	_, err := fmt.Fprintf(w, "%-*s level %d: %s\n", subsystems.MaxNameLen(), name, level, verdict)
	return err
}

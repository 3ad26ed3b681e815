package kv

import (
	"fmt"

	"github.com/ValentinKolb/rKV/cmd/util"
	"github.com/ValentinKolb/rKV/lib/fault"
	"github.com/spf13/cobra"
)

var (
	setCmd = &cobra.Command{
		Use:   "set [name] [value]",
		Short: "Sets the value for a name. Values that are not valid JSON are stored as strings",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := session.Store.Put(args[0], util.ParseValue(args[1])); err != nil {
				return err
			}
			fmt.Fprintln(cmd.ErrOrStderr(), "set successfully")
			return nil
		},
	}
	getCmd = &cobra.Command{
		Use:   "get [name]",
		Short: "Reads the value for a name",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var value any
			found, err := session.Store.Load(args[0], &value)
			if err != nil {
				return err
			}
			if !found {
				return fault.Newf(fault.CodeDomain, "%q is not set", args[0])
			}
			return util.Print(cmd.OutOrStdout(), value)
		},
	}
	delCmd = &cobra.Command{
		Use:   "del [name]",
		Short: "Deletes the value for a name",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			session.Store.Remove(args[0])
			fmt.Fprintln(cmd.ErrOrStderr(), "delete successfully")
			return nil
		},
	}
	listCmd = &cobra.Command{
		Use:   "list",
		Short: "Lists all names in the namespace",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			names := session.Store.Names()
			if util.OutputIsText() {
				for _, name := range names {
					fmt.Fprintln(cmd.OutOrStdout(), name)
				}
				return nil
			}
			return util.Print(cmd.OutOrStdout(), names)
		},
	}
	clearCmd = &cobra.Command{
		Use:   "clear",
		Short: "Deletes all values in the namespace. Other keys of the medium are kept",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			n := len(session.Store.Names())
			session.Store.Clear()
			fmt.Fprintf(cmd.ErrOrStderr(), "cleared %d value(s)\n", n)
			return nil
		},
	}
)

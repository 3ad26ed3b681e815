package entities

import (
	"encoding/json"
	"fmt"

	"github.com/ValentinKolb/rKV/cmd/util"
	"github.com/ValentinKolb/rKV/lib/collection"
	"github.com/ValentinKolb/rKV/lib/fault"
	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

var (
	addCmd = &cobra.Command{
		Use:   "add [collection] [json]",
		Short: "Adds an entity. A random id is generated if the object has none",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := records(args[0])
			if err != nil {
				return err
			}
			var r collection.Record
			if err := parseObject(args[1], &r); err != nil {
				return err
			}
			if r == nil {
				return fault.New(fault.CodeDomain, "expected a JSON object")
			}
			if r.EntityID() == "" {
				r[collection.IDField] = uuid.NewString()
			}
			c.Add(r)
			return util.Print(cmd.OutOrStdout(), r.EntityID())
		},
	}
	editCmd = &cobra.Command{
		Use:   "edit [collection] [id] [json]",
		Short: "Merges the fields of the object into the entity",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := records(args[0])
			if err != nil {
				return err
			}
			if _, found := c.Get(args[1]); !found {
				return notFound(args[0], args[1])
			}
			var changes collection.Changes
			if err := parseObject(args[2], &changes); err != nil {
				return err
			}
			c.Edit(args[1], changes)
			r, _ := c.Get(args[1])
			return util.Print(cmd.OutOrStdout(), r)
		},
	}
	rmCmd = &cobra.Command{
		Use:   "rm [collection] [id]",
		Short: "Removes every entity with the id",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := records(args[0])
			if err != nil {
				return err
			}
			before := c.Len()
			c.Remove(args[1])
			fmt.Fprintf(cmd.ErrOrStderr(), "removed %d entity(s)\n", before-c.Len())
			return nil
		},
	}
	getCmd = &cobra.Command{
		Use:   "get [collection] [id]",
		Short: "Prints the entity with the id",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := records(args[0])
			if err != nil {
				return err
			}
			r, found := c.Get(args[1])
			if !found {
				return notFound(args[0], args[1])
			}
			return util.Print(cmd.OutOrStdout(), r)
		},
	}
	listCmd = &cobra.Command{
		Use:   "list [collection]",
		Short: "Prints all entities of the collection",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := records(args[0])
			if err != nil {
				return err
			}
			return util.Print(cmd.OutOrStdout(), c.All())
		},
	}
	clearCmd = &cobra.Command{
		Use:   "clear [collection]",
		Short: "Removes all entities of the collection",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := records(args[0])
			if err != nil {
				return err
			}
			c.Clear()
			fmt.Fprintln(cmd.ErrOrStderr(), "clear successfully")
			return nil
		},
	}
	hasAnyCmd = &cobra.Command{
		Use:   "has-any [collection]...",
		Short: "Prints whether at least one of the collections has entities",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			sizers := make([]collection.Sizer, 0, len(args))
			for _, name := range args {
				c, err := records(name)
				if err != nil {
					return err
				}
				sizers = append(sizers, c)
			}
			return util.Print(cmd.OutOrStdout(), collection.HasAny(sizers...))
		},
	}
)

func parseObject(arg string, out any) error {
	if err := json.Unmarshal([]byte(arg), out); err != nil {
		return fault.Newf(fault.CodeDomain, "expected a JSON object: %s", err)
	}
	return nil
}

func notFound(collectionName, id string) error {
	return fault.Newf(fault.CodeDomain, "no entity %q in %q", id, collectionName)
}

package entities

import (
	"github.com/ValentinKolb/rKV/cmd/util"
	"github.com/ValentinKolb/rKV/lib/collection"
	"github.com/spf13/cobra"
)

var (
	session *util.Session

	// EntityCommands represents the entity collection command group
	EntityCommands = &cobra.Command{
		Use:   "entities",
		Short: "Manage collections of entities",
		Long: `Manage collections of entities.

Entities are JSON objects identified by their "id" field. A collection is
stored as one JSON array under its name in the namespace.`,
		PersistentPreRunE:  openSession,
		PersistentPostRunE: closeSession,
	}
)

func init() {
	util.SetupStoreFlags(EntityCommands)

	EntityCommands.AddCommand(addCmd)
	EntityCommands.AddCommand(editCmd)
	EntityCommands.AddCommand(rmCmd)
	EntityCommands.AddCommand(getCmd)
	EntityCommands.AddCommand(listCmd)
	EntityCommands.AddCommand(clearCmd)
	EntityCommands.AddCommand(hasAnyCmd)
}

func openSession(cmd *cobra.Command, _ []string) (err error) {
	session, err = util.OpenSession(cmd)
	return err
}

func closeSession(*cobra.Command, []string) error {
	return session.Close()
}

// records returns the collection stored under name
func records(name string) (*collection.Store[collection.Record, string], error) {
	return collection.NewShared[collection.Record, string](session.Registry, name)
}

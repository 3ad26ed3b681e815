package watch

import (
	"context"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/ValentinKolb/rKV/cmd/util"
	"github.com/ValentinKolb/rKV/lib/reactive"
	"github.com/spf13/cobra"
)

// update is one printed change of a watched value
type update struct {
	Name  string `json:"name" yaml:"name"`
	Value any    `json:"value" yaml:"value"`
}

// WatchCmd prints every change of the given values until interrupted
var WatchCmd = &cobra.Command{
	Use:   "watch [name]...",
	Short: "Prints the values and every later change, including changes made by other processes",
	Long: `Prints the current value of each name and then every change, including
changes made by other processes on the same medium, until interrupted.

Changes by other processes are only seen on shared media (fs, sqlite).`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		session, err := util.OpenSession(cmd)
		if err != nil {
			return err
		}
		defer session.Close()

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		var mu sync.Mutex
		out := cmd.OutOrStdout()

		for _, name := range args {
			v, err := reactive.Shared[any](session.Registry, name, nil)
			if err != nil {
				return err
			}
			unsubscribe := v.Subscribe(func(value any) {
				mu.Lock()
				defer mu.Unlock()
				_ = util.Print(out, update{Name: name, Value: value})
			})
			defer unsubscribe()
		}

		<-ctx.Done()
		return nil
	},
}

func init() {
	util.SetupStoreFlags(WatchCmd)
}

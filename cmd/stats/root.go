package stats

import (
	"sort"

	"github.com/ValentinKolb/rKV/cmd/util"
	"github.com/ValentinKolb/rKV/lib/kvstore"
	"github.com/spf13/cobra"
)

// namespaceStats describes the stored values of a namespace
type namespaceStats struct {
	Prefix  string        `json:"prefix" yaml:"prefix"`
	Medium  string        `json:"medium" yaml:"medium"`
	Names   int           `json:"names" yaml:"names"`
	Bytes   int           `json:"bytes" yaml:"bytes"`
	Largest []nameSize    `json:"largest" yaml:"largest"`
	Store   kvstore.Stats `json:"store" yaml:"store"`
}

type nameSize struct {
	Name  string `json:"name" yaml:"name"`
	Bytes int    `json:"bytes" yaml:"bytes"`
}

// largestCount is how many of the largest values are listed
const largestCount = 5

// StatsCmd prints statistics of the namespace
var StatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Prints statistics of the namespace",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		session, err := util.OpenSession(cmd)
		if err != nil {
			return err
		}
		defer session.Close()

		s := session.Store
		if prometheus, _ := cmd.Flags().GetBool("prometheus"); prometheus {
			collect(s)
			s.WriteMetrics(cmd.OutOrStdout())
			return nil
		}
		return util.PrintAs(cmd.OutOrStdout(), outputFormat(), collect(s))
	},
}

func init() {
	util.SetupStoreFlags(StatsCmd)
	StatsCmd.Flags().Bool("prometheus", false, util.WrapString("Print the store metrics in Prometheus text format"))
}

// collect reads every value of the namespace
func collect(s *kvstore.Store) namespaceStats {
	stats := namespaceStats{
		Prefix: s.Prefix(),
		Medium: s.Medium().Origin(),
	}
	var sizes []nameSize
	for _, name := range s.Names() {
		raw, ok := s.Raw(name)
		if !ok {
			continue
		}
		stats.Names++
		stats.Bytes += len(raw)
		sizes = append(sizes, nameSize{Name: name, Bytes: len(raw)})
	}

	sort.Slice(sizes, func(i, j int) bool { return sizes[i].Bytes > sizes[j].Bytes })
	if len(sizes) > largestCount {
		sizes = sizes[:largestCount]
	}
	stats.Largest = sizes
	stats.Store = s.Stats()
	return stats
}

// outputFormat prints structured stats as yaml unless another format is set
func outputFormat() string {
	if util.OutputIsText() {
		return "yaml"
	}
	return util.CurrentOutput()
}

package cli

import (
	"encoding/json"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/fedstack/tensordb/pkg/sdk"
	"github.com/fedstack/tensordb/tensor"
)

var (
	tsdk     AggSDK
	function string
	origin   string
	report   bool
	tags     []string
)

// AggSDK is the client the commands talk through.
type AggSDK = sdk.SDK

// SetSDK injects the coordinator SDK used by all commands.
func SetSDK(s sdk.SDK) {
	tsdk = s
}

// NewTensorsCmd builds the tensors command tree.
func NewTensorsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tensors [keys|dump|lookup|aggregate|evict]",
		Short: "Tensor store operations",
		Long:  `Inspect and operate the coordinator's tensor store.`,
	}

	keysCmd := &cobra.Command{
		Use:   "keys",
		Short: "List stored tensor keys",
		Long:  `List the keys of all stored records, payloads excluded.`,
		Run: func(cmd *cobra.Command, _ []string) {
			keys, err := tsdk.ListKeys()
			if err != nil {
				logErrorCmd(*cmd, err)

				return
			}
			logJSONCmd(*cmd, keys)
		},
	}

	dumpCmd := &cobra.Command{
		Use:   "dump",
		Short: "Dump the store contents",
		Long:  `Print the plain-text diagnostic dump of all stored keys.`,
		Run: func(cmd *cobra.Command, _ []string) {
			dump, err := tsdk.Dump()
			if err != nil {
				logErrorCmd(*cmd, err)

				return
			}
			cmd.Println(dump)
		},
	}

	lookupCmd := &cobra.Command{
		Use:   "lookup <name> <round>",
		Short: "Look up a tensor",
		Long: `Look up the tensor cached under an exact key.

Examples:
  tensordb-cli tensors lookup conv1.weight 3 --origin agg
  tensordb-cli tensors lookup conv1.weight 3 --origin agg --tags trained,col-1`,
		Run: func(cmd *cobra.Command, args []string) {
			if len(args) != 2 {
				logUsageCmd(*cmd, cmd.Use)

				return
			}
			round, err := strconv.ParseUint(args[1], 10, 64)
			if err != nil {
				logErrorCmd(*cmd, err)

				return
			}

			value, err := tsdk.Lookup(tensor.NewKey(args[0], origin, round, report, tags...))
			if err != nil {
				logErrorCmd(*cmd, err)

				return
			}
			logJSONCmd(*cmd, value)
		},
	}

	aggregateCmd := &cobra.Command{
		Use:   "aggregate <name> <round> <weights-json>",
		Short: "Request an aggregated tensor",
		Long: `Request the aggregate for a key. Weights are a JSON object of
collaborator IDs to weights summing to 1.0.

Examples:
  tensordb-cli tensors aggregate conv1.weight 3 '{"col-1":0.5,"col-2":0.5}'
  tensordb-cli tensors aggregate conv1.weight 3 '{"col-1":0.5,"col-2":0.5}' --function geometric_median`,
		Run: func(cmd *cobra.Command, args []string) {
			if len(args) != 3 {
				logUsageCmd(*cmd, cmd.Use)

				return
			}
			round, err := strconv.ParseUint(args[1], 10, 64)
			if err != nil {
				logErrorCmd(*cmd, err)

				return
			}
			var weights map[string]float64
			if err := json.Unmarshal([]byte(args[2]), &weights); err != nil {
				logErrorCmd(*cmd, err)

				return
			}

			key := tensor.NewKey(args[0], origin, round, report, tags...)
			value, ready, err := tsdk.GetAggregated(key, weights, function)
			if err != nil {
				logErrorCmd(*cmd, err)

				return
			}
			if !ready {
				cmd.Println("not ready: contributions are still missing, retry later")

				return
			}
			logJSONCmd(*cmd, value)
		},
	}

	evictCmd := &cobra.Command{
		Use:   "evict <older-than>",
		Short: "Evict stale rounds",
		Long:  `Drop records older than the sliding round window.`,
		Run: func(cmd *cobra.Command, args []string) {
			if len(args) != 1 {
				logUsageCmd(*cmd, cmd.Use)

				return
			}
			olderThan, err := strconv.Atoi(args[0])
			if err != nil {
				logErrorCmd(*cmd, err)

				return
			}

			removed, err := tsdk.Evict(olderThan)
			if err != nil {
				logErrorCmd(*cmd, err)

				return
			}
			logJSONCmd(*cmd, map[string]int{"removed": removed})
		},
	}

	for _, c := range []*cobra.Command{lookupCmd, aggregateCmd} {
		c.Flags().StringVar(&origin, "origin", "", "key origin")
		c.Flags().BoolVar(&report, "report", false, "report flag")
		c.Flags().StringSliceVar(&tags, "tags", []string{}, "key tags (comma-separated, order matters)")
	}
	aggregateCmd.Flags().StringVar(&function, "function", "", "aggregation function name (default weighted_average)")

	cmd.AddCommand(keysCmd, dumpCmd, lookupCmd, aggregateCmd, evictCmd)

	return cmd
}

// NewHealthCmd builds the health check command.
func NewHealthCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "health",
		Short: "Coordinator health",
		Long:  `Check the coordinator's health endpoint.`,
		Run: func(cmd *cobra.Command, _ []string) {
			res, err := tsdk.Health()
			if err != nil {
				logErrorCmd(*cmd, err)

				return
			}
			logJSONCmd(*cmd, res)
		},
	}
}

package commands

import (
	"strings"

	"github.com/spf13/cobra"

	"github.com/Sumatoshi-tech/ranktest/pkg/alg/utest"
	"github.com/Sumatoshi-tech/ranktest/pkg/observability"
	"github.com/Sumatoshi-tech/ranktest/pkg/samplefile"
)

const (
	rankCmdUse   = "rank <values>..."
	rankCmdShort = "Print mid-ranks of a list of observations"
	rankCmdLong  = `Sort observations ascending and assign mid-ranks: tied values share the
mean of the positions they occupy.

Examples:
  ranktest rank 5,2,1,2,2
  ranktest rank 5 2 1 2 2 --format json`
)

func newRankCommand(root *rootOptions) *cobra.Command {
	var output outputFlags

	cmd := &cobra.Command{
		Use:   rankCmdUse,
		Short: rankCmdShort,
		Long:  rankCmdLong,
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := root.setup(cmd, observability.ModeCLI)
			if err != nil {
				return err
			}

			defer a.close()

			rdr, err := output.renderer(a)
			if err != nil {
				return err
			}

			values, err := samplefile.ParseList(strings.Join(args, ","))
			if err != nil {
				return err
			}

			err = utest.Sample(values).Validate()
			if err != nil {
				return err
			}

			return rdr.Ranks(cmd.OutOrStdout(), utest.Rank(values))
		},
	}

	output.register(cmd)

	return cmd
}

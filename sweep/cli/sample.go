package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/twitter/sweep/common/client"
	sweeperror "github.com/twitter/sweep/common/errors"
	"github.com/twitter/sweep/sweep/starter"
)

// sampleCmd is a dry run: it draws the sample a run would sweep and prints it.
type sampleCmd struct {
	configFlags
}

func (c *sampleCmd) RegisterFlags() *cobra.Command {
	r := &cobra.Command{
		Use:   "sample",
		Short: "Print the combinations a run with this config would sweep",
	}
	c.register(r)
	return r
}

func (c *sampleCmd) Run(cl *client.SimpleClient, cmd *cobra.Command, args []string) error {
	cfg, err := c.load(cl, cmd)
	if err != nil {
		return sweeperror.NewError(err, sweeperror.ConfigFailureExitCode)
	}
	if err := cfg.Validate(); err != nil {
		return sweeperror.NewError(err, sweeperror.ConfigFailureExitCode)
	}
	sample, grid, err := starter.Sample(cfg)
	if err != nil {
		return sweeperror.NewError(err, sweeperror.ConfigFailureExitCode)
	}

	fmt.Fprintf(cl.Out, "Numeric symmetric prior %.6g, asymmetric prior %.6g over %d topic counts\n",
		grid.NumericSymmetric(), grid.NumericAsymmetric(), grid.NumTopics())
	fmt.Fprintf(cl.Out, "The random sample contains %d combinations. This leaves %d undrawn.\n", len(sample.Sampled), len(sample.Remainder))
	for i, combo := range sample.Sampled {
		fmt.Fprintf(cl.Out, "%d\t%s\n", i+1, combo)
	}
	return nil
}

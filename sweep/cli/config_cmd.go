package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/twitter/sweep/common/client"
	sweeperror "github.com/twitter/sweep/common/errors"
)

type configCmd struct {
	configFlags
	validate bool
}

func (c *configCmd) RegisterFlags() *cobra.Command {
	r := &cobra.Command{
		Use:   "config",
		Short: "Print the effective config as YAML",
	}
	c.register(r)
	r.Flags().BoolVar(&c.validate, "validate", false, "Also fail if the config is invalid")
	return r
}

func (c *configCmd) Run(cl *client.SimpleClient, cmd *cobra.Command, args []string) error {
	cfg, err := c.load(cl, cmd)
	if err != nil {
		return sweeperror.NewError(err, sweeperror.ConfigFailureExitCode)
	}
	fmt.Fprint(cl.Out, cfg.String())
	if c.validate {
		if err := cfg.Validate(); err != nil {
			return sweeperror.NewError(err, sweeperror.ConfigFailureExitCode)
		}
	}
	return nil
}

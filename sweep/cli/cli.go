package cli

import (
	"io"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	commoncli "github.com/twitter/sweep/common/client"
)

// SweepCLIClient includes fields required for CLI client handling
type SweepCLIClient struct {
	commoncli.SimpleClient
}

func (c *SweepCLIClient) Exec() error {
	return c.RootCmd.Execute()
}

func NewSimpleCLIClient(out io.Writer) (commoncli.CLIClient, error) {
	c := &SweepCLIClient{}
	c.Out = out

	c.RootCmd = &cobra.Command{
		Use:               "sweep",
		Short:             "sweep runs an adaptive grid search over topic model hyperparameters",
		PersistentPreRunE: c.Init,
		SilenceUsage:      true,
		Run:               func(*cobra.Command, []string) {},
	}
	c.RootCmd.SetOutput(out)
	c.RootCmd.PersistentFlags().StringVar(&c.LogLevel, "log_level", "info", "Log everything at this level and above (error|info|debug)")
	c.RootCmd.PersistentFlags().StringVar(&c.Preset, "preset", "default", "Named configuration to start from")
	c.RootCmd.PersistentFlags().StringVar(&c.ConfigFile, "config", "", "YAML or JSON file overlaid on the preset")

	c.addCmd(&runCmd{})
	c.addCmd(&sampleCmd{})
	c.addCmd(&configCmd{})

	return c, nil
}

// Can only be called from cobra command run or hook
func (c *SweepCLIClient) Init(cmd *cobra.Command, args []string) error {
	level, err := log.ParseLevel(c.LogLevel)
	if err != nil {
		log.Error(err)
		return err
	}
	log.SetLevel(level)
	return nil
}

func (c *SweepCLIClient) addCmd(cmd commoncli.Cmd) {
	cobraCmd := cmd.RegisterFlags()
	cobraCmd.RunE = func(innerCmd *cobra.Command, args []string) error {
		return cmd.Run(&c.SimpleClient, innerCmd, args)
	}
	c.RootCmd.AddCommand(cobraCmd)
}

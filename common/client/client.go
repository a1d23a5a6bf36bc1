package client

import (
	"io"

	"github.com/spf13/cobra"

	"github.com/twitter/sweep/config"
)

// Client interface that includes CLI handling
type CLIClient interface {
	Exec() error
}

// SimpleClient includes base fields required for implementing client
type SimpleClient struct {
	RootCmd    *cobra.Command
	LogLevel   string
	Preset     string
	ConfigFile string
	// Command output that is not logging goes here.
	Out io.Writer
}

// Config loads the preset and config file selected by the persistent flags.
func (c *SimpleClient) Config() (config.Config, error) {
	return config.Load(c.Preset, c.ConfigFile)
}

// Command interface used to run client commands
type Cmd interface {
	RegisterFlags() *cobra.Command
	Run(cl *SimpleClient, cmd *cobra.Command, args []string) error
}

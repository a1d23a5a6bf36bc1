package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/twitter/sweep/common/client"
	sweeperror "github.com/twitter/sweep/common/errors"
	"github.com/twitter/sweep/common/log/logfile"
	"github.com/twitter/sweep/sweep/starter"
)

type runCmd struct {
	configFlags
	logToStderr bool
}

func (c *runCmd) RegisterFlags() *cobra.Command {
	r := &cobra.Command{
		Use:   "run",
		Short: "Partition the corpus and sweep the sampled hyperparameter grid",
	}
	c.register(r)
	r.Flags().BoolVar(&c.logToStderr, "log_to_stderr", false, "Keep logging to stderr instead of the run's log file")
	return r
}

func (c *runCmd) Run(cl *client.SimpleClient, cmd *cobra.Command, args []string) error {
	cfg, err := c.load(cl, cmd)
	if err != nil {
		return sweeperror.NewError(err, sweeperror.ConfigFailureExitCode)
	}

	if !c.logToStderr {
		path, closer, err := logfile.Setup(cfg.Dirs().Log, time.Now(), true)
		if err != nil {
			return sweeperror.NewError(fmt.Errorf("setting up log file: %v", err), sweeperror.ConfigFailureExitCode)
		}
		defer closer.Close()
		fmt.Fprintf(cl.Out, "Logging to %s\n", path)
	}
	log.Infof("Effective config:\n%s", cfg)

	s := starter.NewStarter(cfg)
	s.Out = cl.Out
	log.Infof("Run id %s", s.RunID())

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if _, err = s.Run(ctx); err != nil {
		// Record the failure in the run's log before the file is closed.
		log.Errorf("Sweep run failed: %v", err)
	}
	return err
}

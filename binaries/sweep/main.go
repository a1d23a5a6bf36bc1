package main

import (
	"os"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"

	sweeperror "github.com/twitter/sweep/common/errors"
	"github.com/twitter/sweep/common/log/hooks"
	"github.com/twitter/sweep/sweep/cli"
)

// CLI binary for topic model hyperparameter sweeps
//	Supported commands: (see "-h" for all options)
//		run     partition the corpus and sweep the sampled grid
//		sample  print the combinations a run would sweep
//		config  print the effective config
//	Global flags:
//		--preset [named configuration to start from]
//		--config [YAML or JSON file overlaid on the preset]
//		--log_level [<error|info|debug> level and above should be logged]

func main() {
	log.AddHook(hooks.NewContextHook())

	cl, err := cli.NewSimpleCLIClient(os.Stdout)
	if err != nil {
		log.Fatal("Failed to create sweep CLI client: ", err)
	}

	if err := cl.Exec(); err != nil {
		code := sweeperror.GenericFailureExitCode
		var exitErr *sweeperror.ExitCodeError
		if errors.As(err, &exitErr) {
			code = exitErr.GetExitCode()
		}
		log.Errorf("Error running sweep (exit code %d): %v", code, err)
		os.Exit(int(code))
	}
}

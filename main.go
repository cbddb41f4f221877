// main is the entrypoint for the churnmill CLI.
package main

import (
	"github.com/huangsam/churnmill/cmd"
	"github.com/huangsam/churnmill/internal/contract"
	"github.com/huangsam/churnmill/internal/iohistory"
)

func main() {
	// Commands resolve the run-history store through this manager.
	cmd.SetStoreManager(iohistory.Manager)

	err := cmd.Execute()

	if perr := cmd.StopProfiling(); perr != nil {
		contract.LogWarn("Failed to stop profiling", perr)
	}
	iohistory.CloseStores()

	if err != nil {
		contract.LogFatal("Command failed", err)
	}
}

package main

import (
	cmd "github.com/thumbtrend/thumbtrend/cmd/thumbtrend"
	"github.com/thumbtrend/thumbtrend/internal"
)

var log = internal.GetLogger()

func main() {
	log.Info("Starting thumbtrend")
	cmd.Execute()
}

package main

import (
	cmd "github.com/amrlabs/amrd/cmd/amrd"
	"github.com/amrlabs/amrd/internal"
)

var log = internal.GetLogger()

func main() {
	log.Info("Starting amrd")
	cmd.Execute()
}

package main

import (
	"github.com/sidkik/casync-sync/cmd"
	"github.com/sidkik/casync-sync/cmd/util"
)

func main() {
	defer util.HandlePanic()
	cmd.Execute()
}

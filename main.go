// Package main is the entry point for cadence.
package main

import (
	"github.com/cadence-bot/cadence/cmd"
	"github.com/cadence-bot/cadence/config"
	"github.com/cadence-bot/cadence/log"
	"github.com/samber/lo"
)

func main() {
	lo.Must0(config.Setup())
	lo.Must0(log.Setup())

	cmd.Execute()
}

package main

import (
	"dualmode-renderer/internal/log"

	"github.com/urfave/cli"
)

var logger = log.New("render")

func setupLogging(ctx *cli.Context) {
	if ctx.GlobalBool("v") {
		log.SetLevel(log.Info)
	}

	if ctx.GlobalBool("vv") {
		log.SetLevel(log.Debug)
	}
}

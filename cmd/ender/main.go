package main

import (
	"os"

	zlog "github.com/rs/zerolog/log"
)

func main() {
	if err := NewRootCommand().Execute(); err != nil {
		zlog.Error().Err(err).Msg("ender exited with error")
		os.Exit(1)
	}
}

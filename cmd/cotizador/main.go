package main

import (
	"os"
	_ "time/tzdata"

	"github.com/ecoalliance/cotizador/cmd/cotizador/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		os.Exit(1)
	}
}

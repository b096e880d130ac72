package main

import (
	"os"

	"github.com/hpkotak/sqlbud/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}

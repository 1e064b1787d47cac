package main

import (
	"flag"

	"github.com/justyntemme/loupe/internal/app"
)

func main() {
	flag.Usage = usage
	flag.Parse()

	// Handle OS-specific console visibility
	manageConsole()

	// Optional start folder; the last session's path is restored otherwise
	app.Main(flag.Arg(0))
}

package main

import (
	"flag"
	"fmt"
	"os"
)

func usage() {
	fmt.Fprintf(os.Stderr, "Usage: %s [folder]\n\n", os.Args[0])
	fmt.Fprintln(os.Stderr, "Opens the file browser at the given folder, or at the last")
	fmt.Fprintln(os.Stderr, "visited folder when none is given.")
	flag.PrintDefaults()
}

package main

import (
	"fmt"
	"os"
)

// The host is a thin shell around the vm package: the first argument picks
// a subcommand.
func usage() {
	fmt.Println("Usage:")
	fmt.Println("  backseater [-debug] <rom-file>   run (or single-step debug) a ROM")
	fmt.Println("  backseater emit <out-file>       write a demo ROM")
	fmt.Println("  backseater json <out-file>       write the opcode/constant catalog")
}

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(1)
	}

	switch os.Args[1] {
	case "emit":
		if len(os.Args) != 3 {
			fmt.Println("Usage: backseater emit <out-file>")
			os.Exit(1)
		}
		if err := runEmit(os.Args[2]); err != nil {
			fmt.Println(err)
			os.Exit(1)
		}
	case "json":
		if len(os.Args) != 3 {
			fmt.Println("Usage: backseater json <out-file>")
			os.Exit(1)
		}
		if err := runJSON(os.Args[2]); err != nil {
			fmt.Println(err)
			os.Exit(1)
		}
	case "-h", "--help", "help":
		usage()
	default:
		if err := runROM(os.Args[1:]); err != nil {
			fmt.Println(err)
			os.Exit(1)
		}
	}
}

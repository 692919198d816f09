// Package main provides the strider CLI.
package main

import (
	"flag"
	"fmt"
	"os"

	"k8s.io/klog/v2"
)

const version = "v0.1.0-dev"

func main() {
	klog.InitFlags(nil)
	flag.Parse()
	defer klog.Flush()

	args := flag.Args()
	if len(args) == 0 {
		usage()
		return
	}

	switch args[0] {
	case "version":
		fmt.Printf("strider %s\n", version)
	case "selftest":
		if err := selftest(os.Stdout); err != nil {
			klog.Errorf("selftest failed: %+v", err)
			os.Exit(1)
		}
	default:
		fmt.Fprintf(os.Stderr, "unknown command %q\n\n", args[0])
		usage()
		os.Exit(2)
	}
}

func usage() {
	fmt.Println("strider - array views and host/accelerator transfers for Go")
	fmt.Printf("Version: %s\n\n", version)
	fmt.Println("Usage: strider [klog flags] <command>")
	fmt.Println("")
	fmt.Println("Commands:")
	fmt.Println("  version    Show version")
	fmt.Println("  selftest   Run transfer, view, mask and scalar checks on the emulated accelerator")
	fmt.Println("")
	fmt.Println("Set STRIDER_SYNC=1 to wait for the accelerator after every transfer.")
}

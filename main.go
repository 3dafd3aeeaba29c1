// Package main is the entry point for the zkmutant CLI.
package main

import "zkmutant.dev/pkg/zkmutant/cmd"

func main() {
	cmd.Execute()
}

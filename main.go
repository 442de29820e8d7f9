// main is the entry point for the airseries CLI.
package main

import (
	"github.com/huangsam/airseries/cmd"
	"github.com/huangsam/airseries/internal/contract"
)

func main() {
	if err := cmd.Execute(); err != nil {
		contract.LogFatal("Cannot run airseries", err)
	}
}

// Package main - marketctl CLI
//
// Usage:
//
//	go run ./cmd/marketctl fetch-prices AAPL MSFT RELIANCE.NS
//	go run ./cmd/marketctl advise-ipos
package main

import (
	"os"

	"github.com/Mohammad-Azeem/catalyst-markets/cmd/marketctl/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}

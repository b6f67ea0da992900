package main

import "github.com/openfga-tools/dedup-proxy/cmd"

func main() {
	cmd.Execute()
}

package main

import "github.com/deploymenttheory/go-extfs/cmd"

func main() {
	cmd.Execute()
}

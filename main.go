package main

import "github.com/nextserve/oralvis-sync/cmd"

func main() {
	cmd.Execute()
}

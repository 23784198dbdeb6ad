package main

import "github.com/xvierd/runstamp/cmd"

func main() {
	cmd.Execute()
}

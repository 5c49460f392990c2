package main

import "costsync/cmd"

func main() {
	cmd.Execute()
}

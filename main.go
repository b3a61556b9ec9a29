package main

import "kindle-sync/cmd"

func main() {
	cmd.Execute()
}

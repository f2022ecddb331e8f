package main

import "github.com/vonnieda/dimple/cmd"

func main() {
	cmd.Execute()
}

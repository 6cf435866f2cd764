package main

import "github.com/Mohsinsiddi/tscsale/cmd"

func main() {
	cmd.Execute()
}

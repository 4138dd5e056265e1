package main

import "github.com/Mohsinsiddi/hhbridge/cmd"

func main() {
	cmd.Execute()
}

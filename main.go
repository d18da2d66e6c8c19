package main

import "github.com/code-sleuth/eduverse-go/cmd"

func main() {
	cmd.Execute()
}

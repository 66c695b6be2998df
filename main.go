package main

import "github.com/iksnae/branch-chat/cmd"

func main() {
	cmd.Execute()
}

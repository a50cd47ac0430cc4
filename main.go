package main

import "github.com/unidown/unidown/cmd"

func main() {
	cmd.Execute()
}

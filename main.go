package main

import "github.com/craftling/craftling/cmd"

func main() {
	cmd.Execute()
}

package main

import "github.com/KaramelBytes/churnboard/cmd"

func main() {
	cmd.Execute()
}

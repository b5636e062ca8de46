package main

import (
	"mashrabu/cmd"
)

func main() {
	cmd.Execute()
}

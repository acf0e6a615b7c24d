package main

import "github.com/kaiz-lifeos/kaiz/cmd"

func main() {
	cmd.Execute()
}

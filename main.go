package main

import "github.com/clinistats/metaprop/cmd"

func main() {
	cmd.Execute()
}

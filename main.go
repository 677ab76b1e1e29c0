package main

import "datacurator/curate/cmd"

func main() {
	cmd.Execute()
}

package main

import "github.com/chefstream/chefstream/cmd"

func main() {
	cmd.Execute()
}

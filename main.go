package main

import "github.com/ValentinKolb/ucoll/cmd"

func main() {
	cmd.Execute()
}

package main

import "github.com/ArnaudCalmettes/histonorm/cmd"

func main() {
	cmd.Execute()
}

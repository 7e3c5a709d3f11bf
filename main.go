package main

import "github.com/theirongolddev/sgp/cmd"

func main() {
	cmd.Execute()
}

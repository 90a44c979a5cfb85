package main

import "github.com/mselser95/polymarket-trader/cmd"

func main() {
	cmd.Execute()
}

package main

import "github.com/Synternet/terraswap-core/cmd"

func main() {
	cmd.Execute()
}

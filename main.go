package main

import "github/chapool/go-hwsigner/cmd"

func main() {
	cmd.Execute()
}

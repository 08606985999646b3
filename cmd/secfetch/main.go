package main

import "github.com/JeanGrijp/go-secfetch/internal/cli"

func main() {
	cli.Execute()
}

package main

import "cashcast/internal/cli"

func main() {
	cli.LoadEnvFile()
	Execute()
}

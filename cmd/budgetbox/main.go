package main

import "budgetbox/internal/cli"

func main() {
	cli.Execute()
}

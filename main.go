package main

import "github.com/ethanolivertroy/yarn-audit-check/cmd"

func main() {
	cmd.Execute()
}

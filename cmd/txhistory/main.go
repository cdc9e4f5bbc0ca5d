package main

import (
	"github.com/onflow/txhistory/cmd/txhistory/cmd"
)

func main() {
	cmd.Execute()
}

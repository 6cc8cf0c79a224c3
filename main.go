package main

import (
	"massiliafm/cmd"
)

func main() {
	cmd.Execute()
}

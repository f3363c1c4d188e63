package main

import (
	"github.com/ColonelBlimp/kochtrainer/cmd"
	"github.com/ColonelBlimp/kochtrainer/internal/recovery"
)

func main() {
	defer recovery.HandlePanic()
	cmd.Execute()
}

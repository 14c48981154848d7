package main

import (
	"github.com/hud203/leadengine/cmd"
	_ "github.com/hud203/leadengine/cmd/cli"
	_ "github.com/hud203/leadengine/cmd/server"
)

func main() {
	cmd.Execute()
}

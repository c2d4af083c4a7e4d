package main

import (
	"amazon-suisyou/cmd/suisyou-cli/commands"
	"amazon-suisyou/lib/serviceutil"
)

func main() {
	commands.ExecuteContext(serviceutil.SignalContext())
}

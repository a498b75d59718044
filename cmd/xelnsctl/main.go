// Command xelnsctl is the operator CLI for XELNS site content.
package main

import (
	"os"

	"github.com/xelns/xelns-web/internal/ctl"
)

func main() {
	os.Exit(ctl.Execute())
}

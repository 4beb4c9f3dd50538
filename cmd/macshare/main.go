// Command macshare toggles and inspects macOS Internet Sharing.
package main

import (
	"github.com/netbardus/macshare/internal/cli"
)

func main() {
	cli.Execute()
}

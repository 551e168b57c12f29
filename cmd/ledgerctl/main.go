// Command ledgerctl runs on-demand ledger checks and journal maintenance
// against the same database and configuration as the API server.
package main

import (
	"os"
)

func main() {
	if err := newRootCmd(openPostgres).Execute(); err != nil {
		os.Exit(1)
	}
}

// Command worker runs the invoice schedulers without the HTTP API. It is the
// same as "cryptbill worker".
package main

import (
	"os"

	"github.com/cryptbill/cryptbill/internal/interfaces/cli/worker"
)

func main() {
	if err := worker.NewCommand().Execute(); err != nil {
		os.Exit(1)
	}
}

// mt5bridged serves the trading-terminal bridge over TCP. Without a real
// terminal attached it runs against the built-in simulated one, which is
// enough for client development and integration testing.
package main

import (
	"fmt"
	"os"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

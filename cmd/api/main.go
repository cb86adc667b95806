// Command api runs the engagement API as a long running server with the
// local WebSocket endpoint.
package main

import (
	"log"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		log.Fatalf("Error executing command: %v", err)
	}
}

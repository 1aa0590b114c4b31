// Command recall finds and resumes past coding-agent sessions.
package main

import "github.com/berth-dev/recall/internal/cli"

func main() {
	cli.Execute()
}

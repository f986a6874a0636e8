// Command khatt runs the manuscript annotation store and its HTTP API.
package main

import "github.com/mesh-intelligence/khatt/internal/cli"

func main() {
	cli.Main()
}

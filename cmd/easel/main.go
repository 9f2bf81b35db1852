// Command easel manages a local store of whiteboard boards.
package main

import "github.com/mesh-intelligence/easel/internal/cli"

func main() {
	cli.Execute()
}

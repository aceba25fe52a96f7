package main

import "github.com/swcstudio/fsl-continuum-sub003/internal/cli"

func main() {
	cli.Execute()
}

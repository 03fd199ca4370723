// ccflags prints the compiler flags an editor's clang-based completion
// engine needs for the C sources of a project.
package main

import "github.com/albertocavalcante/ccflags/cmd/ccflags/internal/cli"

func main() {
	cli.Execute()
}

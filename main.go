// SPDX-License-Identifier: MPL-2.0

package main

import cmd "github.com/algorist/algorist/cmd/algorist"

func main() {
	cmd.Execute()
}

// SPDX-License-Identifier: MPL-2.0

package main

import "github.com/lintcage/lintcage/cmd/lintcage"

func main() {
	cmd.Execute()
}
